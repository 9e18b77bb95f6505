package release

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupScheduleTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS release_schedules (
  payment_id TEXT PRIMARY KEY,
  run_at DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func TestRepositoryUpsertReplacesRunTime(t *testing.T) {
	db := setupScheduleTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	paymentID := uuid.New()
	first := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	second := first.Add(48 * time.Hour)

	require.NoError(t, repo.Upsert(ctx, paymentID, first))
	require.NoError(t, repo.Upsert(ctx, paymentID, second))

	due, err := repo.FindDue(ctx, second.Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, paymentID, due[0].PaymentID)
	assert.True(t, due[0].RunAt.Equal(second))
}

func TestRepositoryDeleteMissingScheduleSucceeds(t *testing.T) {
	db := setupScheduleTestDB(t)
	repo := NewRepository(db)

	require.NoError(t, repo.Delete(context.Background(), uuid.New()))
}

func TestRepositoryFindDueOrdersAndLimits(t *testing.T) {
	db := setupScheduleTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	late := uuid.New()
	early := uuid.New()
	future := uuid.New()

	require.NoError(t, repo.Upsert(ctx, late, now.Add(-time.Hour)))
	require.NoError(t, repo.Upsert(ctx, early, now.Add(-3*time.Hour)))
	require.NoError(t, repo.Upsert(ctx, future, now.Add(time.Hour)))

	due, err := repo.FindDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, early, due[0].PaymentID)
	assert.Equal(t, late, due[1].PaymentID)

	limited, err := repo.FindDue(ctx, now, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, early, limited[0].PaymentID)
}

func TestRepositoryDeleteClearsSchedule(t *testing.T) {
	db := setupScheduleTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	paymentID := uuid.New()
	runAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(ctx, paymentID, runAt))
	require.NoError(t, repo.Delete(ctx, paymentID))

	due, err := repo.FindDue(ctx, runAt.Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, due)
}
