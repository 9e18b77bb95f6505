package payments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lexorahq/lexora-backend/pkg/db/models"
	"github.com/lexorahq/lexora-backend/pkg/enums"
	"github.com/lexorahq/lexora-backend/pkg/pagination"
)

func setupPaymentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	escrowPayments := `
CREATE TABLE IF NOT EXISTS escrow_payments (
  id TEXT PRIMARY KEY,
  payer_id TEXT NOT NULL,
  payee_id TEXT NOT NULL,
  meeting_id TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_method TEXT,
  transaction_id TEXT,
  payment_date DATETIME,
  release_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(escrowPayments).Error)
	return db
}

func createTestPayment(t *testing.T, db *gorm.DB, payer, payee uuid.UUID, amount string, created time.Time) *models.EscrowPayment {
	t.Helper()

	payment := &models.EscrowPayment{
		ID:        uuid.New(),
		PayerID:   payer,
		PayeeID:   payee,
		MeetingID: uuid.New(),
		Amount:    decimal.RequireFromString(amount),
		Status:    enums.EscrowStatusPending,
		CreatedAt: created,
		UpdatedAt: created,
	}
	require.NoError(t, db.Create(payment).Error)
	return payment
}

func TestRepositoryCreateAndFind(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)

	payment := &models.EscrowPayment{
		ID:        uuid.New(),
		PayerID:   uuid.New(),
		PayeeID:   uuid.New(),
		MeetingID: uuid.New(),
		Amount:    decimal.RequireFromString("250.00"),
		Status:    enums.EscrowStatusPending,
	}

	created, err := repo.Create(context.Background(), payment)
	require.NoError(t, err)

	found, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.True(t, found.Amount.Equal(decimal.RequireFromString("250.00")))
	assert.Equal(t, enums.EscrowStatusPending, found.Status)
}

func TestRepositoryFindByIDNotFound(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryUpdateTransitionColumns(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC().Truncate(time.Second)
	payment := createTestPayment(t, db, uuid.New(), uuid.New(), "99.95", now)

	err := repo.Update(context.Background(), payment.ID, map[string]any{
		"status":         enums.EscrowStatusPaid,
		"payment_method": "card",
		"transaction_id": "pi_123",
		"payment_date":   now,
	})
	require.NoError(t, err)

	found, err := repo.FindByID(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.EscrowStatusPaid, found.Status)
	require.NotNil(t, found.PaymentMethod)
	assert.Equal(t, "card", *found.PaymentMethod)
	require.NotNil(t, found.TransactionID)
	assert.Equal(t, "pi_123", *found.TransactionID)
	require.NotNil(t, found.PaymentDate)
	assert.True(t, found.Amount.Equal(decimal.RequireFromString("99.95")), "amount must never change on update")
}

func TestRepositoryListByPartyPagination(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)

	payer := uuid.New()
	payee := uuid.New()
	other := uuid.New()
	now := time.Now().UTC()

	oldest := createTestPayment(t, db, payer, payee, "10.00", now.Add(-2*time.Hour))
	middle := createTestPayment(t, db, payer, other, "20.00", now.Add(-time.Hour))
	newest := createTestPayment(t, db, other, payer, "30.00", now)
	createTestPayment(t, db, other, other, "40.00", now) // not visible to payer

	rows, total, err := repo.ListByParty(context.Background(), payer, pagination.PageParams{Page: 0, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, rows, 2)
	assert.Equal(t, newest.ID, rows[0].ID)
	assert.Equal(t, middle.ID, rows[1].ID)

	second, total, err := repo.ListByParty(context.Background(), payer, pagination.PageParams{Page: 1, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, second, 1)
	assert.Equal(t, oldest.ID, second[0].ID)
}

func TestRepositoryListByPartySortDirection(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)

	payer := uuid.New()
	now := time.Now().UTC()
	first := createTestPayment(t, db, payer, uuid.New(), "10.00", now.Add(-time.Hour))
	second := createTestPayment(t, db, payer, uuid.New(), "20.00", now)

	asc, _, err := repo.ListByParty(context.Background(), payer, pagination.PageParams{Size: 10, SortDir: "ASC"})
	require.NoError(t, err)
	require.Len(t, asc, 2)
	assert.Equal(t, first.ID, asc[0].ID)

	// Unknown directions fall back to newest-first rather than erroring.
	desc, _, err := repo.ListByParty(context.Background(), payer, pagination.PageParams{Size: 10, SortDir: "sideways"})
	require.NoError(t, err)
	require.Len(t, desc, 2)
	assert.Equal(t, second.ID, desc[0].ID)
}
