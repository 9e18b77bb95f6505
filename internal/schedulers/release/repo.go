package release

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lexorahq/lexora-backend/pkg/db/models"
)

// Repository persists auto-release triggers. One row per payment; scheduling
// the same payment again replaces its run time.
type Repository interface {
	Upsert(ctx context.Context, paymentID uuid.UUID, runAt time.Time) error
	Delete(ctx context.Context, paymentID uuid.UUID) error
	FindDue(ctx context.Context, now time.Time, limit int) ([]models.ReleaseSchedule, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a gorm-backed schedule repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Upsert(ctx context.Context, paymentID uuid.UUID, runAt time.Time) error {
	schedule := models.ReleaseSchedule{
		PaymentID: paymentID,
		RunAt:     runAt.UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "payment_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"run_at", "updated_at"}),
		}).
		Create(&schedule).Error
}

// Delete removes the trigger for a payment. Deleting a payment that was never
// scheduled is not an error.
func (r *repository) Delete(ctx context.Context, paymentID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Delete(&models.ReleaseSchedule{}).Error
}

func (r *repository) FindDue(ctx context.Context, now time.Time, limit int) ([]models.ReleaseSchedule, error) {
	var schedules []models.ReleaseSchedule
	query := r.db.WithContext(ctx).
		Where("run_at <= ?", now.UTC()).
		Order("run_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}
