package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lexorahq/lexora-backend/pkg/db/models"
	"github.com/lexorahq/lexora-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payment *models.EscrowPayment) (*models.EscrowPayment, error) {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.EscrowPayment, error) {
	var payment models.EscrowPayment
	if err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.EscrowPayment, error) {
	var payment models.EscrowPayment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&payment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.EscrowPayment{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ListByParty(ctx context.Context, userID uuid.UUID, params pagination.PageParams) ([]models.EscrowPayment, int64, error) {
	params = params.Normalize()

	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.EscrowPayment{}).
		Where("payer_id = ? OR payee_id = ?", userID, userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at ASC"
	if params.Descending() {
		order = "created_at DESC"
	}

	var rows []models.EscrowPayment
	if err := r.db.WithContext(ctx).
		Where("payer_id = ? OR payee_id = ?", userID, userID).
		Order(order).
		Offset(params.Offset()).
		Limit(params.Size).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
