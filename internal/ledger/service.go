package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lexorahq/lexora-backend/pkg/db/models"
	"github.com/lexorahq/lexora-backend/pkg/enums"
)

// Service defines operations that record escrow audit events.
type Service interface {
	WithTx(tx *gorm.DB) Service
	RecordEvent(ctx context.Context, input RecordEventInput) (*models.EscrowEvent, error)
	HasEvent(ctx context.Context, paymentID uuid.UUID, eventType enums.EscrowEventType) (bool, error)
	ListForPayment(ctx context.Context, paymentID uuid.UUID) ([]models.EscrowEvent, error)
}

type service struct {
	repo Repository
}

// RecordEventInput captures the immutable data an escrow event requires.
// ActorUserID stays nil for gateway callbacks and scheduler runs.
type RecordEventInput struct {
	PaymentID   uuid.UUID             `json:"payment_id"`
	ActorUserID *uuid.UUID            `json:"actor_user_id,omitempty"`
	Type        enums.EscrowEventType `json:"type"`
	Amount      decimal.Decimal       `json:"amount"`
	Metadata    json.RawMessage       `json:"metadata,omitempty"`
}

// NewService wires an event service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx)}
}

func (s *service) RecordEvent(ctx context.Context, input RecordEventInput) (*models.EscrowEvent, error) {
	if input.PaymentID == uuid.Nil {
		return nil, fmt.Errorf("payment id is required")
	}
	if !input.Type.IsValid() {
		return nil, fmt.Errorf("invalid escrow event type %q", input.Type)
	}

	event := &models.EscrowEvent{
		PaymentID:   input.PaymentID,
		ActorUserID: input.ActorUserID,
		Type:        input.Type,
		Amount:      input.Amount,
		Metadata:    input.Metadata,
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *service) HasEvent(ctx context.Context, paymentID uuid.UUID, eventType enums.EscrowEventType) (bool, error) {
	if paymentID == uuid.Nil {
		return false, fmt.Errorf("payment id is required")
	}
	if !eventType.IsValid() {
		return false, fmt.Errorf("invalid escrow event type %q", eventType)
	}

	events, err := s.repo.ListByPaymentID(ctx, paymentID)
	if err != nil {
		return false, err
	}
	for _, event := range events {
		if event.Type == eventType {
			return true, nil
		}
	}
	return false, nil
}

func (s *service) ListForPayment(ctx context.Context, paymentID uuid.UUID) ([]models.EscrowEvent, error) {
	if paymentID == uuid.Nil {
		return nil, fmt.Errorf("payment id is required")
	}
	return s.repo.ListByPaymentID(ctx, paymentID)
}
