package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lexorahq/lexora-backend/pkg/db/models"
	"github.com/lexorahq/lexora-backend/pkg/enums"
	"github.com/lexorahq/lexora-backend/pkg/pagination"
)

// PaymentDTO is the transport shape for an escrow payment.
type PaymentDTO struct {
	ID            uuid.UUID          `json:"id"`
	PayerID       uuid.UUID          `json:"payer_id"`
	PayeeID       uuid.UUID          `json:"payee_id"`
	MeetingID     uuid.UUID          `json:"meeting_id"`
	Amount        decimal.Decimal    `json:"amount"`
	Status        enums.EscrowStatus `json:"status"`
	PaymentMethod *string            `json:"payment_method,omitempty"`
	TransactionID *string            `json:"transaction_id,omitempty"`
	PaymentDate   *time.Time         `json:"payment_date,omitempty"`
	ReleaseAt     *time.Time         `json:"release_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// SessionDTO carries the gateway checkout handle back to the client.
type SessionDTO struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

// CreatePaymentInput captures the immutable fields of a new escrow payment.
type CreatePaymentInput struct {
	PayerID   uuid.UUID       `json:"payer_id"`
	PayeeID   uuid.UUID       `json:"payee_id"`
	MeetingID uuid.UUID       `json:"meeting_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// PaymentList is one page of payments for a party.
type PaymentList = pagination.Page[PaymentDTO]

// FromModel maps the persisted payment onto its transport shape.
func FromModel(p *models.EscrowPayment) *PaymentDTO {
	if p == nil {
		return nil
	}
	return &PaymentDTO{
		ID:            p.ID,
		PayerID:       p.PayerID,
		PayeeID:       p.PayeeID,
		MeetingID:     p.MeetingID,
		Amount:        p.Amount,
		Status:        p.Status,
		PaymentMethod: p.PaymentMethod,
		TransactionID: p.TransactionID,
		PaymentDate:   p.PaymentDate,
		ReleaseAt:     p.ReleaseAt,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
