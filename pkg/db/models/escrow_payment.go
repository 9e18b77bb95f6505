package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lexorahq/lexora-backend/pkg/enums"
)

// EscrowPayment is the durable record of one escrow transaction between a
// payer and a payee. Party ids, the meeting reference and the amount are
// immutable after creation; only the lifecycle engine mutates status and the
// completion/release metadata.
type EscrowPayment struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PayerID       uuid.UUID          `gorm:"column:payer_id;type:uuid;not null"`
	PayeeID       uuid.UUID          `gorm:"column:payee_id;type:uuid;not null"`
	MeetingID     uuid.UUID          `gorm:"column:meeting_id;type:uuid;not null"`
	Amount        decimal.Decimal    `gorm:"column:amount;type:numeric(12,2);not null"`
	Status        enums.EscrowStatus `gorm:"column:status;type:escrow_status;not null;default:'pending'"`
	PaymentMethod *string            `gorm:"column:payment_method"`
	TransactionID *string            `gorm:"column:transaction_id"`
	PaymentDate   *time.Time         `gorm:"column:payment_date"`
	ReleaseAt     *time.Time         `gorm:"column:release_at"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (EscrowPayment) TableName() string { return "escrow_payments" }
