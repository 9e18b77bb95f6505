package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lexorahq/lexora-backend/pkg/enums"
)

// EscrowEvent records an immutable audit entry for a payment transition.
// ActorUserID is nil when the transition was driven by the gateway callback
// or the release scheduler rather than a logged-in user.
type EscrowEvent struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentID   uuid.UUID             `gorm:"column:payment_id;type:uuid;not null"`
	ActorUserID *uuid.UUID            `gorm:"column:actor_user_id;type:uuid"`
	Type        enums.EscrowEventType `gorm:"column:type;type:escrow_event_type;not null"`
	Amount      decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	Metadata    json.RawMessage       `gorm:"column:metadata;type:jsonb"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
}

func (EscrowEvent) TableName() string { return "escrow_events" }
