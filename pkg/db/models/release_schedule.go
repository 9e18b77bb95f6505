package models

import (
	"time"

	"github.com/google/uuid"
)

// ReleaseSchedule holds the pending auto-release trigger for a paid escrow
// payment. At most one row exists per payment; scheduling again replaces the
// run time, canceling deletes the row.
type ReleaseSchedule struct {
	PaymentID uuid.UUID `gorm:"column:payment_id;type:uuid;primaryKey"`
	RunAt     time.Time `gorm:"column:run_at;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ReleaseSchedule) TableName() string { return "release_schedules" }
