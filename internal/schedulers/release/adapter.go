package release

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Adapter exposes the schedule repository through the interface the payment
// engine expects from its release scheduler.
type Adapter struct {
	repo Repository
}

// NewAdapter wraps a schedule repository.
func NewAdapter(repo Repository) (*Adapter, error) {
	if repo == nil {
		return nil, errors.New("schedule repository required")
	}
	return &Adapter{repo: repo}, nil
}

// ScheduleRelease records when a payment's funds should be auto-released.
// Scheduling an already scheduled payment moves its run time.
func (a *Adapter) ScheduleRelease(ctx context.Context, paymentID uuid.UUID, at time.Time) error {
	return a.repo.Upsert(ctx, paymentID, at)
}

// CancelScheduledRelease drops the trigger for a payment. Canceling a payment
// with no trigger succeeds.
func (a *Adapter) CancelScheduledRelease(ctx context.Context, paymentID uuid.UUID) error {
	return a.repo.Delete(ctx, paymentID)
}
