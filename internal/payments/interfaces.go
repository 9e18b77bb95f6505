package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lexorahq/lexora-backend/internal/notifications"
	"github.com/lexorahq/lexora-backend/pkg/db/models"
	"github.com/lexorahq/lexora-backend/pkg/pagination"
)

// Repository defines persistence operations for escrow payments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.EscrowPayment) (*models.EscrowPayment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.EscrowPayment, error)
	// FindByIDForUpdate takes a row lock; callers must be inside a transaction.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.EscrowPayment, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListByParty(ctx context.Context, userID uuid.UUID, params pagination.PageParams) ([]models.EscrowPayment, int64, error)
}

// GatewaySession is the checkout handle returned when a session opens.
type GatewaySession struct {
	ID          string
	RedirectURL string
}

// GatewayCompletion is the resolved outcome of a finished checkout session.
type GatewayCompletion struct {
	PaymentID     uuid.UUID
	Method        string
	TransactionID string
	PaidAt        time.Time
}

// CheckoutGateway is the only seam to the external payment provider.
type CheckoutGateway interface {
	OpenSession(ctx context.Context, paymentID uuid.UUID, amount decimal.Decimal) (*GatewaySession, error)
	ResolveSession(ctx context.Context, sessionID string) (*GatewayCompletion, error)
}

// ReleaseScheduler manages the deferred auto-release trigger per payment.
// Scheduling twice replaces the prior entry; canceling a missing entry is a
// no-op.
type ReleaseScheduler interface {
	ScheduleRelease(ctx context.Context, paymentID uuid.UUID, at time.Time) error
	CancelScheduledRelease(ctx context.Context, paymentID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type notifier interface {
	Create(ctx context.Context, input notifications.CreateParams) (*models.Notification, error)
}
