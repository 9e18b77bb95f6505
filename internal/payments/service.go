package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lexorahq/lexora-backend/internal/ledger"
	"github.com/lexorahq/lexora-backend/internal/notifications"
	"github.com/lexorahq/lexora-backend/pkg/db/models"
	"github.com/lexorahq/lexora-backend/pkg/email"
	"github.com/lexorahq/lexora-backend/pkg/enums"
	pkgerrors "github.com/lexorahq/lexora-backend/pkg/errors"
	"github.com/lexorahq/lexora-backend/pkg/logger"
	"github.com/lexorahq/lexora-backend/pkg/metrics"
	"github.com/lexorahq/lexora-backend/pkg/pagination"
)

const (
	opCreateSession  = "create gateway session"
	opReleasePayment = "release payment"
	opCancelPayment  = "cancel payment"

	msgPaymentNotFound = "Payment with this id not found"

	// DefaultHoldingPeriod is how long completed funds stay in escrow before
	// the scheduler releases them automatically.
	DefaultHoldingPeriod = 7 * 24 * time.Hour
)

// Service is the escrow payment lifecycle engine. State transitions run
// inside a transaction holding a row lock on the payment; the audit event is
// written in the same transaction, while notification, email and scheduler
// side effects run best-effort after commit.
type Service interface {
	CreatePayment(ctx context.Context, input CreatePaymentInput) (*PaymentDTO, error)
	CreateGatewaySession(ctx context.Context, paymentID uuid.UUID, actor *models.User) (*SessionDTO, error)
	CompletePayment(ctx context.Context, sessionID string) error
	GetPayment(ctx context.Context, paymentID uuid.UUID, actor *models.User) (*PaymentDTO, error)
	ListPaymentsForUser(ctx context.Context, userID uuid.UUID, params pagination.PageParams) (*PaymentList, error)
	ReleasePayment(ctx context.Context, paymentID uuid.UUID, actor *models.User) (*PaymentDTO, error)
	ExecuteScheduledRelease(ctx context.Context, paymentID uuid.UUID) error
	CancelPayment(ctx context.Context, paymentID uuid.UUID, actor *models.User) (string, error)
}

// ServiceParams wires the lifecycle engine's collaborators.
type ServiceParams struct {
	Repo      Repository
	Tx        txRunner
	Users     userDirectory
	Gateway   CheckoutGateway
	Scheduler ReleaseScheduler
	Ledger    ledger.Service
	Notifier  notifier
	Email     email.Sender
	Logger    *logger.Logger
	Metrics   *metrics.PaymentMetrics

	HoldingPeriod   time.Duration
	FundsTemplateID string

	// Now is overridable for tests; defaults to time.Now UTC.
	Now func() time.Time
}

type service struct {
	repo      Repository
	tx        txRunner
	users     userDirectory
	gateway   CheckoutGateway
	scheduler ReleaseScheduler
	ledger    ledger.Service
	notifier  notifier
	email     email.Sender
	logg      *logger.Logger
	metrics   *metrics.PaymentMetrics

	holdingPeriod   time.Duration
	fundsTemplateID string
	now             func() time.Time
}

// NewService builds the lifecycle engine with the required collaborators.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user directory required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("checkout gateway required")
	}
	if params.Scheduler == nil {
		return nil, fmt.Errorf("release scheduler required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}

	holding := params.HoldingPeriod
	if holding <= 0 {
		holding = DefaultHoldingPeriod
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &service{
		repo:            params.Repo,
		tx:              params.Tx,
		users:           params.Users,
		gateway:         params.Gateway,
		scheduler:       params.Scheduler,
		ledger:          params.Ledger,
		notifier:        params.Notifier,
		email:           params.Email,
		logg:            params.Logger,
		metrics:         params.Metrics,
		holdingPeriod:   holding,
		fundsTemplateID: params.FundsTemplateID,
		now:             now,
	}, nil
}

func (s *service) CreatePayment(ctx context.Context, input CreatePaymentInput) (*PaymentDTO, error) {
	if input.PayerID == uuid.Nil || input.PayeeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Payer and payee ids are required")
	}
	if input.MeetingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Meeting id is required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Amount must be greater than zero")
	}

	// Payee is checked before payer so the error names the right party.
	if err := s.requireUser(ctx, input.PayeeID, "Payee"); err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, input.PayerID, "Payer"); err != nil {
		return nil, err
	}

	payment := &models.EscrowPayment{
		PayerID:   input.PayerID,
		PayeeID:   input.PayeeID,
		MeetingID: input.MeetingID,
		Amount:    input.Amount,
		Status:    enums.EscrowStatusPending,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Create(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}
		_, err := s.ledger.WithTx(tx).RecordEvent(ctx, ledger.RecordEventInput{
			PaymentID: payment.ID,
			Type:      enums.EscrowEventCreated,
			Amount:    payment.Amount,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveAmount(string(enums.EscrowStatusPending), payment.Amount.InexactFloat64())
	return FromModel(payment), nil
}

func (s *service) CreateGatewaySession(ctx context.Context, paymentID uuid.UUID, actor *models.User) (*SessionDTO, error) {
	if paymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Payment id is required")
	}

	payment, err := s.loadPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(actor, payment, opCreateSession); err != nil {
		return nil, err
	}
	if payment.Status != enums.EscrowStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "Checkout session can only be created for a pending payment")
	}

	session, err := s.gateway.OpenSession(ctx, payment.ID, payment.Amount)
	if err != nil {
		return nil, err
	}

	return &SessionDTO{SessionID: session.ID, RedirectURL: session.RedirectURL}, nil
}

func (s *service) CompletePayment(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "Session id is required")
	}

	completion, err := s.gateway.ResolveSession(ctx, sessionID)
	if err != nil {
		return err
	}

	var applied bool
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payment, err := repo.FindByIDForUpdate(ctx, completion.PaymentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, msgPaymentNotFound)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}

		// Duplicate gateway callbacks re-resolve an already completed
		// session; a payment past PENDING stays untouched.
		if payment.Status != enums.EscrowStatusPending {
			return nil
		}

		paidAt := completion.PaidAt
		if paidAt.IsZero() {
			paidAt = s.now()
		}
		updates := map[string]any{
			"status":       enums.EscrowStatusPaid,
			"payment_date": paidAt,
		}
		if completion.Method != "" {
			updates["payment_method"] = completion.Method
		}
		if completion.TransactionID != "" {
			updates["transaction_id"] = completion.TransactionID
		}
		if err := repo.Update(ctx, payment.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete payment")
		}

		metadata, _ := json.Marshal(map[string]string{"session_id": sessionID})
		if _, err := s.ledger.WithTx(tx).RecordEvent(ctx, ledger.RecordEventInput{
			PaymentID: payment.ID,
			Type:      enums.EscrowEventPaid,
			Amount:    payment.Amount,
			Metadata:  metadata,
		}); err != nil {
			return err
		}

		applied = true
		return nil
	})
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}

	s.metrics.IncTransition(string(enums.EscrowStatusPending), string(enums.EscrowStatusPaid))

	runAt := s.now().Add(s.holdingPeriod)
	if err := s.scheduler.ScheduleRelease(ctx, completion.PaymentID, runAt); err != nil {
		s.logError(ctx, completion.PaymentID, "schedule auto release", err)
	}
	return nil
}

func (s *service) GetPayment(ctx context.Context, paymentID uuid.UUID, actor *models.User) (*PaymentDTO, error) {
	if actor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "User is not authenticated")
	}
	if paymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Payment id is required")
	}

	payment, err := s.loadPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	// Reads are open to both parties; writes stay payer-only.
	if actor.ID != payment.PayerID && actor.ID != payment.PayeeID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "You are not authorized to view this payment")
	}
	return FromModel(payment), nil
}

func (s *service) ListPaymentsForUser(ctx context.Context, userID uuid.UUID, params pagination.PageParams) (*PaymentList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "User is not authenticated")
	}

	params = params.Normalize()
	rows, total, err := s.repo.ListByParty(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}

	items := make([]PaymentDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return &PaymentList{
		Items:   items,
		Page:    params.Page,
		Size:    params.Size,
		SortDir: params.SortDir,
		Total:   total,
	}, nil
}

func (s *service) ReleasePayment(ctx context.Context, paymentID uuid.UUID, actor *models.User) (*PaymentDTO, error) {
	released, err := s.release(ctx, paymentID, actor, true)
	if err != nil {
		return nil, err
	}
	return FromModel(released), nil
}

// ExecuteScheduledRelease is the scheduler entry point. A missing payment or
// one no longer in PAID is a silent no-op, which is what keeps late or
// duplicate trigger firings harmless.
func (s *service) ExecuteScheduledRelease(ctx context.Context, paymentID uuid.UUID) error {
	if paymentID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "Payment id is required")
	}
	_, err := s.release(ctx, paymentID, nil, false)
	return err
}

// release holds the shared PAID -> RELEASED transition. Guarded callers
// (manual release) surface NotFound/Forbidden/InvalidState; the scheduled
// path treats those as no-ops. Returns nil without error when no transition
// was applied on the scheduled path.
func (s *service) release(ctx context.Context, paymentID uuid.UUID, actor *models.User, guarded bool) (*models.EscrowPayment, error) {
	var payment *models.EscrowPayment
	var applied bool

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.FindByIDForUpdate(ctx, paymentID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}

		if guarded {
			if err := Authorize(actor, loaded, opReleasePayment); err != nil {
				return err
			}
			if loaded.Status != enums.EscrowStatusPaid {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "Only paid payments can be released")
			}
		} else if loaded == nil || loaded.Status != enums.EscrowStatusPaid {
			return nil
		}

		releasedAt := s.now()
		if err := repo.Update(ctx, loaded.ID, map[string]any{
			"status":     enums.EscrowStatusReleased,
			"release_at": releasedAt,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release payment")
		}

		var actorID *uuid.UUID
		if actor != nil {
			id := actor.ID
			actorID = &id
		}
		if _, err := s.ledger.WithTx(tx).RecordEvent(ctx, ledger.RecordEventInput{
			PaymentID:   loaded.ID,
			ActorUserID: actorID,
			Type:        enums.EscrowEventReleased,
			Amount:      loaded.Amount,
		}); err != nil {
			return err
		}

		loaded.Status = enums.EscrowStatusReleased
		loaded.ReleaseAt = &releasedAt
		payment = loaded
		applied = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, nil
	}

	s.metrics.IncTransition(string(enums.EscrowStatusPaid), string(enums.EscrowStatusReleased))

	// Post-commit side effects. A released payment must not keep a pending
	// auto-release entry; failures here are logged, never surfaced.
	if err := s.scheduler.CancelScheduledRelease(ctx, payment.ID); err != nil {
		s.logError(ctx, payment.ID, "cancel scheduled release", err)
	}
	s.notifyFundsReleased(ctx, payment)

	return payment, nil
}

func (s *service) CancelPayment(ctx context.Context, paymentID uuid.UUID, actor *models.User) (string, error) {
	if paymentID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Payment id is required")
	}

	var payment *models.EscrowPayment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.FindByIDForUpdate(ctx, paymentID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}

		if err := Authorize(actor, loaded, opCancelPayment); err != nil {
			return err
		}
		if loaded.Status != enums.EscrowStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "Only pending payments can be canceled")
		}

		if err := repo.Update(ctx, loaded.ID, map[string]any{
			"status": enums.EscrowStatusCanceled,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel payment")
		}

		actorID := actor.ID
		if _, err := s.ledger.WithTx(tx).RecordEvent(ctx, ledger.RecordEventInput{
			PaymentID:   loaded.ID,
			ActorUserID: &actorID,
			Type:        enums.EscrowEventCanceled,
			Amount:      loaded.Amount,
		}); err != nil {
			return err
		}

		loaded.Status = enums.EscrowStatusCanceled
		payment = loaded
		return nil
	})
	if err != nil {
		return "", err
	}

	s.metrics.IncTransition(string(enums.EscrowStatusPending), string(enums.EscrowStatusCanceled))

	if err := s.scheduler.CancelScheduledRelease(ctx, payment.ID); err != nil {
		s.logError(ctx, payment.ID, "cancel scheduled release", err)
	}

	return "Payment canceled successfully", nil
}

func (s *service) requireUser(ctx context.Context, id uuid.UUID, party string) error {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, party+" with this id not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up "+strings.ToLower(party))
	}
	return nil
}

func (s *service) loadPayment(ctx context.Context, paymentID uuid.UUID) (*models.EscrowPayment, error) {
	payment, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgPaymentNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return payment, nil
}

func (s *service) notifyFundsReleased(ctx context.Context, payment *models.EscrowPayment) {
	if s.notifier != nil {
		_, err := s.notifier.Create(ctx, notifications.CreateParams{
			UserID:  payment.PayeeID,
			Type:    enums.NotificationTypePayment,
			Title:   "Funds released",
			Message: fmt.Sprintf("Escrow funds of %s have been released to you.", payment.Amount.StringFixed(2)),
		})
		if err != nil {
			s.logError(ctx, payment.ID, "create release notification", err)
		}
	}

	if s.email == nil {
		return
	}
	payee, err := s.users.FindByID(ctx, payment.PayeeID)
	if err != nil {
		s.logError(ctx, payment.ID, "load payee for release email", err)
		return
	}
	err = s.email.SendTemplate(ctx, email.TemplateMessage{
		ToEmail:    payee.Email,
		ToName:     strings.TrimSpace(payee.FirstName + " " + payee.LastName),
		TemplateID: s.fundsTemplateID,
		Data: map[string]any{
			"amount":     payment.Amount.StringFixed(2),
			"payment_id": payment.ID.String(),
		},
	})
	if err != nil {
		s.logError(ctx, payment.ID, "send release email", err)
	}
}

func (s *service) logError(ctx context.Context, paymentID uuid.UUID, action string, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithPaymentID(ctx, paymentID.String())
	s.logg.Error(ctx, action+" failed", err)
}
