package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/lexorahq/lexora-backend/pkg/errors"
)

type paymentCompleter interface {
	CompletePayment(ctx context.Context, sessionID string) error
}

type ServiceParams struct {
	Payments paymentCompleter
}

// Service turns verified Stripe events into payment engine calls. Only
// checkout completion matters to the escrow flow; other event types are
// acknowledged and dropped.
type Service struct {
	payments paymentCompleter
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Payments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payments service required")
	}
	return &Service{payments: params.Payments}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted,
		stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout session event")
		}
		if session.ID == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "checkout session id missing")
		}
		return s.payments.CompletePayment(ctx, session.ID)
	default:
		return nil
	}
}
