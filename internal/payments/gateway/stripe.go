package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"

	"github.com/lexorahq/lexora-backend/internal/payments"
	pkgerrors "github.com/lexorahq/lexora-backend/pkg/errors"
	pkgstripe "github.com/lexorahq/lexora-backend/pkg/stripe"
)

const (
	metadataPaymentID = "payment_id"
	productName       = "Escrow payment"
)

// StripeSessionClient exposes the subset of checkout session operations the
// adapter requires.
type StripeSessionClient interface {
	New(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(ctx context.Context, id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type sessionClientWrapper struct{}

// NewSessionClient wraps the initialized Stripe client so the adapter can be
// tested without network calls.
func NewSessionClient(api *pkgstripe.Client) StripeSessionClient {
	if api == nil {
		return nil
	}
	return &sessionClientWrapper{}
}

func (w *sessionClientWrapper) New(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if params != nil {
		params.Context = ctx
	}
	return session.New(params)
}

func (w *sessionClientWrapper) Get(ctx context.Context, id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if params == nil {
		params = &stripe.CheckoutSessionParams{}
	}
	params.Context = ctx
	return session.Get(id, params)
}

// CheckoutAdapter implements the engine's CheckoutGateway on Stripe checkout
// sessions. It is the only component that talks to Stripe; every failure is
// surfaced as a dependency error carrying the underlying message, never
// retried here.
type CheckoutAdapter struct {
	sessions   StripeSessionClient
	currency   string
	successURL string
	cancelURL  string
}

// NewCheckoutAdapter builds the Stripe-backed gateway adapter.
func NewCheckoutAdapter(sessions StripeSessionClient, currency, successURL, cancelURL string) (*CheckoutAdapter, error) {
	if sessions == nil {
		return nil, fmt.Errorf("stripe session client required")
	}
	if strings.TrimSpace(currency) == "" {
		currency = "usd"
	}
	if strings.TrimSpace(successURL) == "" || strings.TrimSpace(cancelURL) == "" {
		return nil, fmt.Errorf("checkout redirect urls required")
	}
	return &CheckoutAdapter{
		sessions:   sessions,
		currency:   strings.ToLower(currency),
		successURL: successURL,
		cancelURL:  cancelURL,
	}, nil
}

// OpenSession creates a payment-mode checkout session for the full escrow
// amount, tagging it with the payment id so the completion callback can be
// resolved back to the record.
func (a *CheckoutAdapter) OpenSession(ctx context.Context, paymentID uuid.UUID, amount decimal.Decimal) (*payments.GatewaySession, error) {
	if paymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment id required for checkout session")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(a.successURL),
		CancelURL:  stripe.String(a.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(a.currency),
					UnitAmount: stripe.Int64(amountToMinorUnits(amount)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(productName),
					},
				},
			},
		},
	}
	params.AddMetadata(metadataPaymentID, paymentID.String())

	sess, err := a.sessions.New(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open checkout session")
	}
	if sess == nil || sess.ID == "" || sess.URL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway returned an incomplete checkout session")
	}

	return &payments.GatewaySession{ID: sess.ID, RedirectURL: sess.URL}, nil
}

// ResolveSession loads a finished checkout session and maps it back to the
// payment it was opened for.
func (a *CheckoutAdapter) ResolveSession(ctx context.Context, sessionID string) (*payments.GatewayCompletion, error) {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "session id required")
	}

	params := &stripe.CheckoutSessionParams{}
	params.AddExpand("payment_intent")

	sess, err := a.sessions.Get(ctx, id, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve checkout session")
	}

	return completionFromSession(sess)
}

func completionFromSession(sess *stripe.CheckoutSession) (*payments.GatewayCompletion, error) {
	if sess == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "checkout session not found")
	}
	if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("checkout session %s is not paid (status %s)", sess.ID, sess.PaymentStatus))
	}

	raw, ok := sess.Metadata[metadataPaymentID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "checkout session is missing the payment id")
	}
	paymentID, err := uuid.Parse(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "malformed payment id on checkout session")
	}

	completion := &payments.GatewayCompletion{
		PaymentID: paymentID,
		Method:    "card",
	}
	if len(sess.PaymentMethodTypes) > 0 {
		completion.Method = string(sess.PaymentMethodTypes[0])
	}
	if sess.PaymentIntent != nil {
		completion.TransactionID = sess.PaymentIntent.ID
		if sess.PaymentIntent.Created > 0 {
			completion.PaidAt = time.Unix(sess.PaymentIntent.Created, 0).UTC()
		}
	}
	if completion.PaidAt.IsZero() && sess.Created > 0 {
		completion.PaidAt = time.Unix(sess.Created, 0).UTC()
	}
	return completion, nil
}

func amountToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
