package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stripe/stripe-go/v84"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/lexorahq/lexora-backend/pkg/errors"
)

type stubCompleter struct {
	sessions []string
	err      error
}

func (s *stubCompleter) CompletePayment(_ context.Context, sessionID string) error {
	s.sessions = append(s.sessions, sessionID)
	return s.err
}

func checkoutEvent(t *testing.T, eventType stripe.EventType, sessionID string) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(&stripe.CheckoutSession{ID: sessionID})
	require.NoError(t, err)
	return &stripe.Event{
		ID:   "evt_1",
		Type: eventType,
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestHandleEventCompletesCheckoutSession(t *testing.T) {
	completer := &stubCompleter{}
	svc, err := NewService(ServiceParams{Payments: completer})
	require.NoError(t, err)

	event := checkoutEvent(t, stripe.EventTypeCheckoutSessionCompleted, "cs_test_1")
	require.NoError(t, svc.HandleEvent(context.Background(), event))
	assert.Equal(t, []string{"cs_test_1"}, completer.sessions)
}

func TestHandleEventIgnoresUnrelatedTypes(t *testing.T) {
	completer := &stubCompleter{}
	svc, err := NewService(ServiceParams{Payments: completer})
	require.NoError(t, err)

	event := checkoutEvent(t, stripe.EventTypeInvoicePaid, "cs_test_1")
	require.NoError(t, svc.HandleEvent(context.Background(), event))
	assert.Empty(t, completer.sessions)
}

func TestHandleEventRejectsMissingData(t *testing.T) {
	svc, err := NewService(ServiceParams{Payments: &stubCompleter{}})
	require.NoError(t, err)

	err = svc.HandleEvent(context.Background(), nil)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	err = svc.HandleEvent(context.Background(), &stripe.Event{ID: "evt_2", Type: stripe.EventTypeCheckoutSessionCompleted})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestHandleEventRejectsBlankSessionID(t *testing.T) {
	completer := &stubCompleter{}
	svc, err := NewService(ServiceParams{Payments: completer})
	require.NoError(t, err)

	event := checkoutEvent(t, stripe.EventTypeCheckoutSessionCompleted, "")
	err = svc.HandleEvent(context.Background(), event)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Empty(t, completer.sessions)
}

func TestHandleEventPropagatesEngineFailure(t *testing.T) {
	completer := &stubCompleter{err: errors.New("row lock timeout")}
	svc, err := NewService(ServiceParams{Payments: completer})
	require.NoError(t, err)

	event := checkoutEvent(t, stripe.EventTypeCheckoutSessionCompleted, "cs_test_9")
	err = svc.HandleEvent(context.Background(), event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row lock timeout")
}
