package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lexorahq/lexora-backend/api/middleware"
	"github.com/lexorahq/lexora-backend/internal/payments"
	"github.com/lexorahq/lexora-backend/pkg/db/models"
	pkgerrors "github.com/lexorahq/lexora-backend/pkg/errors"
	"github.com/lexorahq/lexora-backend/pkg/logger"
	"github.com/lexorahq/lexora-backend/pkg/pagination"
)

type testPaymentsService struct {
	createFn        func(ctx context.Context, input payments.CreatePaymentInput) (*payments.PaymentDTO, error)
	createSessionFn func(ctx context.Context, paymentID uuid.UUID, actor *models.User) (*payments.SessionDTO, error)
	completeFn      func(ctx context.Context, sessionID string) error
	getFn           func(ctx context.Context, paymentID uuid.UUID, actor *models.User) (*payments.PaymentDTO, error)
	listFn          func(ctx context.Context, userID uuid.UUID, params pagination.PageParams) (*payments.PaymentList, error)
	releaseFn       func(ctx context.Context, paymentID uuid.UUID, actor *models.User) (*payments.PaymentDTO, error)
	cancelFn        func(ctx context.Context, paymentID uuid.UUID, actor *models.User) (string, error)
}

func (s *testPaymentsService) CreatePayment(ctx context.Context, input payments.CreatePaymentInput) (*payments.PaymentDTO, error) {
	if s.createFn != nil {
		return s.createFn(ctx, input)
	}
	return nil, nil
}

func (s *testPaymentsService) CreateGatewaySession(ctx context.Context, paymentID uuid.UUID, actor *models.User) (*payments.SessionDTO, error) {
	if s.createSessionFn != nil {
		return s.createSessionFn(ctx, paymentID, actor)
	}
	return nil, nil
}

func (s *testPaymentsService) CompletePayment(ctx context.Context, sessionID string) error {
	if s.completeFn != nil {
		return s.completeFn(ctx, sessionID)
	}
	return nil
}

func (s *testPaymentsService) GetPayment(ctx context.Context, paymentID uuid.UUID, actor *models.User) (*payments.PaymentDTO, error) {
	if s.getFn != nil {
		return s.getFn(ctx, paymentID, actor)
	}
	return nil, nil
}

func (s *testPaymentsService) ListPaymentsForUser(ctx context.Context, userID uuid.UUID, params pagination.PageParams) (*payments.PaymentList, error) {
	if s.listFn != nil {
		return s.listFn(ctx, userID, params)
	}
	return nil, nil
}

func (s *testPaymentsService) ReleasePayment(ctx context.Context, paymentID uuid.UUID, actor *models.User) (*payments.PaymentDTO, error) {
	if s.releaseFn != nil {
		return s.releaseFn(ctx, paymentID, actor)
	}
	return nil, nil
}

func (s *testPaymentsService) ExecuteScheduledRelease(ctx context.Context, paymentID uuid.UUID) error {
	return nil
}

func (s *testPaymentsService) CancelPayment(ctx context.Context, paymentID uuid.UUID, actor *models.User) (string, error) {
	if s.cancelFn != nil {
		return s.cancelFn(ctx, paymentID, actor)
	}
	return "", nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func addRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func withActor(req *http.Request, user *models.User) *http.Request {
	return req.WithContext(middleware.WithUser(req.Context(), user))
}

func TestCreatePaymentReturnsCreated(t *testing.T) {
	payerID := uuid.New()
	payeeID := uuid.New()
	meetingID := uuid.New()

	svc := &testPaymentsService{
		createFn: func(ctx context.Context, input payments.CreatePaymentInput) (*payments.PaymentDTO, error) {
			if input.PayerID != payerID || input.PayeeID != payeeID || input.MeetingID != meetingID {
				t.Fatalf("unexpected input %+v", input)
			}
			if !input.Amount.Equal(decimal.RequireFromString("150.00")) {
				t.Fatalf("unexpected amount %s", input.Amount)
			}
			return &payments.PaymentDTO{ID: uuid.New(), PayerID: payerID}, nil
		},
	}

	body, _ := json.Marshal(map[string]any{
		"payer_id":   payerID,
		"payee_id":   payeeID,
		"meeting_id": meetingID,
		"amount":     "150.00",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	CreatePayment(svc, testLogger())(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestCreatePaymentRejectsMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", bytes.NewReader([]byte(`{"payer_id":`)))
	rec := httptest.NewRecorder()

	CreatePayment(&testPaymentsService{}, testLogger())(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreatePaymentRejectsMissingFields(t *testing.T) {
	body, _ := json.Marshal(map[string]any{"payer_id": uuid.New()})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	CreatePayment(&testPaymentsService{}, testLogger())(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestCreateGatewaySessionPassesActor(t *testing.T) {
	paymentID := uuid.New()
	actor := &models.User{ID: uuid.New()}

	svc := &testPaymentsService{
		createSessionFn: func(ctx context.Context, pid uuid.UUID, a *models.User) (*payments.SessionDTO, error) {
			if pid != paymentID {
				t.Fatalf("unexpected payment id %s", pid)
			}
			if a == nil || a.ID != actor.ID {
				t.Fatalf("actor not forwarded")
			}
			return &payments.SessionDTO{SessionID: "cs_1", RedirectURL: "https://checkout.stripe.com/cs_1"}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/"+paymentID.String()+"/session", nil)
	req = addRouteParam(req, "paymentId", paymentID.String())
	req = withActor(req, actor)
	rec := httptest.NewRecorder()

	CreateGatewaySession(svc, testLogger())(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data payments.SessionDTO `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.SessionID != "cs_1" {
		t.Fatalf("unexpected session %+v", envelope.Data)
	}
}

func TestGetPaymentSurfacesForbiddenMessage(t *testing.T) {
	paymentID := uuid.New()
	svc := &testPaymentsService{
		getFn: func(ctx context.Context, pid uuid.UUID, a *models.User) (*payments.PaymentDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "You are not authorized to view this payment")
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/"+paymentID.String(), nil)
	req = addRouteParam(req, "paymentId", paymentID.String())
	req = withActor(req, &models.User{ID: uuid.New()})
	rec := httptest.NewRecorder()

	GetPayment(svc, testLogger())(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Error.Message != "You are not authorized to view this payment" {
		t.Fatalf("unexpected message %q", envelope.Error.Message)
	}
}

func TestGetPaymentRejectsInvalidID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/not-a-uuid", nil)
	req = addRouteParam(req, "paymentId", "not-a-uuid")
	rec := httptest.NewRecorder()

	GetPayment(&testPaymentsService{}, testLogger())(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListPaymentsForwardsQueryParams(t *testing.T) {
	actor := &models.User{ID: uuid.New()}
	svc := &testPaymentsService{
		listFn: func(ctx context.Context, userID uuid.UUID, params pagination.PageParams) (*payments.PaymentList, error) {
			if userID != actor.ID {
				t.Fatalf("unexpected user %s", userID)
			}
			if params.Page != 2 || params.Size != 5 {
				t.Fatalf("unexpected paging %+v", params)
			}
			if params.SortDir != "sideways" {
				t.Fatalf("sortDir should pass through verbatim, got %q", params.SortDir)
			}
			return &payments.PaymentList{Page: 2, Size: 5, SortDir: "sideways"}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments?page=2&size=5&sortDir=sideways", nil)
	req = withActor(req, actor)
	rec := httptest.NewRecorder()

	ListPayments(svc, testLogger())(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestListPaymentsRequiresActor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments", nil)
	rec := httptest.NewRecorder()

	ListPayments(&testPaymentsService{}, testLogger())(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestListPaymentsRejectsNonNumericPage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments?page=abc", nil)
	req = withActor(req, &models.User{ID: uuid.New()})
	rec := httptest.NewRecorder()

	ListPayments(&testPaymentsService{}, testLogger())(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCancelPaymentReturnsConfirmation(t *testing.T) {
	paymentID := uuid.New()
	svc := &testPaymentsService{
		cancelFn: func(ctx context.Context, pid uuid.UUID, a *models.User) (string, error) {
			return "Payment canceled successfully", nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/"+paymentID.String()+"/cancel", nil)
	req = addRouteParam(req, "paymentId", paymentID.String())
	req = withActor(req, &models.User{ID: uuid.New()})
	rec := httptest.NewRecorder()

	CancelPayment(svc, testLogger())(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data["message"] != "Payment canceled successfully" {
		t.Fatalf("unexpected message %q", envelope.Data["message"])
	}
}

func TestReleasePaymentSurfacesStateConflict(t *testing.T) {
	paymentID := uuid.New()
	svc := &testPaymentsService{
		releaseFn: func(ctx context.Context, pid uuid.UUID, a *models.User) (*payments.PaymentDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "Only paid payments can be released")
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/"+paymentID.String()+"/release", nil)
	req = addRouteParam(req, "paymentId", paymentID.String())
	req = withActor(req, &models.User{ID: uuid.New()})
	rec := httptest.NewRecorder()

	ReleasePayment(svc, testLogger())(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}
