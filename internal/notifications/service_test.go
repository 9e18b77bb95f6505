package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lexorahq/lexora-backend/pkg/db/models"
	"github.com/lexorahq/lexora-backend/pkg/enums"
	pkgerrors "github.com/lexorahq/lexora-backend/pkg/errors"
	paginationpkg "github.com/lexorahq/lexora-backend/pkg/pagination"
)

type fakeRepository struct {
	createFn      func(ctx context.Context, notification *models.Notification) error
	listFn        func(ctx context.Context, params listNotificationsParams) ([]models.Notification, *paginationpkg.Cursor, error)
	markReadFn    func(ctx context.Context, userID, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error)
	markAllReadFn func(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeRepository) Create(ctx context.Context, notification *models.Notification) error {
	if f.createFn != nil {
		return f.createFn(ctx, notification)
	}
	return nil
}

func (f *fakeRepository) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *paginationpkg.Cursor, error) {
	if f.listFn != nil {
		return f.listFn(ctx, params)
	}
	return nil, nil, nil
}

func (f *fakeRepository) MarkRead(ctx context.Context, userID, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error) {
	if f.markReadFn != nil {
		return f.markReadFn(ctx, userID, notificationID, now)
	}
	return notificationMarkResult{}, nil
}

func (f *fakeRepository) MarkAllRead(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	if f.markAllReadFn != nil {
		return f.markAllReadFn(ctx, userID, now)
	}
	return 0, nil
}

func newServiceWithRepo(repo Repository) Service {
	svc, _ := NewService(repo)
	return svc
}

func TestService_CreateNotification(t *testing.T) {
	var created *models.Notification
	repo := &fakeRepository{
		createFn: func(ctx context.Context, notification *models.Notification) error {
			created = notification
			return nil
		},
	}
	svc := newServiceWithRepo(repo)

	userID := uuid.New()
	got, err := svc.Create(context.Background(), CreateParams{
		UserID:  userID,
		Type:    enums.NotificationTypePayment,
		Title:   "Funds released",
		Message: "Your escrow payment was released.",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if created == nil || created.UserID != userID {
		t.Fatalf("notification not persisted: %+v", created)
	}
	if got.Type != enums.NotificationTypePayment {
		t.Fatalf("unexpected type %s", got.Type)
	}
}

func TestService_CreateNotificationValidation(t *testing.T) {
	svc := newServiceWithRepo(&fakeRepository{})

	_, err := svc.Create(context.Background(), CreateParams{Title: "x"})
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = svc.Create(context.Background(), CreateParams{UserID: uuid.New(), Title: "   "})
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_ListNotifications(t *testing.T) {
	first := models.Notification{ID: uuid.New(), CreatedAt: time.Now()}
	second := models.Notification{ID: uuid.New(), CreatedAt: time.Now().Add(-time.Hour)}
	next := &paginationpkg.Cursor{CreatedAt: second.CreatedAt, ID: second.ID}

	userID := uuid.New()
	repo := &fakeRepository{
		listFn: func(ctx context.Context, params listNotificationsParams) ([]models.Notification, *paginationpkg.Cursor, error) {
			if params.UserID != userID {
				t.Fatalf("unexpected user id %s", params.UserID)
			}
			return []models.Notification{first, second}, next, nil
		},
	}
	svc := newServiceWithRepo(repo)

	result, err := svc.List(context.Background(), ListParams{UserID: userID, Limit: 2})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(result.Items))
	}
	if result.Cursor == "" {
		t.Fatal("expected next cursor to be encoded")
	}

	decoded, err := paginationpkg.ParseCursor(result.Cursor)
	if err != nil {
		t.Fatalf("parse returned cursor: %v", err)
	}
	if decoded.ID != second.ID {
		t.Fatalf("cursor mismatch: %s", decoded.ID)
	}
}

func TestService_ListRejectsBadCursor(t *testing.T) {
	svc := newServiceWithRepo(&fakeRepository{})

	_, err := svc.List(context.Background(), ListParams{UserID: uuid.New(), Cursor: "not-base64!"})
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_MarkRead(t *testing.T) {
	userID := uuid.New()
	notifID := uuid.New()

	repo := &fakeRepository{
		markReadFn: func(ctx context.Context, uid, nid uuid.UUID, now time.Time) (notificationMarkResult, error) {
			if uid != userID || nid != notifID {
				t.Fatalf("unexpected ids %s %s", uid, nid)
			}
			return notificationMarkResult{Updated: true, Found: true}, nil
		},
	}
	svc := newServiceWithRepo(repo)

	if err := svc.MarkRead(context.Background(), userID, notifID); err != nil {
		t.Fatalf("MarkRead error: %v", err)
	}
}

func TestService_MarkReadNotFound(t *testing.T) {
	repo := &fakeRepository{
		markReadFn: func(ctx context.Context, uid, nid uuid.UUID, now time.Time) (notificationMarkResult, error) {
			return notificationMarkResult{}, nil
		},
	}
	svc := newServiceWithRepo(repo)

	err := svc.MarkRead(context.Background(), uuid.New(), uuid.New())
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestService_MarkAllReadBubblesRepoError(t *testing.T) {
	boom := errors.New("boom")
	repo := &fakeRepository{
		markAllReadFn: func(ctx context.Context, uid uuid.UUID, now time.Time) (int64, error) {
			return 0, boom
		},
	}
	svc := newServiceWithRepo(repo)

	if _, err := svc.MarkAllRead(context.Background(), uuid.New()); !errors.Is(err, boom) {
		t.Fatalf("expected repo error to bubble up, got %v", err)
	}
}
