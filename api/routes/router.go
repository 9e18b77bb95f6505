package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lexorahq/lexora-backend/api/controllers"
	webhookcontrollers "github.com/lexorahq/lexora-backend/api/controllers/webhooks"
	"github.com/lexorahq/lexora-backend/api/middleware"
	"github.com/lexorahq/lexora-backend/internal/notifications"
	"github.com/lexorahq/lexora-backend/internal/payments"
	"github.com/lexorahq/lexora-backend/internal/users"
	stripewebhook "github.com/lexorahq/lexora-backend/internal/webhooks/stripe"
	"github.com/lexorahq/lexora-backend/pkg/config"
	"github.com/lexorahq/lexora-backend/pkg/db"
	"github.com/lexorahq/lexora-backend/pkg/logger"
	"github.com/lexorahq/lexora-backend/pkg/redis"
	"github.com/lexorahq/lexora-backend/pkg/stripe"
)

type RouterParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            db.Pinger
	Redis         *redis.Client
	Users         *users.Repository
	Payments      payments.Service
	Notifications notifications.Service
	StripeClient  *stripe.Client
	WebhookSvc    *stripewebhook.Service
	WebhookGuard  *stripewebhook.IdempotencyGuard
	Gatherer      prometheus.Gatherer
}

func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(p.Logger),
		middleware.RequestID(p.Logger),
		middleware.Logging(p.Logger),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(p.Config))
		r.Get("/ready", controllers.HealthReady(p.Config, p.Logger, p.DB, p.Redis))
	})

	gatherer := p.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(p.WebhookSvc, p.StripeClient, p.WebhookGuard, p.Logger))
	})

	r.Route("/api/v1/payments", func(r chi.Router) {
		// Payment creation is driven by the scheduling flow before the payer
		// has a session, so it carries no auth.
		r.Post("/", controllers.CreatePayment(p.Payments, p.Logger))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(p.Config.JWT, p.Users, p.Logger))
			r.Get("/", controllers.ListPayments(p.Payments, p.Logger))
			r.Get("/{paymentId}", controllers.GetPayment(p.Payments, p.Logger))
			r.Post("/{paymentId}/session", controllers.CreateGatewaySession(p.Payments, p.Logger))
			r.Post("/{paymentId}/release", controllers.ReleasePayment(p.Payments, p.Logger))
			r.Post("/{paymentId}/cancel", controllers.CancelPayment(p.Payments, p.Logger))
		})
	})

	r.Route("/api/v1/notifications", func(r chi.Router) {
		r.Use(middleware.Auth(p.Config.JWT, p.Users, p.Logger))
		r.Get("/", controllers.ListNotifications(p.Notifications, p.Logger))
		r.Post("/{notificationId}/read", controllers.MarkNotificationRead(p.Notifications, p.Logger))
		r.Post("/read-all", controllers.MarkAllNotificationsRead(p.Notifications, p.Logger))
	})

	return r
}
