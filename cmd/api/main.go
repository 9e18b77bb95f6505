package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lexorahq/lexora-backend/api/routes"
	"github.com/lexorahq/lexora-backend/internal/ledger"
	"github.com/lexorahq/lexora-backend/internal/notifications"
	"github.com/lexorahq/lexora-backend/internal/payments"
	"github.com/lexorahq/lexora-backend/internal/payments/gateway"
	release "github.com/lexorahq/lexora-backend/internal/schedulers/release"
	"github.com/lexorahq/lexora-backend/internal/users"
	stripewebhook "github.com/lexorahq/lexora-backend/internal/webhooks/stripe"
	"github.com/lexorahq/lexora-backend/pkg/config"
	"github.com/lexorahq/lexora-backend/pkg/db"
	"github.com/lexorahq/lexora-backend/pkg/email"
	"github.com/lexorahq/lexora-backend/pkg/logger"
	"github.com/lexorahq/lexora-backend/pkg/metrics"
	"github.com/lexorahq/lexora-backend/pkg/migrate"
	"github.com/lexorahq/lexora-backend/pkg/redis"
	pkgstripe "github.com/lexorahq/lexora-backend/pkg/stripe"
)

const webhookIdempotencyTTL = 7 * 24 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	emailSender, err := email.NewSendgridSender(cfg.Sendgrid, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap email sender", err)
		os.Exit(1)
	}

	checkoutAdapter, err := gateway.NewCheckoutAdapter(
		gateway.NewSessionClient(stripeClient),
		cfg.Escrow.Currency,
		stripeClient.SuccessURL(),
		stripeClient.CancelURL(),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to build checkout adapter", err)
		os.Exit(1)
	}

	scheduleRepo := release.NewRepository(dbClient.DB())
	scheduler, err := release.NewAdapter(scheduleRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to build release scheduler", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledger.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to build ledger service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to build notifications service", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(dbClient.DB())

	paymentsService, err := payments.NewService(payments.ServiceParams{
		Repo:            payments.NewRepository(dbClient.DB()),
		Tx:              dbClient,
		Users:           usersRepo,
		Gateway:         checkoutAdapter,
		Scheduler:       scheduler,
		Ledger:          ledgerService,
		Notifier:        notificationsService,
		Email:           emailSender,
		Logger:          logg,
		Metrics:         metrics.NewPaymentMetrics(prometheus.DefaultRegisterer),
		HoldingPeriod:   cfg.Escrow.HoldingPeriod,
		FundsTemplateID: cfg.Sendgrid.FundsTemplateID,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build payments service", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{Payments: paymentsService})
	if err != nil {
		logg.Error(context.Background(), "failed to build webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, webhookIdempotencyTTL, "stripe-webhook")
	if err != nil {
		logg.Error(context.Background(), "failed to build webhook guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Users:         usersRepo,
			Payments:      paymentsService,
			Notifications: notificationsService,
			StripeClient:  stripeClient,
			WebhookSvc:    webhookService,
			WebhookGuard:  webhookGuard,
		}),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		<-shutdownCtx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "error draining api server", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "api server shut down gracefully")
}
