package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lexorahq/lexora-backend/internal/ledger"
	"github.com/lexorahq/lexora-backend/internal/notifications"
	"github.com/lexorahq/lexora-backend/internal/payments"
	"github.com/lexorahq/lexora-backend/internal/payments/gateway"
	release "github.com/lexorahq/lexora-backend/internal/schedulers/release"
	"github.com/lexorahq/lexora-backend/internal/users"
	"github.com/lexorahq/lexora-backend/pkg/config"
	"github.com/lexorahq/lexora-backend/pkg/db"
	"github.com/lexorahq/lexora-backend/pkg/email"
	"github.com/lexorahq/lexora-backend/pkg/logger"
	"github.com/lexorahq/lexora-backend/pkg/metrics"
	"github.com/lexorahq/lexora-backend/pkg/migrate"
	"github.com/lexorahq/lexora-backend/pkg/redis"
	pkgstripe "github.com/lexorahq/lexora-backend/pkg/stripe"
)

const lockName = "release-worker"

func main() {
	logg := logger.New(logger.Options{ServiceName: "release-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "release-worker",
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
		logg.Error(context.Background(), "failed to build checkout gateway", err)
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

	paymentsService, err := payments.NewService(payments.ServiceParams{
		Repo:            payments.NewRepository(dbClient.DB()),
		Tx:              dbClient,
		Users:           users.NewRepository(dbClient.DB()),
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

	lock, err := release.NewRedisLock(redisClient, redisClient.LockKey(lockName), cfg.Worker.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create worker lock", err)
		os.Exit(1)
	}

	worker, err := release.NewService(release.ServiceParams{
		Logger:    logg,
		Repo:      scheduleRepo,
		Engine:    paymentsService,
		Lock:      lock,
		Metrics:   metrics.NewWorkerJobMetrics(prometheus.DefaultRegisterer),
		Interval:  cfg.Worker.PollInterval,
		BatchSize: cfg.Worker.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create release worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"lock": fmt.Sprintf("%s:%s", cfg.App.Env, lockName),
	})
	logg.Info(ctx, "starting release worker")

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "release worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "release worker shutting down gracefully")
}
