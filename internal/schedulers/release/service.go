package release

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/lexorahq/lexora-backend/pkg/logger"
	"github.com/lexorahq/lexora-backend/pkg/metrics"
)

const (
	jobName          = "release_due_payments"
	defaultInterval  = time.Minute
	defaultBatchSize = 100
)

// releaseEngine is the slice of the payment engine the worker drives.
type releaseEngine interface {
	ExecuteScheduledRelease(ctx context.Context, paymentID uuid.UUID) error
}

// ServiceParams configure the release worker.
type ServiceParams struct {
	Logger    *logger.Logger
	Repo      Repository
	Engine    releaseEngine
	Lock      Lock
	Metrics   *metrics.WorkerJobMetrics
	Interval  time.Duration
	BatchSize int
	Now       func() time.Time
}

// Service polls for due release triggers and hands each one to the payment
// engine. The engine decides whether the payment is still eligible; the
// worker's only job is to fire the trigger once and clear it.
type Service struct {
	logg      *logger.Logger
	repo      Repository
	engine    releaseEngine
	lock      Lock
	metrics   *metrics.WorkerJobMetrics
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

// NewService builds the release worker.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("schedule repository required")
	}
	if params.Engine == nil {
		return nil, fmt.Errorf("payment engine required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("worker lock required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		logg:      params.Logger,
		repo:      params.Repo,
		engine:    params.Engine,
		lock:      params.Lock,
		metrics:   params.Metrics,
		interval:  interval,
		batchSize: batchSize,
		now:       now,
	}, nil
}

// Run polls until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.runCycle(ctx); err != nil {
		s.logg.Error(ctx, "release worker cycle failed", err)
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "release worker context canceled")
			return ctx.Err()
		case <-ticker.C:
			if err := s.runCycle(ctx); err != nil {
				s.logg.Error(ctx, "release worker cycle failed", err)
			}
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	held, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !held {
		s.logg.Info(ctx, "another release worker holds the lease; skipping cycle")
		return nil
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logg.Error(ctx, "failed to release worker lock", relErr)
		}
	}()

	start := time.Now()
	err = s.processDue(ctx)
	s.observeDuration(time.Since(start))
	if err != nil {
		s.recordFailure()
		return err
	}
	s.recordSuccess()
	return nil
}

// processDue fires every due trigger. A failing payment is left scheduled so
// the next cycle retries it; failures are collected rather than aborting the
// batch.
func (s *Service) processDue(ctx context.Context) error {
	due, err := s.repo.FindDue(ctx, s.now(), s.batchSize)
	if err != nil {
		return fmt.Errorf("find due schedules: %w", err)
	}
	if len(due) == 0 {
		return nil
	}
	s.logg.Info(s.logg.WithField(ctx, "due", len(due)), "processing due release triggers")

	var errs []error
	for _, schedule := range due {
		if err := s.fire(ctx, schedule.PaymentID); err != nil {
			errs = append(errs, fmt.Errorf("payment %s: %w", schedule.PaymentID, err))
		}
	}
	return multierr.Combine(errs...)
}

func (s *Service) fire(ctx context.Context, paymentID uuid.UUID) error {
	ctx = s.logg.WithPaymentID(ctx, paymentID.String())
	if err := s.engine.ExecuteScheduledRelease(ctx, paymentID); err != nil {
		return fmt.Errorf("execute scheduled release: %w", err)
	}
	if err := s.repo.Delete(ctx, paymentID); err != nil {
		return fmt.Errorf("clear release trigger: %w", err)
	}
	s.logg.Info(ctx, "release trigger processed")
	return nil
}

func (s *Service) observeDuration(duration time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveDuration(jobName, duration)
}

func (s *Service) recordSuccess() {
	if s.metrics == nil {
		return
	}
	s.metrics.IncSuccess(jobName)
}

func (s *Service) recordFailure() {
	if s.metrics == nil {
		return
	}
	s.metrics.IncFailure(jobName)
}
