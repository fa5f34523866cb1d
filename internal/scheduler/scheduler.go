package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/paylane/internal/clock"
	"github.com/smallbiznis/paylane/internal/config"
	obsmetrics "github.com/smallbiznis/paylane/internal/observability/metrics"
	"github.com/smallbiznis/paylane/internal/ratelimit"
	subscriptiondomain "github.com/smallbiznis/paylane/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	jobRenewalDue = "renewal_due"

	renewalLockKey = "paylane:renewal:lock"
)

var ErrInvalidConfig = errors.New("invalid scheduler config")

type Params struct {
	fx.In

	Log             *zap.Logger
	GenID           *snowflake.Node
	Clock           clock.Clock
	SubscriptionSvc subscriptiondomain.Service
	Renewal         *config.RenewalConfigHolder
	Locker          ratelimit.Locker
	Metrics         *obsmetrics.SchedulerMetrics `optional:"true"`
}

type Scheduler struct {
	log             *zap.Logger
	genID           *snowflake.Node
	clock           clock.Clock
	subscriptionSvc subscriptiondomain.Service
	renewal         *config.RenewalConfigHolder
	locker          ratelimit.Locker
	metrics         *obsmetrics.SchedulerMetrics
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.Clock == nil || p.SubscriptionSvc == nil || p.Renewal == nil || p.Locker == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:             p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		genID:           p.GenID,
		clock:           p.Clock,
		subscriptionSvc: p.SubscriptionSvc,
		renewal:         p.Renewal,
		locker:          p.Locker,
		metrics:         p.Metrics,
	}, nil
}

// RunOnce performs a single renewal sweep. It returns the number of
// subscriptions advanced. A sweep is skipped when disabled or when another
// replica holds the lease.
func (s *Scheduler) RunOnce(parent context.Context) (int, error) {
	cfg := s.renewal.Get()
	if !cfg.Enabled {
		s.metrics.IncBatchDeferred(jobRenewalDue, obsmetrics.SchedulerDeferredReasonDisabled)
		return 0, nil
	}

	token, acquired, err := s.locker.TryLock(parent, renewalLockKey, cfg.LockTTL)
	if err != nil {
		s.metrics.IncJobError(jobRenewalDue, err)
		return 0, fmt.Errorf("%s: acquire lock: %w", jobRenewalDue, err)
	}
	if !acquired {
		s.metrics.IncBatchDeferred(jobRenewalDue, obsmetrics.SchedulerDeferredReasonLockHeld)
		s.log.Debug("renewal sweep skipped, lock held elsewhere")
		return 0, nil
	}
	defer func() {
		// The parent may already be cancelled; the lease still has to go.
		if err := s.locker.Release(context.Background(), renewalLockKey, token); err != nil {
			s.log.Warn("renewal lock release failed", zap.Error(err))
		}
	}()

	var renewed int
	err = s.runJob(parent, jobRenewalDue, cfg.BatchSize, cfg.LockTTL, func(ctx context.Context, run *jobRun) error {
		n, err := s.subscriptionSvc.RenewDue(ctx, s.clock.Now(), cfg.BatchSize)
		renewed = n
		run.AddProcessed(n)
		s.metrics.AddBatchProcessed(jobRenewalDue, "subscription", n)
		return err
	})
	return renewed, err
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	batchSize int,
	timeout time.Duration,
	fn func(ctx context.Context, run *jobRun) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	run := s.newJobRun(name, batchSize)
	s.logJobStart(run)
	s.metrics.IncJobRun(name)

	err := fn(ctx, run)
	s.metrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if err != nil {
		run.IncError()
	}
	s.logJobFinish(run)
	if err == nil {
		return nil
	}

	s.metrics.IncJobError(name, err)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		// soft timeout, the rest is picked up next tick
		s.log.Warn("job timed out",
			zap.String("job", name),
			zap.String("run_id", run.runID),
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}

// RunForever sweeps until ctx is cancelled. The interval is re-read after
// every run so config reloads take effect without a restart.
func (s *Scheduler) RunForever(ctx context.Context) {
	interval := s.renewal.Get().Interval
	timer := time.NewTimer(interval)
	defer timer.Stop()
	nextRun := s.clock.Now().Add(interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if lag := s.clock.Now().Sub(nextRun); lag > 0 {
			s.metrics.ObserveRunLoopLag(lag)
		}
		if _, err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		interval = s.renewal.Get().Interval
		nextRun = s.clock.Now().Add(interval)
		timer.Reset(interval)
	}
}
