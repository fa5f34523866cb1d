package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
		"github.com/smallbiznis/paylane/internal/clock"
	"github.com/smallbiznis/paylane/internal/config"
	obsmetrics "github.com/smallbiznis/paylane/internal/observability/metrics"
	"github.com/smallbiznis/paylane/internal/ratelimit"
	subscriptiondomain "github.com/smallbiznis/paylane/internal/subscription/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type renewCall struct {
	asOf  time.Time
	limit int
}

type stubSubscriptionSvc struct {
	subscriptiondomain.Service

	mu      sync.Mutex
	calls   []renewCall
	renewed int
	err     error
}

func (s *stubSubscriptionSvc) RenewDue(_ context.Context, asOf time.Time, limit int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, renewCall{asOf: asOf, limit: limit})
	return s.renewed, s.err
}

func (s *stubSubscriptionSvc) Calls() []renewCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]renewCall(nil), s.calls...)
}

type fixture struct {
	sched   *Scheduler
	svc     *stubSubscriptionSvc
	clock   *clock.FakeClock
	locker  *ratelimit.LocalLocker
	reg     *prometheus.Registry
}

func newFixture(t *testing.T, cfg config.RenewalConfig) *fixture {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	locker := ratelimit.NewLocalLocker(clk.Now)
	svc := &stubSubscriptionSvc{}
	reg := prometheus.NewRegistry()
	m := obsmetrics.NewSchedulerMetricsWithRegistry(reg, obsmetrics.Config{ServiceName: "paylane", Environment: "test"})

	sched, err := New(Params{
		Log:             zap.NewNop(),
		GenID:           node,
		Clock:           clk,
		SubscriptionSvc: svc,
		Renewal:         config.NewStaticRenewalConfigHolder(cfg),
		Locker:          locker,
		Metrics:         m,
	})
	require.NoError(t, err)
	return &fixture{sched: sched, svc: svc, clock: clk, locker: locker, reg: reg}
}

func (f *fixture) counter(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := f.reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
	next:
		for _, metric := range family.GetMetric() {
			got := map[string]string{}
			for _, pair := range metric.GetLabel() {
				got[pair.GetName()] = pair.GetValue()
			}
			for k, v := range labels {
				if got[k] != v {
					continue next
				}
			}
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}

func TestNewRejectsMissingDependencies(t *testing.T) {
	_, err := New(Params{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRunOnceRenewsWithClockTime(t *testing.T) {
	f := newFixture(t, config.DefaultRenewalConfig())
	f.svc.renewed = 3

	n, err := f.sched.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	calls := f.svc.Calls()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].asOf.Equal(f.clock.Now()))
	assert.Equal(t, 100, calls[0].limit)

	assert.Equal(t, 1.0, f.counter(t, "paylane_scheduler_job_runs_total", map[string]string{"job": jobRenewalDue}))
	assert.Equal(t, 3.0, f.counter(t, "paylane_scheduler_batch_processed_total", map[string]string{"job": jobRenewalDue, "resource": "subscription"}))
}

func TestRunOnceReleasesLock(t *testing.T) {
	f := newFixture(t, config.DefaultRenewalConfig())

	_, err := f.sched.RunOnce(context.Background())
	require.NoError(t, err)

	_, ok, err := f.locker.TryLock(context.Background(), renewalLockKey, time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	f := newFixture(t, config.DefaultRenewalConfig())
	_, ok, err := f.locker.TryLock(context.Background(), renewalLockKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	n, err := f.sched.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, f.svc.Calls())
	assert.Equal(t, 1.0, f.counter(t, "paylane_scheduler_batch_deferred_total", map[string]string{"job": jobRenewalDue, "reason": obsmetrics.SchedulerDeferredReasonLockHeld}))

	// The lease expires on its own.
	f.clock.Advance(2 * time.Minute)
	_, err = f.sched.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, f.svc.Calls(), 1)
}

func TestRunOnceDisabled(t *testing.T) {
	cfg := config.DefaultRenewalConfig()
	cfg.Enabled = false
	f := newFixture(t, cfg)

	n, err := f.sched.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, f.svc.Calls())
	assert.Equal(t, 1.0, f.counter(t, "paylane_scheduler_batch_deferred_total", map[string]string{"job": jobRenewalDue, "reason": obsmetrics.SchedulerDeferredReasonDisabled}))
}

func TestRunOnceReportsError(t *testing.T) {
	f := newFixture(t, config.DefaultRenewalConfig())
	f.svc.err = errors.New("db down")

	_, err := f.sched.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), jobRenewalDue)
}

func TestRunOnceTreatsCancellationAsSoftTimeout(t *testing.T) {
	f := newFixture(t, config.DefaultRenewalConfig())
	f.svc.renewed = 1
	f.svc.err = context.DeadlineExceeded

	n, err := f.sched.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRunForeverStopsOnCancel(t *testing.T) {
	cfg := config.DefaultRenewalConfig()
	cfg.Interval = 10 * time.Millisecond
	f := newFixture(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.sched.RunForever(ctx)
	}()

	require.Eventually(t, func() bool { return len(f.svc.Calls()) >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
