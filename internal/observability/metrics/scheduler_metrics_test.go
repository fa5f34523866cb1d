package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"
)

func TestClassifySchedulerJobReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "deadline", err: context.DeadlineExceeded, want: SchedulerJobReasonDeadlineExceeded},
		{name: "wrapped_cancel", err: fmt.Errorf("sweep: %w", context.Canceled), want: SchedulerJobReasonDeadlineExceeded},
		{name: "db_lock_timeout", err: &pgconn.PgError{Code: "55P03"}, want: SchedulerJobReasonDBLockTimeout},
		{name: "serialization_failure", err: &pgconn.PgError{Code: "40001"}, want: SchedulerJobReasonSerializationFailure},
		{name: "unique_violation", err: gorm.ErrDuplicatedKey, want: SchedulerJobReasonUniqueViolation},
		{name: "other_pg", err: &pgconn.PgError{Code: "42P01"}, want: SchedulerJobReasonDB},
		{name: "unknown", err: errors.New("boom"), want: SchedulerJobReasonUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifySchedulerJobReason(tc.err); got != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, got)
			}
		})
	}
}

func TestAddBatchProcessed(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewSchedulerMetricsWithRegistry(registry, Config{
		ServiceName: "paylane",
		Environment: "test",
	})

	metrics.AddBatchProcessed("renewal_due", "subscriptions", 3)
	metrics.AddBatchProcessed("renewal_due", "subscriptions", 0)

	got := testutil.ToFloat64(metrics.batchProcessed.WithLabelValues("renewal_due", "subscriptions"))
	if got != 3 {
		t.Fatalf("expected processed count 3, got %v", got)
	}
}

func TestIncJobErrorClassifies(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewSchedulerMetricsWithRegistry(registry, Config{})

	metrics.IncJobError("renewal_due", context.DeadlineExceeded)
	metrics.IncJobError("renewal_due", nil)

	got := testutil.ToFloat64(metrics.jobErrors.WithLabelValues("renewal_due", SchedulerJobReasonDeadlineExceeded))
	if got != 1 {
		t.Fatalf("expected 1 deadline error, got %v", got)
	}
}
