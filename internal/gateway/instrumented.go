package gateway

import (
	"context"

	"github.com/smallbiznis/paylane/internal/gateway/domain"
	"github.com/smallbiznis/paylane/internal/observability/metrics"
	"go.uber.org/zap"
)

// instrumented logs and counts provider failures around another Gateway.
type instrumented struct {
	next    domain.Gateway
	log     *zap.Logger
	metrics *metrics.Metrics
}

func newInstrumented(next domain.Gateway, log *zap.Logger, m *metrics.Metrics) domain.Gateway {
	return &instrumented{next: next, log: log, metrics: m}
}

func (g *instrumented) Provider() string { return g.next.Provider() }

func (g *instrumented) CreatePayment(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentResponse, error) {
	resp, err := g.next.CreatePayment(ctx, req)
	g.observe(ctx, "create_payment", err)
	return resp, err
}

func (g *instrumented) GetPaymentStatus(ctx context.Context, externalID string) (string, error) {
	status, err := g.next.GetPaymentStatus(ctx, externalID)
	g.observe(ctx, "get_payment_status", err)
	return status, err
}

func (g *instrumented) CancelPayment(ctx context.Context, externalID string) (bool, error) {
	ok, err := g.next.CancelPayment(ctx, externalID)
	g.observe(ctx, "cancel_payment", err)
	return ok, err
}

func (g *instrumented) CreateSubscription(ctx context.Context, req domain.SubscriptionRequest) (*domain.SubscriptionResponse, error) {
	resp, err := g.next.CreateSubscription(ctx, req)
	g.observe(ctx, "create_subscription", err)
	return resp, err
}

func (g *instrumented) CancelSubscription(ctx context.Context, externalID string) (bool, error) {
	ok, err := g.next.CancelSubscription(ctx, externalID)
	g.observe(ctx, "cancel_subscription", err)
	return ok, err
}

func (g *instrumented) observe(ctx context.Context, operation string, err error) {
	if err == nil {
		return
	}
	g.metrics.RecordGatewayError(ctx, g.next.Provider(), operation)
	g.log.Warn("gateway call failed",
		zap.String("provider", g.next.Provider()),
		zap.String("operation", operation),
		zap.Error(err),
	)
}
