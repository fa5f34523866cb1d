// Package sandbox is an in-process gateway that approves everything. It is the
// default provider for local development and tests.
package sandbox

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/paylane/internal/gateway/domain"
)

const (
	Provider = "sandbox"

	billingInterval = 30 * 24 * time.Hour
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Provider() string {
	return Provider
}

func (f *Factory) NewGateway(cfg domain.Config) (domain.Gateway, error) {
	return New(cfg.Now), nil
}

type Gateway struct {
	now func() time.Time
}

func New(now func() time.Time) *Gateway {
	if now == nil {
		now = time.Now
	}
	return &Gateway{now: now}
}

func (g *Gateway) Provider() string { return Provider }

func (g *Gateway) CreatePayment(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewError(Provider, "create_payment", err)
	}
	externalID := newExternalID("payment", g.now())
	resp := &domain.PaymentResponse{
		ExternalID: externalID,
		Status:     domain.StatusApproved,
		PaymentURL: "https://sandbox.paylane.local/pay/" + externalID,
	}
	if req.Method == "pix" {
		resp.QRCode = "00020126sandbox" + externalID
		resp.PixKey = "pix-" + externalID
	}
	return resp, nil
}

func (g *Gateway) GetPaymentStatus(ctx context.Context, externalID string) (string, error) {
	return domain.StatusApproved, nil
}

func (g *Gateway) CancelPayment(ctx context.Context, externalID string) (bool, error) {
	return true, nil
}

func (g *Gateway) CreateSubscription(ctx context.Context, req domain.SubscriptionRequest) (*domain.SubscriptionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewError(Provider, "create_subscription", err)
	}
	now := g.now()
	return &domain.SubscriptionResponse{
		ExternalID:      newExternalID("subscription", now),
		Status:          domain.StatusActive,
		NextBillingDate: now.Add(billingInterval),
	}, nil
}

func (g *Gateway) CancelSubscription(ctx context.Context, externalID string) (bool, error) {
	return true, nil
}

// newExternalID is unique even when the clock does not advance between calls.
func newExternalID(kind string, at time.Time) string {
	return fmt.Sprintf("sandbox-%s-%d-%s", kind, at.UnixNano(), uuid.NewString())
}
