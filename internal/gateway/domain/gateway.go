// Package domain defines the settlement gateway capability consumed by the
// payment and subscription services.
package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/smallbiznis/paylane/internal/money"
)

var (
	ErrGateway          = errors.New("gateway_error")
	ErrProviderNotFound = errors.New("gateway_provider_not_found")
	ErrInvalidConfig    = errors.New("gateway_invalid_config")
)

// Normalized payment statuses reported by adapters.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
	StatusRefunded  = "refunded"
	StatusActive    = "active"
)

type PaymentRequest struct {
	Amount      money.Money
	Method      string
	Description string
	CustomerID  string
	Metadata    map[string]any
}

type PaymentResponse struct {
	ExternalID string
	Status     string
	PaymentURL string
	QRCode     string
	PixKey     string
}

type SubscriptionRequest struct {
	Amount       money.Money
	CustomerID   string
	PlanName     string
	BillingCycle string
	Description  string
}

type SubscriptionResponse struct {
	ExternalID      string
	Status          string
	NextBillingDate time.Time
}

// Gateway is a settlement provider. Every call is a single attempt.
type Gateway interface {
	Provider() string
	CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error)
	GetPaymentStatus(ctx context.Context, externalID string) (string, error)
	CancelPayment(ctx context.Context, externalID string) (bool, error)
	CreateSubscription(ctx context.Context, req SubscriptionRequest) (*SubscriptionResponse, error)
	CancelSubscription(ctx context.Context, externalID string) (bool, error)
}

type Config struct {
	MercadoPagoToken   string
	MercadoPagoBaseURL string
	StripeSecretKey    string
	Timeout            time.Duration
	HTTPClient         *http.Client
	Now                func() time.Time
}

// Factory builds a Gateway for one provider.
type Factory interface {
	Provider() string
	NewGateway(cfg Config) (Gateway, error)
}

// Error reports a failed provider call. It matches ErrGateway with errors.Is.
type Error struct {
	Provider  string
	Operation string
	Err       error
}

func NewError(provider, operation string, err error) *Error {
	return &Error{Provider: provider, Operation: operation, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway %s %s: %v", e.Provider, e.Operation, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrGateway }
