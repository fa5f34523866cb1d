package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type CreateRequest struct {
	ApplicationID snowflake.ID    `json:"-"`
	PlanName      string          `json:"plan_name"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	BillingCycle  BillingCycle    `json:"billing_cycle"`
	CustomerID    string          `json:"customer_id"`
	StartDate     *time.Time      `json:"start_date,omitempty"`
	Metadata      map[string]any  `json:"metadata,omitempty"`
}

type ListRequest struct {
	ApplicationID snowflake.ID
	Status        string
}

type Response struct {
	ID              string         `json:"id"`
	ApplicationID   string         `json:"application_id"`
	ExternalID      string         `json:"external_id,omitempty"`
	PlanName        string         `json:"plan_name"`
	Amount          json.Number    `json:"amount"`
	Currency        string         `json:"currency"`
	BillingCycle    BillingCycle   `json:"billing_cycle"`
	Status          Status         `json:"status"`
	StartDate       time.Time      `json:"start_date"`
	NextBillingDate time.Time      `json:"next_billing_date"`
	CustomerID      string         `json:"customer_id"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

type Service interface {
	// Create registers the subscription with the gateway, persists it as
	// active and announces subscription.created.
	Create(ctx context.Context, req CreateRequest) (*Subscription, error)
	// Cancel persists the cancelled subscription and announces it.
	Cancel(ctx context.Context, appID snowflake.ID, id string) (*Subscription, error)
	// Suspend persists the suspended subscription. No event is published.
	Suspend(ctx context.Context, appID snowflake.ID, id string) (*Subscription, error)
	Get(ctx context.Context, appID snowflake.ID, id string) (*Subscription, error)
	List(ctx context.Context, req ListRequest) ([]Subscription, error)
	ListByCustomer(ctx context.Context, appID snowflake.ID, customerID string) ([]Subscription, error)
	// DueForRenewal lists active subscriptions billed on or before asOf.
	// A nil asOf means now.
	DueForRenewal(ctx context.Context, appID snowflake.ID, asOf *time.Time) ([]Subscription, error)
	// RenewDue advances up to limit due subscriptions across all applications
	// and announces subscription.renewal.due for each. It returns how many
	// were renewed.
	RenewDue(ctx context.Context, asOf time.Time, limit int) (int, error)
}

func ToResponse(s Subscription) Response {
	return Response{
		ID:              s.ID.String(),
		ApplicationID:   s.ApplicationID.String(),
		ExternalID:      s.ExternalID,
		PlanName:        s.PlanName,
		Amount:          json.Number(s.Amount.Amount.StringFixed(2)),
		Currency:        s.Amount.Currency,
		BillingCycle:    s.BillingCycle,
		Status:          s.Status,
		StartDate:       s.StartDate,
		NextBillingDate: s.NextBillingDate,
		CustomerID:      s.CustomerID,
		Metadata:        s.Metadata,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}
