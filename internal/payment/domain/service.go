package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type CreateRequest struct {
	ApplicationID  snowflake.ID    `json:"-"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Method         Method          `json:"method"`
	Description    string          `json:"description,omitempty"`
	CustomerID     string          `json:"customer_id,omitempty"`
	SubscriptionID string          `json:"subscription_id,omitempty"`
	Metadata       map[string]any  `json:"metadata,omitempty"`
}

type UpdateStatusRequest struct {
	ApplicationID snowflake.ID `json:"-"`
	PaymentID     string       `json:"-"`
	Status        Status       `json:"status"`
}

type ListRequest struct {
	ApplicationID snowflake.ID
	Status        string
}

type Response struct {
	ID             string         `json:"id"`
	ApplicationID  string         `json:"application_id"`
	ExternalID     string         `json:"external_id"`
	Amount         json.Number    `json:"amount"`
	Currency       string         `json:"currency"`
	Method         Method         `json:"method"`
	Status         Status         `json:"status"`
	Description    string         `json:"description,omitempty"`
	CustomerID     string         `json:"customer_id,omitempty"`
	SubscriptionID string         `json:"subscription_id,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type Service interface {
	// Create runs the gateway call, persists a pending payment and announces
	// payment.created.
	Create(ctx context.Context, req CreateRequest) (*Payment, error)
	// UpdateStatus applies approved, rejected or cancelled. Only approved and
	// rejected are announced.
	UpdateStatus(ctx context.Context, req UpdateStatusRequest) (*Payment, error)
	// SyncStatus asks the gateway for the current status and applies it.
	SyncStatus(ctx context.Context, appID snowflake.ID, id string) (*Payment, error)
	Get(ctx context.Context, appID snowflake.ID, id string) (*Payment, error)
	List(ctx context.Context, req ListRequest) ([]Payment, error)
	ListBySubscription(ctx context.Context, appID snowflake.ID, subscriptionID string) ([]Payment, error)
}

func ToResponse(p Payment) Response {
	resp := Response{
		ID:            p.ID.String(),
		ApplicationID: p.ApplicationID.String(),
		ExternalID:    p.ExternalID,
		Amount:        json.Number(p.Amount.Amount.StringFixed(2)),
		Currency:      p.Amount.Currency,
		Method:        p.Method,
		Status:        p.Status,
		Description:   p.Description,
		CustomerID:    p.CustomerID,
		Metadata:      p.Metadata,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.SubscriptionID != nil {
		resp.SubscriptionID = p.SubscriptionID.String()
	}
	return resp
}
