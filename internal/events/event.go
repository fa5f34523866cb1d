// Package events announces payment and subscription milestones to tenants
// over per-application publish/subscribe channels.
package events

import "time"

type Family string

const (
	FamilyPayments      Family = "payments"
	FamilySubscriptions Family = "subscriptions"
)

const (
	PaymentCreated  = "payment.created"
	PaymentApproved = "payment.approved"
	PaymentRejected = "payment.rejected"

	SubscriptionCreated    = "subscription.created"
	SubscriptionCancelled  = "subscription.cancelled"
	SubscriptionRenewalDue = "subscription.renewal.due"
)

// timestampLayout is ISO-8601 in UTC with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Channel returns "{family}.{applicationID}".
func Channel(family Family, applicationID string) string {
	return string(family) + "." + applicationID
}

// Event is a payload that can be stamped at publish time.
type Event interface {
	EventType() string
	ApplicationID() string
	EntityID() string
	stamp(at time.Time)
}

type PaymentEvent struct {
	Type           string  `json:"type"`
	PaymentID      string  `json:"paymentId"`
	AppID          string  `json:"applicationId"`
	CustomerID     string  `json:"customerId"`
	Amount         float64 `json:"amount"`
	SubscriptionID string  `json:"subscriptionId,omitempty"`
	Timestamp      string  `json:"timestamp"`
}

func (e *PaymentEvent) EventType() string     { return e.Type }
func (e *PaymentEvent) ApplicationID() string { return e.AppID }
func (e *PaymentEvent) EntityID() string      { return e.PaymentID }
func (e *PaymentEvent) stamp(at time.Time)    { e.Timestamp = at.UTC().Format(timestampLayout) }

type SubscriptionEvent struct {
	Type           string  `json:"type"`
	SubscriptionID string  `json:"subscriptionId"`
	AppID          string  `json:"applicationId"`
	CustomerID     string  `json:"customerId"`
	Amount         float64 `json:"amount"`
	Timestamp      string  `json:"timestamp"`
}

func (e *SubscriptionEvent) EventType() string     { return e.Type }
func (e *SubscriptionEvent) ApplicationID() string { return e.AppID }
func (e *SubscriptionEvent) EntityID() string      { return e.SubscriptionID }
func (e *SubscriptionEvent) stamp(at time.Time)    { e.Timestamp = at.UTC().Format(timestampLayout) }
