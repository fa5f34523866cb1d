// Package domain contains the Subscription entity, its state machine and
// billing-cycle date arithmetic.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/paylane/internal/entity"
	"github.com/smallbiznis/paylane/internal/money"
	"gorm.io/datatypes"
)

// BillingCycle is the recurrence unit of a subscription.
type BillingCycle string

const (
	BillingCycleMonthly   BillingCycle = "monthly"
	BillingCycleQuarterly BillingCycle = "quarterly"
	BillingCycleYearly    BillingCycle = "yearly"
)

func (c BillingCycle) Valid() bool {
	switch c {
	case BillingCycleMonthly, BillingCycleQuarterly, BillingCycleYearly:
		return true
	}
	return false
}

// Next advances from by one cycle unit. Month overflow follows time.AddDate
// normalization, so Jan 31 + 1 month lands in early March.
func (c BillingCycle) Next(from time.Time) (time.Time, error) {
	switch c {
	case BillingCycleMonthly:
		return from.AddDate(0, 1, 0), nil
	case BillingCycleQuarterly:
		return from.AddDate(0, 3, 0), nil
	case BillingCycleYearly:
		return from.AddDate(1, 0, 0), nil
	default:
		return time.Time{}, ErrInvalidBillingCycle
	}
}

type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusSuspended Status = "suspended"
	StatusExpired   Status = "expired"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusCancelled, StatusSuspended, StatusExpired:
		return true
	}
	return false
}

// Subscription is an immutable value. Transitions return a new Subscription.
type Subscription struct {
	entity.Record
	ApplicationID   snowflake.ID      `gorm:"not null;index:idx_subscriptions_application_id"`
	ExternalID      string            `gorm:"type:varchar(255)"`
	PlanName        string            `gorm:"type:varchar(255);not null"`
	Amount          money.Money       `gorm:"embedded"`
	BillingCycle    BillingCycle      `gorm:"type:varchar(20);not null"`
	Status          Status            `gorm:"type:varchar(20);not null;index:idx_subscriptions_status"`
	StartDate       time.Time         `gorm:"not null"`
	NextBillingDate time.Time         `gorm:"not null;index:idx_subscriptions_next_billing_date"`
	CustomerID      string            `gorm:"type:varchar(255);not null;index:idx_subscriptions_customer_id"`
	Metadata        datatypes.JSONMap
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

// Cancel is unconditional.
func (s Subscription) Cancel(at time.Time) Subscription {
	return s.withStatus(StatusCancelled, at)
}

// Suspend is unconditional.
func (s Subscription) Suspend(at time.Time) Subscription {
	return s.withStatus(StatusSuspended, at)
}

// CalculateNextBillingDate returns NextBillingDate advanced by one cycle.
// The subscription itself is not changed.
func (s Subscription) CalculateNextBillingDate() (time.Time, error) {
	return s.BillingCycle.Next(s.NextBillingDate)
}

// Renew returns a copy whose NextBillingDate moved forward one cycle.
func (s Subscription) Renew(at time.Time) (Subscription, error) {
	next, err := s.CalculateNextBillingDate()
	if err != nil {
		return Subscription{}, err
	}
	out := s.withStatus(s.Status, at)
	out.NextBillingDate = next
	return out, nil
}

// IsDueForRenewal reports status == active and NextBillingDate <= asOf.
func (s Subscription) IsDueForRenewal(asOf time.Time) bool {
	return s.Status == StatusActive && !s.NextBillingDate.After(asOf)
}

func (s Subscription) withStatus(status Status, at time.Time) Subscription {
	s.Status = status
	s.Record = s.Record.Touch(at)
	if s.Metadata != nil {
		metadata := make(datatypes.JSONMap, len(s.Metadata))
		for k, v := range s.Metadata {
			metadata[k] = v
		}
		s.Metadata = metadata
	}
	return s
}
