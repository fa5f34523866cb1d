// Package domain contains the Payment entity and its state machine.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/paylane/internal/entity"
	"github.com/smallbiznis/paylane/internal/money"
	"gorm.io/datatypes"
)

type Method string

const (
	MethodPix          Method = "pix"
	MethodCreditCard   Method = "credit_card"
	MethodDebitCard    Method = "debit_card"
	MethodBankTransfer Method = "bank_transfer"
)

func (m Method) Valid() bool {
	switch m {
	case MethodPix, MethodCreditCard, MethodDebitCard, MethodBankTransfer:
		return true
	}
	return false
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// Payment is an immutable value. Transitions return a new Payment and leave
// the receiver untouched.
type Payment struct {
	entity.Record
	ApplicationID  snowflake.ID      `gorm:"not null;index:idx_payments_application_id"`
	ExternalID     string            `gorm:"type:varchar(255);not null;index:idx_payments_external_id"`
	Amount         money.Money       `gorm:"embedded"`
	Method         Method            `gorm:"type:varchar(20);not null"`
	Status         Status            `gorm:"type:varchar(20);not null;index:idx_payments_status"`
	Description    string            `gorm:"type:text"`
	CustomerID     string            `gorm:"type:varchar(255)"`
	Metadata       datatypes.JSONMap
	SubscriptionID *snowflake.ID     `gorm:"index:idx_payments_subscription_id"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

// Approve has no status guard.
func (p Payment) Approve(at time.Time) Payment {
	return p.withStatus(StatusApproved, at)
}

// Reject has no status guard.
func (p Payment) Reject(at time.Time) Payment {
	return p.withStatus(StatusRejected, at)
}

// Cancel is only allowed while pending.
func (p Payment) Cancel(at time.Time) (Payment, error) {
	if p.Status != StatusPending {
		return Payment{}, ErrInvalidTransition
	}
	return p.withStatus(StatusCancelled, at), nil
}

func (p Payment) withStatus(status Status, at time.Time) Payment {
	p.Status = status
	p.Record = p.Record.Touch(at)
	p.Metadata = cloneMetadata(p.Metadata)
	if p.SubscriptionID != nil {
		id := *p.SubscriptionID
		p.SubscriptionID = &id
	}
	return p
}

func cloneMetadata(in datatypes.JSONMap) datatypes.JSONMap {
	if in == nil {
		return nil
	}
	out := make(datatypes.JSONMap, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
