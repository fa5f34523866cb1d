package domain

import "errors"

var (
	ErrNotFound            = errors.New("subscription_not_found")
	ErrInvalidBillingCycle = errors.New("invalid_billing_cycle")
	ErrInvalidStatus       = errors.New("invalid_subscription_status")
	ErrInvalidPlanName     = errors.New("invalid_plan_name")
	ErrInvalidCustomer     = errors.New("invalid_customer")
	ErrInvalidAsOf         = errors.New("invalid_as_of")
)
