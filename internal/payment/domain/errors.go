package domain

import "errors"

var (
	ErrNotFound          = errors.New("payment_not_found")
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrInvalidMethod     = errors.New("invalid_payment_method")
	ErrInvalidStatus     = errors.New("invalid_payment_status")
	ErrInvalidID         = errors.New("invalid_payment_id")
)
