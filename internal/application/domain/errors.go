package domain

import "errors"

var (
	ErrNotFound      = errors.New("application_not_found")
	ErrInactive      = errors.New("application_inactive")
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidAPIKey = errors.New("invalid_api_key")
	ErrDuplicateKey  = errors.New("duplicate_api_key")
)
