// Package domain contains the tenant application model.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/smallbiznis/paylane/internal/entity"
)

// Application is a registered tenant. It owns payments, subscriptions
// and its own event channels.
type Application struct {
	entity.Record
	Name       string `gorm:"type:varchar(255);not null"`
	APIKeyHash string `gorm:"column:api_key_hash;type:varchar(64);not null;uniqueIndex:ux_applications_api_key_hash"`
	IsActive   bool   `gorm:"column:is_active;not null"`
}

// TableName sets the database table name.
func (Application) TableName() string { return "applications" }

// Deactivate returns a copy that can no longer authenticate.
func (a Application) Deactivate(at time.Time) Application {
	a.IsActive = false
	a.Record = a.Record.Touch(at)
	return a
}

// HashAPIKey hashes a raw API key the same way at creation and lookup.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
