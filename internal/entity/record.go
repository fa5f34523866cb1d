// Package entity holds the identity and timestamp fields shared by persisted entities.
package entity

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Record is embedded by every entity. Timestamps are owned by the domain,
// so gorm's automatic time tracking is switched off.
type Record struct {
	ID        snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time    `gorm:"not null;autoCreateTime:false"`
	UpdatedAt time.Time    `gorm:"not null;autoUpdateTime:false"`
}

func NewRecord(id snowflake.ID, at time.Time) Record {
	at = at.UTC()
	return Record{ID: id, CreatedAt: at, UpdatedAt: at}
}

// Touch returns a copy stamped with a new update time.
func (r Record) Touch(at time.Time) Record {
	r.UpdatedAt = at.UTC()
	return r
}
