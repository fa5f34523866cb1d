package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	ApplicationID snowflake.ID
	Status        Status
}

type DueFilter struct {
	// ApplicationID zero means every application.
	ApplicationID snowflake.ID
	AsOf          time.Time
	// Limit zero means no limit.
	Limit int
}

type Repository interface {
	Save(ctx context.Context, db *gorm.DB, sub *Subscription) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	FindByApplicationID(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Subscription, error)
	FindByCustomerID(ctx context.Context, db *gorm.DB, appID snowflake.ID, customerID string) ([]Subscription, error)
	FindDueForRenewal(ctx context.Context, db *gorm.DB, filter DueFilter) ([]Subscription, error)
	Update(ctx context.Context, db *gorm.DB, sub *Subscription) error
}
