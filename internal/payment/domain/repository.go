package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	ApplicationID snowflake.ID
	Status        Status
}

type Repository interface {
	Save(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)
	FindByExternalID(ctx context.Context, db *gorm.DB, externalID string) (*Payment, error)
	FindByApplicationID(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Payment, error)
	FindBySubscriptionID(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) ([]Payment, error)
	Update(ctx context.Context, db *gorm.DB, payment *Payment) error
}
