package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/paylane/internal/subscription/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, sub *domain.Subscription) error {
	return db.WithContext(ctx).Create(sub).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Subscription, error) {
	var item domain.Subscription
	err := db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repo) FindByApplicationID(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Subscription, error) {
	stmt := db.WithContext(ctx).Where("application_id = ?", filter.ApplicationID)
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}

	var items []domain.Subscription
	if err := stmt.Order("created_at DESC, id DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindByCustomerID(ctx context.Context, db *gorm.DB, appID snowflake.ID, customerID string) ([]domain.Subscription, error) {
	var items []domain.Subscription
	err := db.WithContext(ctx).
		Where("application_id = ? AND customer_id = ?", appID, customerID).
		Order("created_at DESC, id DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindDueForRenewal(ctx context.Context, db *gorm.DB, filter domain.DueFilter) ([]domain.Subscription, error) {
	stmt := db.WithContext(ctx).
		Where("status = ? AND next_billing_date <= ?", domain.StatusActive, filter.AsOf)
	if filter.ApplicationID != 0 {
		stmt = stmt.Where("application_id = ?", filter.ApplicationID)
	}
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}

	var items []domain.Subscription
	if err := stmt.Order("next_billing_date ASC, id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Update overwrites the stored row. Concurrent updates are last-write-wins.
func (r *repo) Update(ctx context.Context, db *gorm.DB, sub *domain.Subscription) error {
	return db.WithContext(ctx).Save(sub).Error
}
