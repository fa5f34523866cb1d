package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/paylane/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Create(payment).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Payment, error) {
	return r.first(ctx, db, "id = ?", id)
}

func (r *repo) FindByExternalID(ctx context.Context, db *gorm.DB, externalID string) (*domain.Payment, error) {
	return r.first(ctx, db, "external_id = ?", externalID)
}

func (r *repo) FindByApplicationID(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Payment, error) {
	stmt := db.WithContext(ctx).Where("application_id = ?", filter.ApplicationID)
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}

	var items []domain.Payment
	if err := stmt.Order("created_at DESC, id DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindBySubscriptionID(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) ([]domain.Payment, error) {
	var items []domain.Payment
	err := db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Order("created_at DESC, id DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Update overwrites the stored row. Concurrent updates are last-write-wins.
func (r *repo) Update(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Save(payment).Error
}

func (r *repo) first(ctx context.Context, db *gorm.DB, query string, arg any) (*domain.Payment, error) {
	var item domain.Payment
	err := db.WithContext(ctx).Where(query, arg).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}
