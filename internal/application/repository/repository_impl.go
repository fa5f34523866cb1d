package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/paylane/internal/application/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, app *domain.Application) error {
	return db.WithContext(ctx).Create(app).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Application, error) {
	return r.first(ctx, db, "id = ?", id)
}

func (r *repo) FindByAPIKeyHash(ctx context.Context, db *gorm.DB, hash string) (*domain.Application, error) {
	return r.first(ctx, db, "api_key_hash = ?", hash)
}

func (r *repo) FindAll(ctx context.Context, db *gorm.DB) ([]domain.Application, error) {
	var apps []domain.Application
	if err := db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, app *domain.Application) error {
	return db.WithContext(ctx).Save(app).Error
}

func (r *repo) first(ctx context.Context, db *gorm.DB, query string, arg any) (*domain.Application, error) {
	var app domain.Application
	err := db.WithContext(ctx).Where(query, arg).First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &app, nil
}
