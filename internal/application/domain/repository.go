package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Save(ctx context.Context, db *gorm.DB, app *Application) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Application, error)
	FindByAPIKeyHash(ctx context.Context, db *gorm.DB, hash string) (*Application, error)
	FindAll(ctx context.Context, db *gorm.DB) ([]Application, error)
	Update(ctx context.Context, db *gorm.DB, app *Application) error
}
