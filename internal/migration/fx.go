package migration

import (
	"strings"

	"github.com/smallbiznis/paylane/internal/config"
	"github.com/smallbiznis/paylane/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(Run),
)

func Run(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
	if !cfg.DBMigrate {
		log.Info("database migrations disabled")
		return nil
	}

	dbType := strings.ToLower(strings.TrimSpace(cfg.DBType))
	if dbType != db.TypePostgres {
		log.Info("auto-migrating schema", zap.String("db_type", dbType))
		return AutoMigrate(conn)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	if err := RunMigrations(sqlDB); err != nil {
		return err
	}
	log.Info("database migrations applied")
	return nil
}
