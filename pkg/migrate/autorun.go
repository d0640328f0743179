package migrate

import (
	"context"
	"fmt"
	"io"

	"github.com/angelmondragon/ecommerce-backend/pkg/config"
	"github.com/angelmondragon/ecommerce-backend/pkg/db"
	"github.com/angelmondragon/ecommerce-backend/pkg/db/models"
	"github.com/angelmondragon/ecommerce-backend/pkg/enums"
	"github.com/angelmondragon/ecommerce-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaybeRunDev brings the schema up to date at boot when the app runs in dev
// mode or the AutoMigrate flag is set. Postgres runs the goose migrations;
// sqlite has no goose history and is built from the GORM models instead.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() && !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": client.Driver()})

	if client.Driver() == db.DriverSQLite {
		logg.Info(ctx, "running gorm automigrate (sqlite)")
		if err := models.AutoMigrate(client.DB()); err != nil {
			return fmt.Errorf("automigrate sqlite: %w", err)
		}
		if err := SeedRoles(ctx, client.DB()); err != nil {
			return err
		}
		logg.Info(ctx, "sqlite schema ready")
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	migrations, err := Source(DefaultDir)
	if err != nil {
		return err
	}
	logg.Info(ctx, "running embedded goose migrations")
	if err := Run(ctx, sqlDB, Dialect(client.Driver()), migrations, "up", io.Discard); err != nil {
		return err
	}
	logg.Info(ctx, "goose migrations completed")
	return nil
}

// SeedRoles inserts the built-in roles, skipping names that already exist.
func SeedRoles(ctx context.Context, conn *gorm.DB) error {
	for _, role := range enums.BuiltinRoles() {
		row := models.Role{Name: role.String()}
		if err := conn.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
			Create(&row).Error; err != nil {
			return fmt.Errorf("seed role %s: %w", role, err)
		}
	}
	return nil
}
