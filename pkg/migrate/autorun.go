package migrate

import (
	"context"
	"fmt"

	"github.com/hifideliveryeats/cartsync/pkg/config"
	"github.com/hifideliveryeats/cartsync/pkg/db"
	"github.com/hifideliveryeats/cartsync/pkg/logger"
)

// MaybeRunDev applies pending migrations when running in dev with auto-migrate
// enabled, or whenever the embedded SQLite database is in use.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	if !cfg.App.IsDev() && !cfg.DB.IsSQLite() {
		return nil
	}
	return Up(ctx, logg, client)
}

// Up applies every pending migration using the client's dialect.
func Up(ctx context.Context, logg *logger.Logger, client *db.Client) error {
	if err := ValidateEmbedded(); err != nil {
		return fmt.Errorf("validating migrations: %w", err)
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	if logg != nil {
		ctx = logg.WithField(ctx, "dialect", client.Dialect())
		logg.Info(ctx, "running goose migrations")
	}

	if err := Run(ctx, sqlDB, client.Dialect(), "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "goose migrations completed")
	}
	return nil
}
