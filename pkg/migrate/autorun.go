package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/resinriver/storefront/pkg/config"
	"github.com/resinriver/storefront/pkg/db"
	"github.com/resinriver/storefront/pkg/logger"
)

// MaybeRunDev applies pending migrations when the app runs in dev mode with
// STOREFRONT_AUTO_MIGRATE enabled. Postgres runs goose; sqlite falls back to
// model auto-migration.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	if strings.EqualFold(cfg.DB.Driver, config.DriverSQLite) {
		logg.Info(ctx, "auto-migrating sqlite schema")
		return client.AutoMigrate(ctx)
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "running goose migrations (dev auto-run)")

	if err := Run(ctx, sqlDB, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "goose migrations completed")
	return nil
}
