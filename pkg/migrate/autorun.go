package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/tubeshop-backend/pkg/config"
	"github.com/angelmondragon/tubeshop-backend/pkg/db"
	"github.com/angelmondragon/tubeshop-backend/pkg/logger"
)

// MaybeRun applies the embedded migrations when auto-migrate is enabled.
// sqlite databases are always migrated since they are created on the fly.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.FeatureFlags.AutoMigrate && !cfg.DB.IsSQLite() {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	if err := ValidateFS(embedded, "migrations"); err != nil {
		return fmt.Errorf("validating embedded migrations: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dialect": client.Dialect()})
	logg.Info(ctx, "running goose migrations")

	if err := RunEmbedded(ctx, sqlDB, client.Dialect(), "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "goose migrations completed")
	return nil
}
