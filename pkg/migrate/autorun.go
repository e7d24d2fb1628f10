package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/larder-backend/pkg/config"
	"github.com/angelmondragon/larder-backend/pkg/db"
	"github.com/angelmondragon/larder-backend/pkg/db/models"
	"github.com/angelmondragon/larder-backend/pkg/logger"
)

// MaybeRunDev brings the dev schema up to date when LARDER_AUTO_MIGRATE is set.
// Postgres gets the embedded goose migrations; sqlite, which cannot run them,
// is built from the models instead.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": client.Driver()})

	if client.Driver() == db.DriverSQLite {
		if err := client.DB().WithContext(ctx).AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("auto-migrating sqlite schema: %w", err)
		}
		logg.Info(ctx, "sqlite schema synced from models")
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	report, err := Run(ctx, sqlDB, EmbeddedFS(), CommandUp)
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "applied", []string(report)), "embedded migrations applied")
	return nil
}
