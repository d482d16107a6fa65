package migrate

import (
	"context"
	"fmt"

	"github.com/carelane/medstock-backend/pkg/config"
	"github.com/carelane/medstock-backend/pkg/db"
	"github.com/carelane/medstock-backend/pkg/logger"
)

// MaybeRunDev validates and applies the embedded migrations on dev startup when
// auto-migrate is on. Other environments migrate through cmd/migrate only.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !ShouldAutoRun(cfg) {
		return nil
	}
	versions, err := ValidateEmbedded()
	if err != nil {
		return err
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"migrations":  len(versions),
		"latest_file": versions[len(versions)-1],
	})
	before, err := CurrentVersion(ctx, sqlDB)
	if err != nil {
		return err
	}
	if err := Run(ctx, sqlDB, Source{}, "up"); err != nil {
		return err
	}
	after, err := CurrentVersion(ctx, sqlDB)
	if err != nil {
		return err
	}
	logg.Info(logg.WithFields(ctx, map[string]any{"from_version": before, "to_version": after}), "migrate.dev_autorun_completed")
	return nil
}

func ShouldAutoRun(cfg *config.Config) bool {
	return cfg != nil && cfg.App.IsDev() && cfg.FeatureFlags.AutoMigrate
}
