package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/carelane/medstock-backend/internal/audit"
	"github.com/carelane/medstock-backend/internal/bootstrap"
	"github.com/carelane/medstock-backend/internal/catalog"
	"github.com/carelane/medstock-backend/internal/inventory"
	"github.com/carelane/medstock-backend/internal/users"
	"github.com/carelane/medstock-backend/pkg/config"
	"github.com/carelane/medstock-backend/pkg/db"
	"github.com/carelane/medstock-backend/pkg/logger"
	"github.com/carelane/medstock-backend/pkg/outbox"
	"github.com/carelane/medstock-backend/pkg/security"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithField(context.Background(), "env", cfg.App.Env)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	seeder, err := newSeeder(cfg, dbClient, logg)
	if err != nil {
		logg.Error(ctx, "failed to build seeder", err)
		os.Exit(1)
	}
	if err := seeder.Run(ctx); err != nil {
		for _, stepErr := range multierr.Errors(err) {
			logg.Error(ctx, "seed.step_failed", stepErr)
		}
		os.Exit(1)
	}
	logg.Info(ctx, "seed.completed")
}

func newSeeder(cfg *config.Config, dbClient *db.Client, logg *logger.Logger) (*bootstrap.Seeder, error) {
	conn := dbClient.DB()
	catalogRepo := catalog.NewRepository(conn)
	itemRepo := inventory.NewRepository(conn)

	recorder, err := audit.NewService(audit.NewRepository(conn), dbClient, time.Now)
	if err != nil {
		return nil, err
	}
	inventorySvc, err := inventory.NewService(inventory.ServiceParams{
		Repo:       itemRepo,
		DB:         dbClient,
		References: catalogRepo,
		Audit:      recorder,
		Outbox:     outbox.NewService(outbox.NewRepository(conn), logg),
		Logger:     logg,
	})
	if err != nil {
		return nil, err
	}
	return bootstrap.NewSeeder(bootstrap.Params{
		Config:    cfg.Bootstrap,
		Users:     users.NewRepository(conn),
		Catalog:   catalogRepo,
		Hasher:    security.NewHasher(cfg.Password),
		Inventory: inventorySvc,
		Items:     itemRepo,
		Logger:    logg,
	})
}
