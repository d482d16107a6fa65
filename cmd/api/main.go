package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/carelane/medstock-backend/api/routes"
	"github.com/carelane/medstock-backend/internal/audit"
	"github.com/carelane/medstock-backend/internal/auth"
	"github.com/carelane/medstock-backend/internal/bootstrap"
	"github.com/carelane/medstock-backend/internal/catalog"
	"github.com/carelane/medstock-backend/internal/dashboard"
	"github.com/carelane/medstock-backend/internal/inventory"
	"github.com/carelane/medstock-backend/internal/users"
	"github.com/carelane/medstock-backend/pkg/auth/session"
	"github.com/carelane/medstock-backend/pkg/config"
	"github.com/carelane/medstock-backend/pkg/db"
	"github.com/carelane/medstock-backend/pkg/instance"
	"github.com/carelane/medstock-backend/pkg/logger"
	"github.com/carelane/medstock-backend/pkg/metrics"
	"github.com/carelane/medstock-backend/pkg/migrate"
	"github.com/carelane/medstock-backend/pkg/outbox"
	"github.com/carelane/medstock-backend/pkg/redis"
	"github.com/carelane/medstock-backend/pkg/security"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
		Instance:    instance.GetID(),
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	conn := dbClient.DB()
	userRepo := users.NewRepository(conn)
	catalogRepo := catalog.NewRepository(conn)
	itemRepo := inventory.NewRepository(conn)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	recorder, err := audit.NewService(audit.NewRepository(conn), dbClient, time.Now)
	if err != nil {
		logg.Error(context.Background(), "failed to create audit recorder", err)
		os.Exit(1)
	}

	inventoryService, err := inventory.NewService(inventory.ServiceParams{
		Repo:       itemRepo,
		DB:         dbClient,
		References: catalogRepo,
		Audit:      recorder,
		Outbox:     outbox.NewService(outbox.NewRepository(conn), logg),
		Metrics:    metrics.NewInventoryMetrics(prometheus.DefaultRegisterer),
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	dashboardService, err := dashboard.NewService(itemRepo, time.Now)
	if err != nil {
		logg.Error(context.Background(), "failed to create dashboard service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	if cfg.App.IsDev() && cfg.FeatureFlags.AutoSeed {
		seeder, err := bootstrap.NewSeeder(bootstrap.Params{
			Config:    cfg.Bootstrap,
			Users:     userRepo,
			Catalog:   catalogRepo,
			Hasher:    security.NewHasher(cfg.Password),
			Inventory: inventoryService,
			Items:     itemRepo,
			Logger:    logg,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to build seeder", err)
			os.Exit(1)
		}
		if err := seeder.Run(context.Background()); err != nil {
			for _, stepErr := range multierr.Errors(err) {
				logg.Error(context.Background(), "seed.step_failed", stepErr)
			}
			os.Exit(1)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Dependencies{
			DB:        dbClient,
			Redis:     redisClient,
			Sessions:  sessionManager,
			Auth:      authService,
			Inventory: inventoryService,
			Audit:     recorder,
			Dashboard: dashboardService,
			Catalog:   catalogService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "api server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}
}
