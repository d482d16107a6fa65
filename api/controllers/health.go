package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/carelane/medstock-backend/api/responses"
	"github.com/carelane/medstock-backend/pkg/config"
	pkgerrors "github.com/carelane/medstock-backend/pkg/errors"
	"github.com/carelane/medstock-backend/pkg/logger"
)

const (
	EnvHeader         = "X-MedStock-Env"
	readyCheckTimeout = 2 * time.Second
)

// ReadinessCheck is one dependency checked by /health/ready.
type ReadinessCheck struct {
	Name string
	Ping func(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(EnvHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when every check passes.
func HealthReady(cfg *config.Config, logg *logger.Logger, checks ...ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(EnvHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		failed := map[string]string{}
		for _, check := range checks {
			if check.Ping == nil {
				continue
			}
			if err := check.Ping(ctx); err != nil {
				failed[check.Name] = "unavailable"
				if logg != nil {
					logg.Error(logg.WithField(r.Context(), "dependency", check.Name), "health.dependency_down", err)
				}
			}
		}
		if len(failed) > 0 {
			responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeDependency, "not ready").WithDetails(failed))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
