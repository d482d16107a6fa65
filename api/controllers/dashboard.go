package controllers

import (
	"context"
	"net/http"

	"github.com/carelane/medstock-backend/api/responses"
	"github.com/carelane/medstock-backend/internal/dashboard"
	"github.com/carelane/medstock-backend/internal/inventory"
	pkgerrors "github.com/carelane/medstock-backend/pkg/errors"
	"github.com/carelane/medstock-backend/pkg/logger"
)

func DashboardStats(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable"))
			return
		}
		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

func DashboardLowStock(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return pagedItems(logg, svc == nil, func(ctx context.Context, page, limit int) (*inventory.ItemListResult, error) {
		return svc.LowStockItems(ctx, page, limit)
	})
}

func DashboardOutOfStock(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return pagedItems(logg, svc == nil, func(ctx context.Context, page, limit int) (*inventory.ItemListResult, error) {
		return svc.OutOfStockItems(ctx, page, limit)
	})
}

func DashboardExpiring(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return expiringItems(logg, svc == nil, func(ctx context.Context) (*dashboard.ExpiringList, error) {
		return svc.SoonToExpireItems(ctx)
	})
}

func DashboardCriticalExpiration(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return expiringItems(logg, svc == nil, func(ctx context.Context) (*dashboard.ExpiringList, error) {
		return svc.CriticalExpirationItems(ctx)
	})
}

func pagedItems(logg *logger.Logger, missing bool, fetch func(context.Context, int, int) (*inventory.ItemListResult, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if missing {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable"))
			return
		}
		page, limit, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := fetch(r.Context(), page, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func expiringItems(logg *logger.Logger, missing bool, fetch func(context.Context) (*dashboard.ExpiringList, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if missing {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable"))
			return
		}
		result, err := fetch(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
