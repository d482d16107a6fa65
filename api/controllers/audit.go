package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/carelane/medstock-backend/api/responses"
	"github.com/carelane/medstock-backend/api/validators"
	"github.com/carelane/medstock-backend/internal/audit"
	"github.com/carelane/medstock-backend/pkg/enums"
	pkgerrors "github.com/carelane/medstock-backend/pkg/errors"
	"github.com/carelane/medstock-backend/pkg/logger"
	"github.com/carelane/medstock-backend/pkg/pagination"
)

// ListAuditLogs serves GET /audit-logs.
func ListAuditLogs(svc audit.Recorder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "audit service unavailable"))
			return
		}

		input, err := parseAuditQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Query(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func parseAuditQuery(r *http.Request) (audit.QueryInput, error) {
	page, limit, err := pageParams(r)
	if err != nil {
		return audit.QueryInput{}, err
	}

	var filters audit.QueryFilters
	if filters.UserID, err = validators.ParseQueryUUID(r, "userId"); err != nil {
		return audit.QueryInput{}, err
	}
	if filters.ItemID, err = validators.ParseQueryUUID(r, "itemId"); err != nil {
		return audit.QueryInput{}, err
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("activityType")); raw != "" {
		activity, err := enums.ParseActivityType(raw)
		if err != nil {
			return audit.QueryInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid activityType").WithDetails(map[string]any{"field": "activityType"})
		}
		filters.ActivityType = &activity
	}

	start, err := validators.ParseQueryDate(r, "startDate")
	if err != nil {
		return audit.QueryInput{}, err
	}
	if start != nil {
		filters.StartDate = &start.Time
	}

	end, err := validators.ParseQueryDate(r, "endDate")
	if err != nil {
		return audit.QueryInput{}, err
	}
	if end != nil {
		t := end.Time
		if end.DateOnly {
			// A bare date includes the whole day.
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		filters.EndDate = &t
	}

	return audit.QueryInput{Page: page, Limit: limit, Filters: filters}, nil
}

// RecentAuditLogs serves GET /audit-logs/recent.
func RecentAuditLogs(svc audit.Recorder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "audit service unavailable"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", audit.DefaultRecentLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Recent(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
