package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carelane/medstock-backend/api/responses"
	"github.com/carelane/medstock-backend/api/validators"
	"github.com/carelane/medstock-backend/internal/inventory"
	"github.com/carelane/medstock-backend/pkg/enums"
	pkgerrors "github.com/carelane/medstock-backend/pkg/errors"
	"github.com/carelane/medstock-backend/pkg/logger"
)

// AuditStatusHeader is set to "failed" when a mutation committed without its audit entry.
const AuditStatusHeader = "X-Audit-Status"

const maxSearchLen = 100

// ListInventory serves GET /inventory with paging and filters.
func ListInventory(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		input, err := parseListInventory(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func parseListInventory(r *http.Request) (inventory.ListItemsInput, error) {
	page, limit, err := pageParams(r)
	if err != nil {
		return inventory.ListItemsInput{}, err
	}

	filters := inventory.ListFilters{
		Search: validators.QueryString(r, "search", maxSearchLen),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseStockStatus(raw)
		if err != nil {
			return inventory.ListItemsInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").WithDetails(map[string]any{"field": "status"})
		}
		filters.Status = &status
	}
	if filters.DepartmentID, err = validators.ParseQueryUUID(r, "departmentId"); err != nil {
		return inventory.ListItemsInput{}, err
	}
	if filters.CategoryID, err = validators.ParseQueryUUID(r, "categoryId"); err != nil {
		return inventory.ListItemsInput{}, err
	}
	if filters.Expiring, err = validators.ParseQueryBool(r, "expiring"); err != nil {
		return inventory.ListItemsInput{}, err
	}

	return inventory.ListItemsInput{Page: page, Limit: limit, Filters: filters}, nil
}

// GetInventoryItem serves GET /inventory/{id}.
func GetInventoryItem(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

type createItemRequest struct {
	ItemID         string  `json:"itemId" validate:"required,notblank,max=64"`
	Name           string  `json:"name" validate:"required,notblank,max=200"`
	Description    *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	DepartmentID   string  `json:"departmentId" validate:"required,uuid"`
	CategoryID     string  `json:"categoryId" validate:"required,uuid"`
	CurrentStock   *int    `json:"currentStock,omitempty" validate:"omitempty,min=0"`
	Unit           string  `json:"unit" validate:"required,notblank,max=32"`
	Threshold      int     `json:"threshold" validate:"min=1,max=2147483647"`
	ExpirationDate *string `json:"expirationDate,omitempty"`
}

func (req createItemRequest) toInput() (inventory.CreateItemInput, error) {
	expiration, err := parseExpiration(req.ExpirationDate)
	if err != nil {
		return inventory.CreateItemInput{}, err
	}
	return inventory.CreateItemInput{
		ItemCode:       req.ItemID,
		Name:           req.Name,
		Description:    req.Description,
		DepartmentID:   uuid.MustParse(req.DepartmentID),
		CategoryID:     uuid.MustParse(req.CategoryID),
		CurrentStock:   req.CurrentStock,
		Unit:           req.Unit,
		Threshold:      req.Threshold,
		ExpirationDate: expiration,
	}, nil
}

// CreateInventoryItem serves POST /inventory.
func CreateInventoryItem(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Create(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		markAudit(w, result.AuditFailed)
		responses.WriteSuccessStatus(w, http.StatusCreated, result.Item)
	}
}

type updateItemRequest struct {
	ItemID         *string        `json:"itemId,omitempty" validate:"omitempty,max=64"`
	Name           *string        `json:"name,omitempty" validate:"omitempty,max=200"`
	Description    optionalString `json:"description"`
	DepartmentID   *string        `json:"departmentId,omitempty" validate:"omitempty,uuid"`
	CategoryID     *string        `json:"categoryId,omitempty" validate:"omitempty,uuid"`
	CurrentStock   *int           `json:"currentStock,omitempty" validate:"omitempty,min=0"`
	Unit           *string        `json:"unit,omitempty" validate:"omitempty,max=32"`
	Threshold      *int           `json:"threshold,omitempty" validate:"omitempty,min=1,max=2147483647"`
	ExpirationDate optionalString `json:"expirationDate"`
}

func (req updateItemRequest) toInput() (inventory.UpdateItemInput, error) {
	in := inventory.UpdateItemInput{
		ItemCode:     req.ItemID,
		Name:         req.Name,
		CurrentStock: req.CurrentStock,
		Unit:         req.Unit,
		Threshold:    req.Threshold,
	}
	if req.DepartmentID != nil {
		id := uuid.MustParse(*req.DepartmentID)
		in.DepartmentID = &id
	}
	if req.CategoryID != nil {
		id := uuid.MustParse(*req.CategoryID)
		in.CategoryID = &id
	}
	if req.Description.Set {
		// null and "" both clear the description.
		empty := ""
		in.Description = &empty
		if req.Description.Value != nil {
			in.Description = req.Description.Value
		}
	}
	if req.ExpirationDate.Set {
		expiration, err := parseExpiration(req.ExpirationDate.Value)
		if err != nil {
			return inventory.UpdateItemInput{}, err
		}
		if expiration == nil {
			in.ClearExpirationDate = true
		} else {
			in.ExpirationDate = expiration
		}
	}
	return in, nil
}

// UpdateInventoryItem serves PATCH /inventory/{id}.
func UpdateInventoryItem(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Update(r.Context(), actor, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		markAudit(w, result.AuditFailed)
		responses.WriteSuccess(w, result.Item)
	}
}

type adjustStockRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// AdjustInventoryStock serves POST /inventory/{id}/adjust. Positive quantities add
// stock and negative ones remove it.
func AdjustInventoryStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AdjustStock(r.Context(), actor, id, *payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		markAudit(w, result.AuditFailed)
		responses.WriteSuccess(w, result.Item)
	}
}

// DeleteInventoryItem serves DELETE /inventory/{id}; 404 when nothing was removed.
func DeleteInventoryItem(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Delete(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !result.Deleted {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found"))
			return
		}
		markAudit(w, result.AuditFailed)
		responses.WriteNoContent(w)
	}
}

func markAudit(w http.ResponseWriter, failed bool) {
	if failed {
		w.Header().Set(AuditStatusHeader, "failed")
	}
}

// parseExpiration maps nil or "" to no date.
func parseExpiration(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := inventory.ParseDate(strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid expirationDate").WithDetails(map[string]any{"expirationDate": "must be YYYY-MM-DD or RFC 3339"})
	}
	return &t, nil
}
