package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carelane/medstock-backend/api/middleware"
	"github.com/carelane/medstock-backend/api/validators"
	"github.com/carelane/medstock-backend/internal/inventory"
	pkgerrors "github.com/carelane/medstock-backend/pkg/errors"
	"github.com/carelane/medstock-backend/pkg/pagination"
)

const maxPage = 1_000_000

func pathUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid id").WithDetails(map[string]any{"field": key})
	}
	return id, nil
}

func pageParams(r *http.Request) (int, int, error) {
	page, err := validators.ParseQueryInt(r, "page", pagination.DefaultPage, 1, maxPage)
	if err != nil {
		return 0, 0, err
	}
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}

func actorFrom(r *http.Request) (inventory.Actor, error) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return inventory.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return inventory.Actor{UserID: p.UserID, Role: p.Role}, nil
}

// optionalString tells an absent JSON field apart from an explicit null or value.
type optionalString struct {
	Set   bool
	Value *string
}

func (o *optionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}
