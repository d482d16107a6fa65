package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/carelane/medstock-backend/pkg/db/models"
	pkgerrors "github.com/carelane/medstock-backend/pkg/errors"
	"github.com/google/uuid"
)

// EntryDTO is the API shape shared by departments and categories.
type EntryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Service lists reference data.
type Service interface {
	ListDepartments(ctx context.Context) ([]EntryDTO, error)
	ListCategories(ctx context.Context) ([]EntryDTO, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListDepartments(ctx context.Context) ([]EntryDTO, error) {
	rows, err := s.repo.ListDepartments(ctx)
	if err != nil {
		return nil, pkgerrors.Storage(err, "db: list departments")
	}
	out := make([]EntryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, EntryDTO{ID: row.ID, Name: row.Name, Description: row.Description, CreatedAt: row.CreatedAt})
	}
	return out, nil
}

func (s *service) ListCategories(ctx context.Context) ([]EntryDTO, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Storage(err, "db: list categories")
	}
	out := make([]EntryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, EntryDTO{ID: row.ID, Name: row.Name, Description: row.Description, CreatedAt: row.CreatedAt})
	}
	return out, nil
}

// NewDepartment builds a department row with a fresh id.
func NewDepartment(name, description string, at time.Time) *models.Department {
	return &models.Department{
		ID:          uuid.New(),
		Name:        name,
		Description: optional(description),
		CreatedAt:   at.UTC(),
		UpdatedAt:   at.UTC(),
	}
}

// NewCategory builds a category row with a fresh id.
func NewCategory(name, description string, at time.Time) *models.Category {
	return &models.Category{
		ID:          uuid.New(),
		Name:        name,
		Description: optional(description),
		CreatedAt:   at.UTC(),
		UpdatedAt:   at.UTC(),
	}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
