package inventory

import (
	"time"

	"github.com/carelane/medstock-backend/pkg/db/models"
	"github.com/carelane/medstock-backend/pkg/enums"
	"github.com/carelane/medstock-backend/pkg/pagination"
	"github.com/google/uuid"
)

// ItemDTO is the API representation of an inventory item.
type ItemDTO struct {
	ID               uuid.UUID              `json:"id"`
	ItemID           string                 `json:"itemId"`
	Name             string                 `json:"name"`
	Description      *string                `json:"description"`
	DepartmentID     uuid.UUID              `json:"departmentId"`
	CategoryID       uuid.UUID              `json:"categoryId"`
	CurrentStock     int                    `json:"currentStock"`
	Unit             string                 `json:"unit"`
	Threshold        int                    `json:"threshold"`
	Status           enums.StockStatus      `json:"status"`
	ExpirationDate   *string                `json:"expirationDate"`
	ExpirationStatus enums.ExpirationBucket `json:"expirationStatus"`
	CreatedAt        time.Time              `json:"createdAt"`
	UpdatedAt        time.Time              `json:"updatedAt"`
}

// ItemListResult is the paginated envelope for item lists.
type ItemListResult struct {
	Items []ItemDTO `json:"items"`
	pagination.Meta
}

// MutationResult carries the item after a write. AuditFailed is set when the write
// committed but its audit entry could not be stored.
type MutationResult struct {
	Item        *ItemDTO
	AuditFailed bool
}

// DeleteResult reports whether a row was removed.
type DeleteResult struct {
	Deleted     bool
	AuditFailed bool
}

// NewItemDTO maps a row to its DTO, classifying expiration against asOf.
func NewItemDTO(m models.InventoryItem, asOf time.Time) ItemDTO {
	return ItemDTO{
		ID:               m.ID,
		ItemID:           m.ItemCode,
		Name:             m.Name,
		Description:      m.Description,
		DepartmentID:     m.DepartmentID,
		CategoryID:       m.CategoryID,
		CurrentStock:     m.CurrentStock,
		Unit:             m.Unit,
		Threshold:        m.Threshold,
		Status:           m.Status,
		ExpirationDate:   FormatDate(m.ExpirationDate),
		ExpirationStatus: ClassifyExpiration(m.ExpirationDate, asOf),
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// NewItemDTOs maps a slice of rows.
func NewItemDTOs(rows []models.InventoryItem, asOf time.Time) []ItemDTO {
	out := make([]ItemDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, NewItemDTO(row, asOf))
	}
	return out
}

// snapshot is the audit before/after payload for an item.
type snapshot struct {
	ItemID         string            `json:"itemId"`
	Name           string            `json:"name"`
	Description    *string           `json:"description,omitempty"`
	DepartmentID   uuid.UUID         `json:"departmentId"`
	CategoryID     uuid.UUID         `json:"categoryId"`
	CurrentStock   int               `json:"currentStock"`
	Unit           string            `json:"unit"`
	Threshold      int               `json:"threshold"`
	Status         enums.StockStatus `json:"status"`
	ExpirationDate *string           `json:"expirationDate,omitempty"`
}

func snapshotOf(m models.InventoryItem) snapshot {
	return snapshot{
		ItemID:         m.ItemCode,
		Name:           m.Name,
		Description:    m.Description,
		DepartmentID:   m.DepartmentID,
		CategoryID:     m.CategoryID,
		CurrentStock:   m.CurrentStock,
		Unit:           m.Unit,
		Threshold:      m.Threshold,
		Status:         m.Status,
		ExpirationDate: FormatDate(m.ExpirationDate),
	}
}
