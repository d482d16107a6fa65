package models

import (
	"time"

	"github.com/carelane/medstock-backend/pkg/enums"
	"github.com/google/uuid"
)

// InventoryItem is a stocked supply. Status is persisted for filtering but is always
// derived from CurrentStock and Threshold on write.
type InventoryItem struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	ItemCode       string            `gorm:"column:item_code;type:text;not null;uniqueIndex"`
	Name           string            `gorm:"column:name;type:text;not null"`
	Description    *string           `gorm:"column:description"`
	DepartmentID   uuid.UUID         `gorm:"column:department_id;type:uuid;not null;index"`
	CategoryID     uuid.UUID         `gorm:"column:category_id;type:uuid;not null;index"`
	CurrentStock   int               `gorm:"column:current_stock;not null;default:0"`
	Unit           string            `gorm:"column:unit;type:text;not null"`
	Threshold      int               `gorm:"column:threshold;not null"`
	Status         enums.StockStatus `gorm:"column:status;type:text;not null;index"`
	ExpirationDate *time.Time        `gorm:"column:expiration_date;type:date;index"`
	CreatedAt      time.Time         `gorm:"column:created_at;index"`
	UpdatedAt      time.Time         `gorm:"column:updated_at"`
}
