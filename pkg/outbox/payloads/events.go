package payloads

import (
	"github.com/carelane/medstock-backend/pkg/enums"
	"github.com/google/uuid"
)

// StockStatusChangedEvent is emitted when a mutation moves an item between stock statuses.
type StockStatusChangedEvent struct {
	ItemID         uuid.UUID         `json:"itemId"`
	ItemCode       string            `json:"itemCode"`
	Name           string            `json:"name"`
	DepartmentID   uuid.UUID         `json:"departmentId"`
	PreviousStatus enums.StockStatus `json:"previousStatus,omitempty"`
	Status         enums.StockStatus `json:"status"`
	CurrentStock   int               `json:"currentStock"`
	Threshold      int               `json:"threshold"`
	Unit           string            `json:"unit"`
}

// ExpirationAlertEvent is emitted by the expiration sweep for critical and expired items.
type ExpirationAlertEvent struct {
	ItemID         uuid.UUID              `json:"itemId"`
	ItemCode       string                 `json:"itemCode"`
	Name           string                 `json:"name"`
	DepartmentID   uuid.UUID              `json:"departmentId"`
	ExpirationDate string                 `json:"expirationDate"`
	DaysRemaining  int                    `json:"daysRemaining"`
	Bucket         enums.ExpirationBucket `json:"bucket"`
	CurrentStock   int                    `json:"currentStock"`
}
