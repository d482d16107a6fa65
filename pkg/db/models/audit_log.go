package models

import (
	"time"

	dbtypes "github.com/carelane/medstock-backend/pkg/db/types"
	"github.com/carelane/medstock-backend/pkg/enums"
	"github.com/google/uuid"
)

// AuditLog is an append-only record of one inventory mutation. ItemID is kept after
// the item is deleted, so it may reference a row that no longer exists.
type AuditLog struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	UserID       uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index"`
	ActivityType enums.ActivityType `gorm:"column:activity_type;type:text;not null;index"`
	ItemID       *uuid.UUID         `gorm:"column:item_id;type:uuid;index"`
	Details      string             `gorm:"column:details;type:text;not null"`
	BeforeData   dbtypes.JSON       `gorm:"column:before_data"`
	AfterData    dbtypes.JSON       `gorm:"column:after_data"`
	CreatedAt    time.Time          `gorm:"column:created_at;not null;index"`
}
