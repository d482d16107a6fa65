package audit

import (
	"time"

	dbtypes "github.com/carelane/medstock-backend/pkg/db/types"
	"github.com/carelane/medstock-backend/pkg/db/models"
	"github.com/carelane/medstock-backend/pkg/enums"
	"github.com/carelane/medstock-backend/pkg/pagination"
	"github.com/google/uuid"
)

// Entry is what callers hand to the recorder; ID and timestamp are assigned on write.
type Entry struct {
	UserID       uuid.UUID
	ActivityType enums.ActivityType
	ItemID       *uuid.UUID
	Details      string
	Before       any
	After        any
}

// LogDTO is the API representation of an audit log entry.
type LogDTO struct {
	ID           uuid.UUID          `json:"id"`
	UserID       uuid.UUID          `json:"userId"`
	Username     *string            `json:"username,omitempty"`
	ActivityType enums.ActivityType `json:"activityType"`
	ItemID       *uuid.UUID         `json:"itemId"`
	Details      string             `json:"details"`
	BeforeData   dbtypes.JSON       `json:"beforeData,omitempty"`
	AfterData    dbtypes.JSON       `json:"afterData,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
}

// LogListResult is the paginated envelope for audit queries.
type LogListResult struct {
	Logs []LogDTO `json:"logs"`
	pagination.Meta
}

// QueryFilters narrows an audit query; all set filters must match. Date bounds are
// inclusive.
type QueryFilters struct {
	UserID       *uuid.UUID
	ItemID       *uuid.UUID
	ActivityType *enums.ActivityType
	StartDate    *time.Time
	EndDate      *time.Time
}

// QueryInput is a page request plus filters.
type QueryInput struct {
	Page    int
	Limit   int
	Filters QueryFilters
}

type logRow struct {
	models.AuditLog
	Username *string `gorm:"column:username"`
}

func toDTO(row logRow) LogDTO {
	return LogDTO{
		ID:           row.ID,
		UserID:       row.UserID,
		Username:     row.Username,
		ActivityType: row.ActivityType,
		ItemID:       row.ItemID,
		Details:      row.Details,
		BeforeData:   row.BeforeData,
		AfterData:    row.AfterData,
		CreatedAt:    row.CreatedAt,
	}
}
