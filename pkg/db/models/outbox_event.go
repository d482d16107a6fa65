package models

import (
	"time"

	dbtypes "github.com/carelane/medstock-backend/pkg/db/types"
	"github.com/carelane/medstock-backend/pkg/enums"
	"github.com/google/uuid"
)

// OutboxEvent represents an append-only event emitted via the outbox pattern.
type OutboxEvent struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	EventType     enums.OutboxEventType     `gorm:"column:event_type;type:text;not null;index"`
	AggregateType enums.OutboxAggregateType `gorm:"column:aggregate_type;type:text;not null"`
	AggregateID   uuid.UUID                 `gorm:"column:aggregate_id;type:uuid;not null;index"`
	Payload       dbtypes.JSON              `gorm:"column:payload;not null"`
	CreatedAt     time.Time                 `gorm:"column:created_at"`
	PublishedAt   *time.Time                `gorm:"column:published_at"`
	AttemptCount  int                       `gorm:"column:attempt_count;not null;default:0"`
	LastError     *string                   `gorm:"column:last_error"`
}
