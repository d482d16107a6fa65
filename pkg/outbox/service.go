package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbtypes "github.com/carelane/medstock-backend/pkg/db/types"
	"github.com/carelane/medstock-backend/pkg/db/models"
	"github.com/carelane/medstock-backend/pkg/enums"
	"github.com/carelane/medstock-backend/pkg/logger"
)

var (
	ErrTxRequired        = errors.New("outbox: transaction required")
	ErrUnknownEventType  = errors.New("outbox: unknown event type")
	ErrAggregateMismatch = errors.New("outbox: aggregate type does not match event type")
)

type DomainEvent struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   uuid.UUID
	Actor         *ActorRef
	Data          any
	Version       int
	OccurredAt    time.Time
}

type Service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg}
}

// Emit queues event inside tx so it commits or rolls back with the domain write.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error {
	if tx == nil {
		return ErrTxRequired
	}
	if err := event.normalize(); err != nil {
		return err
	}
	envelope, err := NewEnvelope(event, time.Now())
	if err != nil {
		return err
	}
	payloadJSON, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       dbtypes.JSON(payloadJSON),
		CreatedAt:     envelope.OccurredAt,
	}
	if err := s.repo.Insert(tx, row); err != nil {
		return err
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"event_id":       envelope.EventID,
			"event_type":     event.EventType,
			"aggregate_id":   event.AggregateID.String(),
			"aggregate_type": event.AggregateType,
		})
		s.logg.Info(logCtx, "outbox.event_queued")
	}
	return nil
}

// EmitOnce queues event unless one with the same type was already queued for the
// aggregate at or after since.
func (s *Service) EmitOnce(ctx context.Context, tx *gorm.DB, since time.Time, event DomainEvent) (bool, error) {
	if tx == nil {
		return false, ErrTxRequired
	}
	if err := event.normalize(); err != nil {
		return false, err
	}
	exists, err := s.repo.QueuedSinceTx(tx, event.EventType, event.AggregateType, event.AggregateID, since)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := s.Emit(ctx, tx, event); err != nil {
		return false, err
	}
	return true, nil
}

// normalize fills the aggregate type from the event type and rejects combinations
// the publisher could not route.
func (e *DomainEvent) normalize() error {
	if !e.EventType.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownEventType, e.EventType)
	}
	expected := e.EventType.Aggregate()
	if e.AggregateType == "" {
		e.AggregateType = expected
	}
	if e.AggregateType != expected {
		return fmt.Errorf("%w: %s carries %s, got %s", ErrAggregateMismatch, e.EventType, expected, e.AggregateType)
	}
	return nil
}
