package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/carelane/medstock-backend/pkg/db"
	"github.com/carelane/medstock-backend/pkg/db/models"
	"github.com/carelane/medstock-backend/pkg/enums"
)

const maxStoredErrorLen = 1024

// Backlog summarizes undelivered rows.
type Backlog struct {
	Pending       int64
	Terminal      int64
	OldestPending *time.Time
}

// Repository persists outbox_events. Writes that must commit with a domain change
// take the caller's transaction.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(tx *gorm.DB, event models.OutboxEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(&event).Error
}

// QueuedSinceTx reports whether an event of the same type was already queued for
// the aggregate at or after since.
func (r *Repository) QueuedSinceTx(tx *gorm.DB, eventType enums.OutboxEventType, aggregateType enums.OutboxAggregateType, aggregateID uuid.UUID, since time.Time) (bool, error) {
	var found []uuid.UUID
	err := tx.Model(&models.OutboxEvent{}).
		Where("event_type = ? AND aggregate_type = ? AND aggregate_id = ?", eventType, aggregateType, aggregateID).
		Where("created_at >= ?", since).
		Limit(1).
		Pluck("id", &found).Error
	return len(found) > 0, err
}

// FetchPendingTx claims the oldest deliverable rows. SKIP LOCKED lets publisher
// replicas work disjoint batches.
func (r *Repository) FetchPendingTx(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	var rows []models.OutboxEvent
	err := dbpkg.ForUpdate(tx, "SKIP LOCKED").
		Scopes(pending(maxAttempts)).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) MarkPublishedTx(tx *gorm.DB, id uuid.UUID, at time.Time) error {
	return tx.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{"published_at": at.UTC(), "last_error": nil}).Error
}

func (r *Repository) MarkFailedTx(tx *gorm.DB, id uuid.UUID, cause error) error {
	return tx.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error":    errorText(cause),
			"attempt_count": gorm.Expr("attempt_count + 1"),
		}).Error
}

// MarkTerminalTx sets attempt_count to terminalAttempts so FetchPendingTx never
// returns the row again. The row stays for inspection until retention removes it.
func (r *Repository) MarkTerminalTx(tx *gorm.DB, id uuid.UUID, cause error, terminalAttempts int) error {
	return tx.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error":    errorText(cause),
			"attempt_count": terminalAttempts,
		}).Error
}

func (r *Repository) Backlog(ctx context.Context, maxAttempts int) (Backlog, error) {
	var out Backlog
	conn := r.db.WithContext(ctx)
	if err := conn.Model(&models.OutboxEvent{}).Scopes(pending(maxAttempts)).Count(&out.Pending).Error; err != nil {
		return Backlog{}, err
	}
	if err := conn.Model(&models.OutboxEvent{}).
		Where("published_at IS NULL AND attempt_count >= ?", maxAttempts).
		Count(&out.Terminal).Error; err != nil {
		return Backlog{}, err
	}
	if out.Pending > 0 {
		var oldest models.OutboxEvent
		if err := conn.Scopes(pending(maxAttempts)).Order("created_at ASC").Take(&oldest).Error; err != nil {
			return Backlog{}, err
		}
		created := oldest.CreatedAt
		out.OldestPending = &created
	}
	return out, nil
}

// DeletePublishedBefore prunes delivered rows published before cutoff.
func (r *Repository) DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("published_at IS NOT NULL AND published_at < ?", cutoff).
		Delete(&models.OutboxEvent{})
	return res.RowsAffected, res.Error
}

func pending(maxAttempts int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("published_at IS NULL AND attempt_count < ?", maxAttempts)
	}
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	msg := err.Error()
	if len(msg) > maxStoredErrorLen {
		msg = msg[:maxStoredErrorLen]
	}
	return msg
}
