package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/carelane/medstock-backend/internal/inventory"
	"github.com/carelane/medstock-backend/pkg/db"
	"github.com/carelane/medstock-backend/pkg/db/models"
	"github.com/carelane/medstock-backend/pkg/enums"
	"github.com/carelane/medstock-backend/pkg/logger"
	"github.com/carelane/medstock-backend/pkg/outbox"
	"github.com/carelane/medstock-backend/pkg/outbox/payloads"
)

type expiringItemReader interface {
	ListExpiringIn(ctx context.Context, w inventory.DateWindow) ([]models.InventoryItem, error)
	ListExpiredAsOf(ctx context.Context, asOf time.Time) ([]models.InventoryItem, error)
}

type onceEmitter interface {
	EmitOnce(ctx context.Context, tx *gorm.DB, since time.Time, event outbox.DomainEvent) (bool, error)
}

type ExpirationJobParams struct {
	Logger *logger.Logger
	DB     db.TxRunner
	Items  expiringItemReader
	Outbox onceEmitter
	Now    func() time.Time
}

// NewExpirationJob builds the daily sweep that queues one critical alert per item
// when it enters the critical window and one expired alert when it expires.
func NewExpirationJob(params ExpirationJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Items == nil {
		return nil, fmt.Errorf("inventory reader required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &expirationJob{
		logg:   params.Logger,
		db:     params.DB,
		items:  params.Items,
		outbox: params.Outbox,
		now:    now,
	}, nil
}

type expirationJob struct {
	logg   *logger.Logger
	db     db.TxRunner
	items  expiringItemReader
	outbox onceEmitter
	now    func() time.Time
}

func (j *expirationJob) Name() string { return "expiration-sweep" }

func (j *expirationJob) Run(ctx context.Context) error {
	asOf := j.now().UTC()

	critical, err := j.items.ListExpiringIn(ctx, inventory.CriticalWindow(asOf))
	if err != nil {
		return fmt.Errorf("list critical items: %w", err)
	}
	expired, err := j.items.ListExpiredAsOf(ctx, asOf)
	if err != nil {
		return fmt.Errorf("list expired items: %w", err)
	}

	var errs error
	queued := 0
	for _, item := range critical {
		// The item entered the window CriticalWindowDays before it expires.
		since := inventory.DateOnly(*item.ExpirationDate).AddDate(0, 0, -inventory.CriticalWindowDays)
		ok, err := j.alert(ctx, item, enums.EventInventoryExpiringCritical, enums.ExpirationCritical, since, asOf)
		errs = multierr.Append(errs, err)
		if ok {
			queued++
		}
	}
	for _, item := range expired {
		since := inventory.DateOnly(*item.ExpirationDate)
		ok, err := j.alert(ctx, item, enums.EventInventoryExpired, enums.ExpirationExpired, since, asOf)
		errs = multierr.Append(errs, err)
		if ok {
			queued++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"critical_items": len(critical),
		"expired_items":  len(expired),
		"alerts_queued":  queued,
		"failures":       len(multierr.Errors(errs)),
	})
	j.logg.Info(logCtx, "cron.expiration_sweep_completed")
	return errs
}

func (j *expirationJob) alert(ctx context.Context, item models.InventoryItem, eventType enums.OutboxEventType, bucket enums.ExpirationBucket, since, asOf time.Time) (bool, error) {
	exp := inventory.DateOnly(*item.ExpirationDate)
	event := outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateInventoryItem,
		AggregateID:   item.ID,
		OccurredAt:    asOf,
		Data: payloads.ExpirationAlertEvent{
			ItemID:         item.ID,
			ItemCode:       item.ItemCode,
			Name:           item.Name,
			DepartmentID:   item.DepartmentID,
			ExpirationDate: exp.Format(time.DateOnly),
			DaysRemaining:  inventory.DaysUntil(exp, asOf),
			Bucket:         bucket,
			CurrentStock:   item.CurrentStock,
		},
	}
	var queued bool
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		queued, err = j.outbox.EmitOnce(ctx, tx, since, event)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("%s alert for %s: %w", bucket, item.ItemCode, err)
	}
	return queued, nil
}
