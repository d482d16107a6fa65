package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carelane/medstock-backend/internal/audit"
	"github.com/carelane/medstock-backend/pkg/db"
	"github.com/carelane/medstock-backend/pkg/db/models"
	"github.com/carelane/medstock-backend/pkg/enums"
	pkgerrors "github.com/carelane/medstock-backend/pkg/errors"
	"github.com/carelane/medstock-backend/pkg/logger"
	"github.com/carelane/medstock-backend/pkg/metrics"
	"github.com/carelane/medstock-backend/pkg/outbox"
	"github.com/carelane/medstock-backend/pkg/outbox/payloads"
	"github.com/carelane/medstock-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// maxAdjustAttempts bounds the compare-and-swap retries of AdjustStock.
const maxAdjustAttempts = 3

var errStockConflict = errors.New("inventory: stock changed concurrently")

// Actor is the authenticated caller of a mutation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// Service manages inventory items and their audit trail.
type Service interface {
	Create(ctx context.Context, actor Actor, input CreateItemInput) (*MutationResult, error)
	Get(ctx context.Context, id uuid.UUID) (*ItemDTO, error)
	List(ctx context.Context, input ListItemsInput) (*ItemListResult, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, input UpdateItemInput) (*MutationResult, error)
	AdjustStock(ctx context.Context, actor Actor, id uuid.UUID, delta int) (*MutationResult, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) (*DeleteResult, error)
}

// ReferenceChecker confirms department and category ids exist.
type ReferenceChecker interface {
	DepartmentExists(ctx context.Context, id uuid.UUID) (bool, error)
	CategoryExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ServiceParams wires the inventory service. Metrics, Logger and Now are optional.
type ServiceParams struct {
	Repo       *Repository
	DB         db.TxRunner
	References ReferenceChecker
	Audit      audit.Recorder
	Outbox     eventEmitter
	Metrics    *metrics.InventoryMetrics
	Logger     *logger.Logger
	Now        func() time.Time
}

type service struct {
	repo       *Repository
	dbClient   db.TxRunner
	references ReferenceChecker
	audit      audit.Recorder
	outbox     eventEmitter
	metrics    *metrics.InventoryMetrics
	logg       *logger.Logger
	now        func() time.Time
}

// NewService constructs the inventory service.
func NewService(p ServiceParams) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if p.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	if p.References == nil {
		return nil, fmt.Errorf("reference checker required")
	}
	if p.Audit == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	if p.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &service{
		repo:       p.Repo,
		dbClient:   p.DB,
		references: p.References,
		audit:      p.Audit,
		outbox:     p.Outbox,
		metrics:    p.Metrics,
		logg:       p.Logger,
		now:        p.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, actor Actor, input CreateItemInput) (*MutationResult, error) {
	input = input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, &input.DepartmentID, &input.CategoryID); err != nil {
		return nil, err
	}
	if err := s.checkItemCode(ctx, input.ItemCode, nil); err != nil {
		return nil, err
	}

	stock := 0
	if input.CurrentStock != nil {
		stock = *input.CurrentStock
	}
	now := s.now().UTC()
	item := models.InventoryItem{
		ID:             uuid.New(),
		ItemCode:       input.ItemCode,
		Name:           input.Name,
		Description:    input.Description,
		DepartmentID:   input.DepartmentID,
		CategoryID:     input.CategoryID,
		CurrentStock:   stock,
		Unit:           input.Unit,
		Threshold:      input.Threshold,
		Status:         DeriveStatus(stock, input.Threshold),
		ExpirationDate: input.ExpirationDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	auditFailed := false
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, &item); err != nil {
			return mapWriteError(err, "db: create inventory item")
		}
		if item.Status.IsAlert() {
			if err := s.emitStatusChange(ctx, tx, actor, "", item, now); err != nil {
				return err
			}
		}
		auditFailed = !s.recordAudit(ctx, tx, audit.Entry{
			UserID:       actor.UserID,
			ActivityType: enums.ActivityCreated,
			ItemID:       &item.ID,
			Details:      audit.CreatedDetails(item.Name, item.ItemCode),
			After:        snapshotOf(item),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := NewItemDTO(item, now)
	return &MutationResult{Item: &dto, AuditFailed: auditFailed}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ItemDTO, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.NotFound("inventory item", id)
		}
		return nil, pkgerrors.Storage(err, "db: get inventory item")
	}
	dto := NewItemDTO(*item, s.now())
	return &dto, nil
}

func (s *service) List(ctx context.Context, input ListItemsInput) (*ItemListResult, error) {
	if input.Filters.Status != nil && !input.Filters.Status.IsValid() {
		return nil, pkgerrors.Validation("invalid status %q", *input.Filters.Status)
	}
	asOf := s.now()
	params := pagination.Params{Page: input.Page, Limit: input.Limit}.Normalize()
	rows, total, err := s.repo.List(ctx, input.Filters, params, asOf)
	if err != nil {
		return nil, pkgerrors.Storage(err, "db: list inventory items")
	}
	return &ItemListResult{
		Items: NewItemDTOs(rows, asOf),
		Meta:  pagination.NewMeta(params, total),
	}, nil
}

func (s *service) Update(ctx context.Context, actor Actor, id uuid.UUID, input UpdateItemInput) (*MutationResult, error) {
	input = input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, input.DepartmentID, input.CategoryID); err != nil {
		return nil, err
	}
	if input.ItemCode != nil {
		if err := s.checkItemCode(ctx, *input.ItemCode, &id); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	var updated models.InventoryItem
	auditFailed := false
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			if IsNotFound(err) {
				return pkgerrors.NotFound("inventory item", id)
			}
			return pkgerrors.Storage(err, "db: load inventory item")
		}

		next, changed := applyPatch(*current, input)
		next.Status = DeriveStatus(next.CurrentStock, next.Threshold)
		next.UpdatedAt = now
		if err := repo.Update(ctx, id, itemColumns(next)); err != nil {
			if IsNotFound(err) {
				return pkgerrors.NotFound("inventory item", id)
			}
			return mapWriteError(err, "db: update inventory item")
		}
		updated = next

		if next.Status != current.Status {
			if err := s.emitStatusChange(ctx, tx, actor, current.Status, next, now); err != nil {
				return err
			}
		}
		auditFailed = !s.recordAudit(ctx, tx, audit.Entry{
			UserID:       actor.UserID,
			ActivityType: enums.ActivityUpdated,
			ItemID:       &id,
			Details:      audit.UpdatedDetails(next.Name, changed),
			Before:       snapshotOf(*current),
			After:        snapshotOf(next),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := NewItemDTO(updated, now)
	return &MutationResult{Item: &dto, AuditFailed: auditFailed}, nil
}

// AdjustStock applies delta to the current stock. The write only lands if the stock
// is unchanged since it was read; a lost race is retried a bounded number of times.
func (s *service) AdjustStock(ctx context.Context, actor Actor, id uuid.UUID, delta int) (*MutationResult, error) {
	if delta == 0 {
		item, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return &MutationResult{Item: item}, nil
	}
	if delta > MaxStock || delta < -MaxStock {
		return nil, pkgerrors.Validation("quantity is out of range")
	}

	for attempt := 1; attempt <= maxAdjustAttempts; attempt++ {
		result, err := s.adjustOnce(ctx, actor, id, delta)
		if !errors.Is(err, errStockConflict) {
			return result, err
		}
		s.metrics.IncAdjustConflict()
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"item_id": id.String(),
			"attempt": attempt,
		}), "inventory.adjust_conflict")
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "stock changed concurrently, retry the adjustment")
}

func (s *service) adjustOnce(ctx context.Context, actor Actor, id uuid.UUID, delta int) (*MutationResult, error) {
	now := s.now().UTC()
	var updated models.InventoryItem
	auditFailed := false
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			if IsNotFound(err) {
				return pkgerrors.NotFound("inventory item", id)
			}
			return pkgerrors.Storage(err, "db: load inventory item")
		}

		newStock := current.CurrentStock + delta
		if newStock < 0 {
			s.metrics.IncRejectedRemoval()
			return pkgerrors.InvalidOperation("cannot reduce stock below zero").WithDetails(map[string]any{
				"currentStock": current.CurrentStock,
				"quantity":     delta,
			})
		}
		if newStock > MaxStock {
			return pkgerrors.InvalidOperation("stock would exceed the maximum level")
		}

		status := DeriveStatus(newStock, current.Threshold)
		swapped, err := repo.SwapStock(ctx, id, current.CurrentStock, newStock, status, now)
		if err != nil {
			return mapWriteError(err, "db: adjust inventory stock")
		}
		if !swapped {
			return errStockConflict
		}

		updated = *current
		updated.CurrentStock = newStock
		updated.Status = status
		updated.UpdatedAt = now

		if status != current.Status {
			if err := s.emitStatusChange(ctx, tx, actor, current.Status, updated, now); err != nil {
				return err
			}
		}
		activity := enums.ActivityStockAdded
		if delta < 0 {
			activity = enums.ActivityStockRemoved
		}
		auditFailed = !s.recordAudit(ctx, tx, audit.Entry{
			UserID:       actor.UserID,
			ActivityType: activity,
			ItemID:       &id,
			Details:      audit.StockAdjustedDetails(delta, updated.Name),
			Before:       snapshotOf(*current),
			After:        snapshotOf(updated),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveAdjustment(delta)
	dto := NewItemDTO(updated, now)
	return &MutationResult{Item: &dto, AuditFailed: auditFailed}, nil
}

func (s *service) Delete(ctx context.Context, actor Actor, id uuid.UUID) (*DeleteResult, error) {
	result := &DeleteResult{}
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			if IsNotFound(err) {
				return nil
			}
			return pkgerrors.Storage(err, "db: load inventory item")
		}
		deleted, err := repo.Delete(ctx, id)
		if err != nil {
			return pkgerrors.Storage(err, "db: delete inventory item")
		}
		if !deleted {
			return nil
		}
		result.Deleted = true
		result.AuditFailed = !s.recordAudit(ctx, tx, audit.Entry{
			UserID:       actor.UserID,
			ActivityType: enums.ActivityDeleted,
			ItemID:       &id,
			Details:      audit.DeletedDetails(current.Name, current.ItemCode),
			Before:       snapshotOf(*current),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// recordAudit writes the entry in a savepoint so a failed insert leaves the mutation
// intact. It reports whether the entry was stored.
func (s *service) recordAudit(ctx context.Context, tx *gorm.DB, entry audit.Entry) bool {
	err := tx.Transaction(func(sp *gorm.DB) error {
		return s.audit.RecordTx(ctx, sp, entry)
	})
	if err == nil {
		return true
	}
	s.metrics.IncAuditFailure(string(entry.ActivityType))
	fields := map[string]any{"activity_type": string(entry.ActivityType)}
	if entry.ItemID != nil {
		fields["item_id"] = entry.ItemID.String()
	}
	s.logg.Error(s.logg.WithFields(ctx, fields), "inventory.audit_write_failed", err)
	return false
}

func (s *service) emitStatusChange(ctx context.Context, tx *gorm.DB, actor Actor, previous enums.StockStatus, item models.InventoryItem, at time.Time) error {
	s.metrics.ObserveTransition(string(previous), string(item.Status))
	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventInventoryStockStatusChanged,
		AggregateType: enums.AggregateInventoryItem,
		AggregateID:   item.ID,
		Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: string(actor.Role)},
		OccurredAt:    at,
		Data: payloads.StockStatusChangedEvent{
			ItemID:         item.ID,
			ItemCode:       item.ItemCode,
			Name:           item.Name,
			DepartmentID:   item.DepartmentID,
			PreviousStatus: previous,
			Status:         item.Status,
			CurrentStock:   item.CurrentStock,
			Threshold:      item.Threshold,
			Unit:           item.Unit,
		},
	})
	if err != nil {
		return pkgerrors.Storage(err, "db: queue stock status event")
	}
	return nil
}

func (s *service) checkReferences(ctx context.Context, departmentID, categoryID *uuid.UUID) error {
	if departmentID != nil {
		ok, err := s.references.DepartmentExists(ctx, *departmentID)
		if err != nil {
			return pkgerrors.Storage(err, "db: check department")
		}
		if !ok {
			return pkgerrors.NotFound("department", *departmentID)
		}
	}
	if categoryID != nil {
		ok, err := s.references.CategoryExists(ctx, *categoryID)
		if err != nil {
			return pkgerrors.Storage(err, "db: check category")
		}
		if !ok {
			return pkgerrors.NotFound("category", *categoryID)
		}
	}
	return nil
}

func (s *service) checkItemCode(ctx context.Context, code string, excludeID *uuid.UUID) error {
	taken, err := s.repo.ItemCodeTaken(ctx, code, excludeID)
	if err != nil {
		return pkgerrors.Storage(err, "db: check item code")
	}
	if taken {
		return duplicateItemCode(code)
	}
	return nil
}

func duplicateItemCode(code string) error {
	return pkgerrors.Validation("itemId %q already exists", code).
		WithDetails(map[string]string{"itemId": "must be unique"})
}

func mapWriteError(err error, op string) error {
	var typed *pkgerrors.Error
	if errors.As(err, &typed) {
		return err
	}
	if db.IsUniqueViolation(err, ItemCodeConstraint) {
		return pkgerrors.Validation("itemId already exists").
			WithDetails(map[string]string{"itemId": "must be unique"})
	}
	if db.IsForeignKeyViolation(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "department or category not found")
	}
	return pkgerrors.Storage(err, op)
}

// applyPatch returns the patched item and the names of fields whose value changed.
func applyPatch(item models.InventoryItem, in UpdateItemInput) (models.InventoryItem, []string) {
	var changed []string
	mark := func(field string, differs bool) {
		if differs {
			changed = append(changed, field)
		}
	}

	if in.ItemCode != nil {
		mark("itemId", *in.ItemCode != item.ItemCode)
		item.ItemCode = *in.ItemCode
	}
	if in.Name != nil {
		mark("name", *in.Name != item.Name)
		item.Name = *in.Name
	}
	if in.Description != nil {
		var next *string
		if *in.Description != "" {
			v := *in.Description
			next = &v
		}
		mark("description", !equalStrings(item.Description, next))
		item.Description = next
	}
	if in.DepartmentID != nil {
		mark("departmentId", *in.DepartmentID != item.DepartmentID)
		item.DepartmentID = *in.DepartmentID
	}
	if in.CategoryID != nil {
		mark("categoryId", *in.CategoryID != item.CategoryID)
		item.CategoryID = *in.CategoryID
	}
	if in.CurrentStock != nil {
		mark("currentStock", *in.CurrentStock != item.CurrentStock)
		item.CurrentStock = *in.CurrentStock
	}
	if in.Unit != nil {
		mark("unit", *in.Unit != item.Unit)
		item.Unit = *in.Unit
	}
	if in.Threshold != nil {
		mark("threshold", *in.Threshold != item.Threshold)
		item.Threshold = *in.Threshold
	}
	switch {
	case in.ClearExpirationDate:
		mark("expirationDate", item.ExpirationDate != nil)
		item.ExpirationDate = nil
	case in.ExpirationDate != nil:
		mark("expirationDate", !equalDates(item.ExpirationDate, in.ExpirationDate))
		d := *in.ExpirationDate
		item.ExpirationDate = &d
	}
	return item, changed
}

func itemColumns(item models.InventoryItem) map[string]any {
	cols := map[string]any{
		"item_code":       item.ItemCode,
		"name":            item.Name,
		"description":     nil,
		"department_id":   item.DepartmentID,
		"category_id":     item.CategoryID,
		"current_stock":   item.CurrentStock,
		"unit":            item.Unit,
		"threshold":       item.Threshold,
		"status":          item.Status,
		"expiration_date": nil,
		"updated_at":      item.UpdatedAt,
	}
	if item.Description != nil {
		cols["description"] = *item.Description
	}
	if item.ExpirationDate != nil {
		cols["expiration_date"] = *item.ExpirationDate
	}
	return cols
}

func equalStrings(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalDates(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return DateOnly(*a).Equal(DateOnly(*b))
}
