package audit

import (
	"context"

	"github.com/carelane/medstock-backend/pkg/db/models"
	"github.com/carelane/medstock-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository persists audit logs. It only inserts and reads.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Insert(ctx context.Context, log *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// List returns one page of matching logs, newest first, plus the filtered total.
func (r *Repository) List(ctx context.Context, filters QueryFilters, params pagination.Params) ([]logRow, int64, error) {
	params = params.Normalize()

	var total int64
	if err := applyFilters(r.db.WithContext(ctx).Model(&models.AuditLog{}), filters).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	rows := make([]logRow, 0, params.Limit)
	if total == 0 {
		return rows, 0, nil
	}

	err := applyFilters(r.db.WithContext(ctx).Model(&models.AuditLog{}), filters).
		Select("audit_logs.*, users.username AS username").
		Joins("LEFT JOIN users ON users.id = audit_logs.user_id").
		Order("audit_logs.created_at DESC").
		Order("audit_logs.id DESC").
		Offset(params.Offset()).
		Limit(params.Limit).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func applyFilters(q *gorm.DB, f QueryFilters) *gorm.DB {
	if f.UserID != nil {
		q = q.Where("audit_logs.user_id = ?", *f.UserID)
	}
	if f.ItemID != nil {
		q = q.Where("audit_logs.item_id = ?", *f.ItemID)
	}
	if f.ActivityType != nil {
		q = q.Where("audit_logs.activity_type = ?", *f.ActivityType)
	}
	if f.StartDate != nil {
		q = q.Where("audit_logs.created_at >= ?", f.StartDate.UTC())
	}
	if f.EndDate != nil {
		q = q.Where("audit_logs.created_at <= ?", f.EndDate.UTC())
	}
	return q
}
