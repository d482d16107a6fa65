package inventory

import (
	"strings"
	"time"

	"github.com/carelane/medstock-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListFilters narrows an item listing. Set filters are AND-composed.
type ListFilters struct {
	Status       *enums.StockStatus
	DepartmentID *uuid.UUID
	CategoryID   *uuid.UUID
	// Search is a case-insensitive substring match on name or item code.
	Search string
	// Expiring keeps items in the soon or critical buckets.
	Expiring bool
}

// ListItemsInput is a page request plus filters.
type ListItemsInput struct {
	Page    int
	Limit   int
	Filters ListFilters
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func applyListFilters(q *gorm.DB, f ListFilters, asOf time.Time) *gorm.DB {
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.DepartmentID != nil {
		q = q.Where("department_id = ?", *f.DepartmentID)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
		q = q.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(item_code) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if f.Expiring {
		q = whereExpiresIn(q, ExpiringWindow(asOf))
	}
	return q
}

func whereExpiresIn(q *gorm.DB, w DateWindow) *gorm.DB {
	return q.Where("expiration_date IS NOT NULL AND expiration_date > ? AND expiration_date <= ?", w.After, w.Until)
}
