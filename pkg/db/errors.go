package db

import (
	"strings"

	pkgerrors "github.com/carelane/medstock-backend/pkg/errors"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// IsUniqueViolation reports whether err is a unique constraint violation. When
// constraintName is set the violated constraint must match it. sqlite errors are
// recognised by message so repository tests see the same mapping.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if pg := pkgerrors.PostgresDetails(err); pg != nil {
		return pg.Code == pgUniqueViolation && (constraintName == "" || pg.Constraint == constraintName)
	}
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	return constraintName == "" || strings.Contains(msg, constraintName) || strings.Contains(msg, uniqueColumnHint(constraintName))
}

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if pg := pkgerrors.PostgresDetails(err); pg != nil {
		return pg.Code == pgForeignKeyViolation
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// uniqueColumnHint maps an index name such as idx_inventory_items_item_code to the
// "inventory_items.item_code" form sqlite reports.
func uniqueColumnHint(constraintName string) string {
	name := strings.TrimPrefix(constraintName, "idx_")
	for _, table := range []string{"inventory_items", "users", "departments", "categories"} {
		if rest, ok := strings.CutPrefix(name, table+"_"); ok {
			return table + "." + rest
		}
	}
	return constraintName
}
