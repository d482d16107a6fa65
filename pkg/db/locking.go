package db

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ForUpdate adds a row lock on dialects that support one. sqlite serializes writers
// at the database level, so the clause is skipped there.
func ForUpdate(tx *gorm.DB, options string) *gorm.DB {
	if tx.Dialector == nil || tx.Dialector.Name() != "postgres" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE", Options: options})
}
