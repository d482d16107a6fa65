package audit

import (
	"fmt"
	"strings"
)

func CreatedDetails(name, itemCode string) string {
	return fmt.Sprintf("Created %s (%s)", name, itemCode)
}

// UpdatedDetails lists the changed fields, e.g. "Updated N95 Masks: threshold, unit".
func UpdatedDetails(name string, changed []string) string {
	if len(changed) == 0 {
		return fmt.Sprintf("Updated %s", name)
	}
	return fmt.Sprintf("Updated %s: %s", name, strings.Join(changed, ", "))
}

func DeletedDetails(name, itemCode string) string {
	return fmt.Sprintf("Deleted %s (%s)", name, itemCode)
}

// StockAdjustedDetails renders "Added 10 units of N95 Masks" or "Removed 3 units of ...".
func StockAdjustedDetails(delta int, name string) string {
	verb, qty := "Added", delta
	if delta < 0 {
		verb, qty = "Removed", -delta
	}
	unit := "units"
	if qty == 1 {
		unit = "unit"
	}
	return fmt.Sprintf("%s %d %s of %s", verb, qty, unit, name)
}
