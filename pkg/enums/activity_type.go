package enums

import "fmt"

// ActivityType is the kind of mutation an audit log entry records.
type ActivityType string

const (
	ActivityCreated      ActivityType = "created"
	ActivityUpdated      ActivityType = "updated"
	ActivityDeleted      ActivityType = "deleted"
	ActivityStockAdded   ActivityType = "stock_added"
	ActivityStockRemoved ActivityType = "stock_removed"
)

var validActivityTypes = []ActivityType{
	ActivityCreated,
	ActivityUpdated,
	ActivityDeleted,
	ActivityStockAdded,
	ActivityStockRemoved,
}

// String implements fmt.Stringer.
func (a ActivityType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActivityType.
func (a ActivityType) IsValid() bool {
	for _, candidate := range validActivityTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActivityType converts raw input into an ActivityType.
func ParseActivityType(value string) (ActivityType, error) {
	for _, candidate := range validActivityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity type %q", value)
}
