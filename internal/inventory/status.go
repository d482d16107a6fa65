package inventory

import "github.com/carelane/medstock-backend/pkg/enums"

// MinThreshold is the smallest accepted low-stock threshold.
const MinThreshold = 1

// DeriveStatus maps a stock level onto its status. threshold must be >= MinThreshold;
// inputs are validated before they reach here.
func DeriveStatus(currentStock, threshold int) enums.StockStatus {
	switch {
	case currentStock <= 0:
		return enums.StockStatusOutOfStock
	case currentStock <= threshold:
		return enums.StockStatusLowStock
	default:
		return enums.StockStatusInStock
	}
}
