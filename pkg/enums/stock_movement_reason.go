package enums

import "fmt"

// StockMovementReason explains why a product's stock changed.
type StockMovementReason string

const (
	StockMovementOrderPlaced      StockMovementReason = "order_placed"
	StockMovementOrderCancelled   StockMovementReason = "order_cancelled"
	StockMovementManualAdjustment StockMovementReason = "manual_adjustment"
)

var validStockMovementReasons = []StockMovementReason{
	StockMovementOrderPlaced,
	StockMovementOrderCancelled,
	StockMovementManualAdjustment,
}

func (r StockMovementReason) String() string {
	return string(r)
}

func (r StockMovementReason) IsValid() bool {
	for _, candidate := range validStockMovementReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

func ParseStockMovementReason(value string) (StockMovementReason, error) {
	for _, candidate := range validStockMovementReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock movement reason %q", value)
}
