package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	DefaultInventoryThreshold = 10
	DefaultInventoryUnit      = "units"
)

// InventoryRecord shadows a Product with warehouse-facing fields. Quantity must
// always equal Product.StockQuantity.
type InventoryRecord struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex"`
	Quantity    int             `gorm:"column:quantity;not null;default:0"`
	Threshold   int             `gorm:"column:threshold;not null;default:10"`
	Unit        string          `gorm:"column:unit;not null;default:'units'"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Description *string         `gorm:"column:description"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (InventoryRecord) TableName() string {
	return "inventory"
}

func (i *InventoryRecord) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// IsLow reports whether the quantity sits at or below the alert threshold.
func (i InventoryRecord) IsLow() bool {
	return i.Quantity <= i.Threshold
}
