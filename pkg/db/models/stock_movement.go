package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmdesk/farmdesk-backend/pkg/enums"
)

// StockMovement is an append-only record of one successful stock adjustment.
type StockMovement struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	ProductID     uuid.UUID                 `gorm:"column:product_id;type:uuid;not null;index"`
	Delta         int                       `gorm:"column:delta;not null"`
	QuantityAfter int                       `gorm:"column:quantity_after;not null"`
	Reason        enums.StockMovementReason `gorm:"column:reason;type:stock_movement_reason;not null"`
	OrderID       *uuid.UUID                `gorm:"column:order_id;type:uuid"`
	ActorUserID   *uuid.UUID                `gorm:"column:actor_user_id;type:uuid"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime"`
}

func (m *StockMovement) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
