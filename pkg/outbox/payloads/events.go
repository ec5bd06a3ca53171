package payloads

import (
	"github.com/google/uuid"

	"github.com/farmdesk/farmdesk-backend/pkg/enums"
)

// OrderCreatedEvent is emitted once an order and its stock decrements commit.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID          `json:"order_id"`
	CustomerID  uuid.UUID          `json:"customer_id"`
	UserID      uuid.UUID          `json:"user_id"`
	TotalAmount string             `json:"total_amount"`
	Items       []OrderCreatedItem `json:"items"`
}

type OrderCreatedItem struct {
	ProductID       uuid.UUID `json:"product_id"`
	Quantity        int       `json:"quantity"`
	PriceAtPurchase string    `json:"price_at_purchase"`
}

// OrderStatusChangedEvent covers both lifecycle transitions and admin corrections.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID         `json:"order_id"`
	PreviousStatus enums.OrderStatus `json:"previous_status"`
	Status         enums.OrderStatus `json:"status"`
	Restocked      bool              `json:"restocked"`
	Correction     bool              `json:"correction,omitempty"`
}

// InventoryLowStockEvent fires when a stock adjustment drops a product to or
// below its inventory threshold.
type InventoryLowStockEvent struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	Threshold   int       `json:"threshold"`
	Unit        string    `json:"unit"`
}
