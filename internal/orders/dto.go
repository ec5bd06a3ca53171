package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmdesk/farmdesk-backend/internal/access"
	"github.com/farmdesk/farmdesk-backend/pkg/db/models"
	"github.com/farmdesk/farmdesk-backend/pkg/enums"
	"github.com/farmdesk/farmdesk-backend/pkg/pagination"
)

// ItemRequest is one requested product and quantity.
type ItemRequest struct {
	ProductID uuid.UUID
	Quantity  int
}

// Assembly is the priced, stock-checked form of an order request.
type Assembly struct {
	LineItems   []models.OrderLineItem
	TotalAmount decimal.Decimal
}

type PlaceOrderInput struct {
	UserID    uuid.UUID
	ActorRole enums.UserRole
	Items     []ItemRequest
}

type PlaceOrderResult struct {
	OrderID     uuid.UUID
	TotalAmount decimal.Decimal
}

type TransitionInput struct {
	OrderID   uuid.UUID
	Status    enums.OrderStatus
	ActorID   uuid.UUID
	ActorRole enums.UserRole
}

// CorrectionCommand is the staff edit path. Nil fields are left unchanged and
// Status is written without lifecycle checks or stock effects.
type CorrectionCommand struct {
	OrderID         uuid.UUID
	Status          *enums.OrderStatus
	DeliveryAddress *string
	TotalAmount     *decimal.Decimal
	ActorID         uuid.UUID
	ActorRole       enums.UserRole
}

type ListInput struct {
	Scope  access.ReadScope
	Params pagination.Params
}

type DetailInput struct {
	OrderID uuid.UUID
	Scope   access.ReadScope
}

// ListFilter is the repository form of ListInput.
type ListFilter struct {
	OwnerUserID *uuid.UUID
	Cursor      *pagination.Cursor
	Limit       int
}

// OrderView is an order joined with its customer and line items.
type OrderView struct {
	ID              uuid.UUID         `json:"id" gorm:"column:id"`
	CustomerID      uuid.UUID         `json:"customer_id" gorm:"column:customer_id"`
	CustomerUserID  uuid.UUID         `json:"-" gorm:"column:customer_user_id"`
	CustomerName    string            `json:"customer_name" gorm:"column:customer_name"`
	CustomerPhone   string            `json:"customer_phone" gorm:"column:customer_phone"`
	CustomerEmail   *string           `json:"customer_email,omitempty" gorm:"column:customer_email"`
	TotalAmount     decimal.Decimal   `json:"total_amount" gorm:"column:total_amount"`
	Status          enums.OrderStatus `json:"status" gorm:"column:status"`
	DeliveryAddress string            `json:"delivery_address" gorm:"column:delivery_address"`
	CreatedAt       time.Time         `json:"created_at" gorm:"column:created_at"`
	UpdatedAt       time.Time         `json:"updated_at" gorm:"column:updated_at"`
	Items           []ItemView        `json:"items" gorm:"-"`
}

type ItemView struct {
	ID              uuid.UUID       `json:"id" gorm:"column:id"`
	OrderID         uuid.UUID       `json:"-" gorm:"column:order_id"`
	ProductID       uuid.UUID       `json:"product_id" gorm:"column:product_id"`
	ProductName     string          `json:"product_name" gorm:"column:product_name"`
	Quantity        int             `json:"quantity" gorm:"column:quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase" gorm:"column:price_at_purchase"`
}

// RecentOrder is the dashboard summary of an order.
type RecentOrder struct {
	ID          uuid.UUID         `json:"id" gorm:"column:id"`
	TotalAmount decimal.Decimal   `json:"total_amount" gorm:"column:total_amount"`
	Status      enums.OrderStatus `json:"status" gorm:"column:status"`
	CreatedAt   time.Time         `json:"created_at" gorm:"column:created_at"`
	ItemCount   int               `json:"item_count" gorm:"column:item_count"`
}
