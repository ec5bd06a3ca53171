package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmdesk/farmdesk-backend/internal/customers"
	"github.com/farmdesk/farmdesk-backend/internal/stock"
	"github.com/farmdesk/farmdesk-backend/pkg/db/models"
	"github.com/farmdesk/farmdesk-backend/pkg/enums"
	"github.com/farmdesk/farmdesk-backend/pkg/outbox"
	"github.com/farmdesk/farmdesk-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their line items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindProducts(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateLineItem(ctx context.Context, item *models.OrderLineItem) error
	LockOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
	UpdateColumns(ctx context.Context, order *models.Order, columns ...string) error
	DeleteLineItems(ctx context.Context, orderID uuid.UUID) error
	DeleteOrder(ctx context.Context, orderID uuid.UUID) (int64, error)
	HeldStock(ctx context.Context, orderID uuid.UUID) (map[uuid.UUID]int, error)
	ListOrders(ctx context.Context, filter ListFilter) ([]OrderView, error)
	FindOrderView(ctx context.Context, orderID uuid.UUID) (*OrderView, error)
	ListItemViews(ctx context.Context, orderIDs []uuid.UUID) ([]ItemView, error)
	CustomerIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	ListRecent(ctx context.Context, customerID uuid.UUID, limit int) ([]RecentOrder, error)
}

// Service is the order workflow exposed to the HTTP layer.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlaceOrderResult, error)
	Transition(ctx context.Context, input TransitionInput) (*models.Order, error)
	Correct(ctx context.Context, cmd CorrectionCommand) (*models.Order, error)
	Delete(ctx context.Context, orderID uuid.UUID) error
	List(ctx context.Context, input ListInput) (*pagination.Page[OrderView], error)
	Detail(ctx context.Context, input DetailInput) (*OrderView, error)
	Recent(ctx context.Context, userID uuid.UUID) ([]RecentOrder, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type profileGate interface {
	RequireDeliverableProfile(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*customers.DeliverableProfile, error)
}

type recorder interface {
	ObservePlacement(outcome, code string, duration time.Duration)
	IncTransition(from, to string)
}

var _ stock.Adjuster = (*stock.Ledger)(nil)
