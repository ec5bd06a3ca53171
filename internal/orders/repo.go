package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/farmdesk/farmdesk-backend/pkg/db/models"
	"github.com/farmdesk/farmdesk-backend/pkg/enums"
)

const orderViewColumns = `o.id, o.customer_id, o.total_amount, o.status, o.delivery_address, o.created_at, o.updated_at,
	c.user_id AS customer_user_id, c.full_name AS customer_name, c.phone_number AS customer_phone, u.email AS customer_email`

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindProducts(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error
	return products, err
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("LineItems").Create(order).Error
}

func (r *repository) CreateLineItem(ctx context.Context, item *models.OrderLineItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// LockOrder loads the order and its line items, holding the order row lock
// until the transaction ends.
func (r *repository) LockOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Where("order_id = ?", order.ID).Find(&order.LineItems).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status", status).Error
}

// UpdateColumns persists the named columns of order; updated_at is always
// written.
func (r *repository) UpdateColumns(ctx context.Context, order *models.Order, columns ...string) error {
	selected := append(append([]string{}, columns...), "updated_at")
	return r.db.WithContext(ctx).
		Model(order).
		Select(selected).
		Updates(order).Error
}

func (r *repository) DeleteLineItems(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("order_id = ?", orderID).Delete(&models.OrderLineItem{}).Error
}

func (r *repository) DeleteOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", orderID).Delete(&models.Order{})
	return res.RowsAffected, res.Error
}

// HeldStock returns, per product, the units the order still holds: what
// placement took minus what cancellation already gave back.
func (r *repository) HeldStock(ctx context.Context, orderID uuid.UUID) (map[uuid.UUID]int, error) {
	var rows []struct {
		ProductID uuid.UUID
		Held      int
	}
	err := r.db.WithContext(ctx).
		Model(&models.StockMovement{}).
		Select("product_id, -SUM(delta) AS held").
		Where("order_id = ? AND reason IN ?", orderID, []enums.StockMovementReason{
			enums.StockMovementOrderPlaced,
			enums.StockMovementOrderCancelled,
		}).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	held := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		held[row.ProductID] = row.Held
	}
	return held, nil
}

func (r *repository) baseViewQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("orders AS o").
		Select(orderViewColumns).
		Joins("JOIN customers c ON c.id = o.customer_id").
		Joins("LEFT JOIN users u ON u.id = c.user_id")
}

// ListOrders returns newest-first order views, fetching one extra row so the
// caller can tell whether a next page exists.
func (r *repository) ListOrders(ctx context.Context, filter ListFilter) ([]OrderView, error) {
	q := r.baseViewQuery(ctx)
	if filter.OwnerUserID != nil {
		q = q.Where("c.user_id = ?", *filter.OwnerUserID)
	}
	if filter.Cursor != nil {
		q = q.Where("(o.created_at < ?) OR (o.created_at = ? AND o.id < ?)",
			filter.Cursor.CreatedAt, filter.Cursor.CreatedAt, filter.Cursor.ID)
	}
	var rows []OrderView
	err := q.Order("o.created_at DESC").Order("o.id DESC").Limit(filter.Limit).Scan(&rows).Error
	return rows, err
}

// FindOrderView returns gorm.ErrRecordNotFound when the order does not exist.
func (r *repository) FindOrderView(ctx context.Context, orderID uuid.UUID) (*OrderView, error) {
	var rows []OrderView
	if err := r.baseViewQuery(ctx).Where("o.id = ?", orderID).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

func (r *repository) ListItemViews(ctx context.Context, orderIDs []uuid.UUID) ([]ItemView, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	var rows []ItemView
	err := r.db.WithContext(ctx).
		Table("order_items AS oi").
		Select("oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price_at_purchase, COALESCE(p.name, '') AS product_name").
		Joins("LEFT JOIN products p ON p.id = oi.product_id").
		Where("oi.order_id IN ?", orderIDs).
		Order("product_name ASC").
		Order("oi.id ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) CustomerIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	var profile models.CustomerProfile
	if err := r.db.WithContext(ctx).Select("id").Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return uuid.Nil, err
	}
	return profile.ID, nil
}

func (r *repository) ListRecent(ctx context.Context, customerID uuid.UUID, limit int) ([]RecentOrder, error) {
	var rows []RecentOrder
	err := r.db.WithContext(ctx).
		Table("orders AS o").
		Select("o.id, o.total_amount, o.status, o.created_at, COUNT(oi.id) AS item_count").
		Joins("LEFT JOIN order_items oi ON oi.order_id = o.id").
		Where("o.customer_id = ?", customerID).
		Group("o.id, o.total_amount, o.status, o.created_at").
		Order("o.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
