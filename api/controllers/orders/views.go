package orders

import (
	"time"

	"github.com/google/uuid"

	internalorders "github.com/farmdesk/farmdesk-backend/internal/orders"
	"github.com/farmdesk/farmdesk-backend/pkg/db/models"
	"github.com/farmdesk/farmdesk-backend/pkg/enums"
	"github.com/farmdesk/farmdesk-backend/pkg/money"
	"github.com/farmdesk/farmdesk-backend/pkg/pagination"
)

// Amounts leave the API as fixed two-place strings.

type placeOrderResponse struct {
	OrderID     uuid.UUID `json:"order_id"`
	TotalAmount string    `json:"total_amount"`
}

type orderResponse struct {
	ID              uuid.UUID         `json:"id"`
	CustomerID      uuid.UUID         `json:"customer_id"`
	TotalAmount     string            `json:"total_amount"`
	Status          enums.OrderStatus `json:"status"`
	DeliveryAddress string            `json:"delivery_address"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

type itemResponse struct {
	ID              uuid.UUID `json:"id"`
	ProductID       uuid.UUID `json:"product_id"`
	ProductName     string    `json:"product_name"`
	Quantity        int       `json:"quantity"`
	PriceAtPurchase string    `json:"price_at_purchase"`
	LineTotal       string    `json:"line_total"`
}

type orderViewResponse struct {
	ID              uuid.UUID         `json:"id"`
	CustomerID      uuid.UUID         `json:"customer_id"`
	CustomerName    string            `json:"customer_name"`
	CustomerPhone   string            `json:"customer_phone"`
	CustomerEmail   *string           `json:"customer_email,omitempty"`
	TotalAmount     string            `json:"total_amount"`
	Status          enums.OrderStatus `json:"status"`
	DeliveryAddress string            `json:"delivery_address"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	Items           []itemResponse    `json:"items"`
}

type orderPageResponse struct {
	Items      []orderViewResponse `json:"items"`
	NextCursor string              `json:"next_cursor,omitempty"`
}

type recentOrderResponse struct {
	ID          uuid.UUID         `json:"id"`
	TotalAmount string            `json:"total_amount"`
	Status      enums.OrderStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	ItemCount   int               `json:"item_count"`
}

func toOrderResponse(o *models.Order) orderResponse {
	return orderResponse{
		ID:              o.ID,
		CustomerID:      o.CustomerID,
		TotalAmount:     money.String(o.TotalAmount),
		Status:          o.Status,
		DeliveryAddress: o.DeliveryAddress,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func toOrderViewResponse(v internalorders.OrderView) orderViewResponse {
	items := make([]itemResponse, 0, len(v.Items))
	for _, item := range v.Items {
		items = append(items, itemResponse{
			ID:              item.ID,
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			Quantity:        item.Quantity,
			PriceAtPurchase: money.String(item.PriceAtPurchase),
			LineTotal:       money.String(money.LineTotal(item.PriceAtPurchase, item.Quantity)),
		})
	}
	return orderViewResponse{
		ID:              v.ID,
		CustomerID:      v.CustomerID,
		CustomerName:    v.CustomerName,
		CustomerPhone:   v.CustomerPhone,
		CustomerEmail:   v.CustomerEmail,
		TotalAmount:     money.String(v.TotalAmount),
		Status:          v.Status,
		DeliveryAddress: v.DeliveryAddress,
		CreatedAt:       v.CreatedAt,
		UpdatedAt:       v.UpdatedAt,
		Items:           items,
	}
}

func toOrderPageResponse(page *pagination.Page[internalorders.OrderView]) orderPageResponse {
	out := orderPageResponse{Items: make([]orderViewResponse, 0)}
	if page == nil {
		return out
	}
	for _, v := range page.Items {
		out.Items = append(out.Items, toOrderViewResponse(v))
	}
	out.NextCursor = page.NextCursor
	return out
}

func toRecentResponse(rows []internalorders.RecentOrder) []recentOrderResponse {
	out := make([]recentOrderResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, recentOrderResponse{
			ID:          row.ID,
			TotalAmount: money.String(row.TotalAmount),
			Status:      row.Status,
			CreatedAt:   row.CreatedAt,
			ItemCount:   row.ItemCount,
		})
	}
	return out
}
