package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/farmdesk/farmdesk-backend/internal/stock"
	"github.com/farmdesk/farmdesk-backend/pkg/db/models"
	pkgerrors "github.com/farmdesk/farmdesk-backend/pkg/errors"
	"github.com/farmdesk/farmdesk-backend/pkg/money"
)

// Assembler prices a request against current product rows.
type Assembler struct {
	repo Repository
}

func NewAssembler(repo Repository) (*Assembler, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &Assembler{repo: repo}, nil
}

// Assemble validates items, merges repeated products and snapshots prices.
// Line items keep the order in which products first appear in the request.
// Nothing is written.
func (a *Assembler) Assemble(ctx context.Context, tx *gorm.DB, items []ItemRequest) (*Assembly, error) {
	merged, err := mergeItems(items)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(merged))
	for _, item := range merged {
		ids = append(ids, item.ProductID)
	}
	products, err := a.repo.WithTx(tx).FindProducts(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	byID := make(map[uuid.UUID]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	assembly := &Assembly{LineItems: make([]models.OrderLineItem, 0, len(merged))}
	lineTotals := make([]decimal.Decimal, 0, len(merged))
	for _, item := range merged {
		product, ok := byID[item.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeProductNotFound, fmt.Sprintf("Product %s not found", item.ProductID)).
				WithDetails(map[string]any{"product_id": item.ProductID})
		}
		if product.StockQuantity < item.Quantity {
			return nil, stock.InsufficientStock(product, item.Quantity)
		}
		price := money.Round(product.Price)
		assembly.LineItems = append(assembly.LineItems, models.OrderLineItem{
			ProductID:       product.ID,
			Quantity:        item.Quantity,
			PriceAtPurchase: price,
		})
		lineTotals = append(lineTotals, money.LineTotal(price, item.Quantity))
	}
	assembly.TotalAmount = money.Sum(lineTotals...)
	return assembly, nil
}

// validateItems rejects empty requests and non-positive quantities.
func validateItems(items []ItemRequest) error {
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for i, item := range items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "product id required").
				WithDetails(map[string]any{"index": i})
		}
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("Product %s has invalid quantity", item.ProductID)).
				WithDetails(map[string]any{"index": i, "product_id": item.ProductID})
		}
	}
	return nil
}

func mergeItems(items []ItemRequest) ([]ItemRequest, error) {
	if err := validateItems(items); err != nil {
		return nil, err
	}
	merged := make([]ItemRequest, 0, len(items))
	index := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		if i, ok := index[item.ProductID]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged, nil
}
