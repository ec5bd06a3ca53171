// Package stock owns every mutation of a product's stock quantity.
package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmdesk/farmdesk-backend/pkg/db/models"
	"github.com/farmdesk/farmdesk-backend/pkg/enums"
	pkgerrors "github.com/farmdesk/farmdesk-backend/pkg/errors"
	"github.com/farmdesk/farmdesk-backend/pkg/outbox"
	"github.com/farmdesk/farmdesk-backend/pkg/outbox/payloads"
	"github.com/farmdesk/farmdesk-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type recorder interface {
	IncStockAdjustment(reason string)
	IncLowStock()
}

// Adjuster is the slice of the ledger other packages depend on.
type Adjuster interface {
	AdjustStock(ctx context.Context, tx *gorm.DB, input AdjustInput) (*Adjustment, error)
}

// AdjustInput describes one signed change to a product's stock.
type AdjustInput struct {
	ProductID uuid.UUID
	Delta     int
	Reason    enums.StockMovementReason
	OrderID   *uuid.UUID
	ActorID   *uuid.UUID
}

// Adjustment is the committed result of AdjustStock.
type Adjustment struct {
	ProductID   uuid.UUID                 `json:"product_id"`
	ProductName string                    `json:"product_name"`
	Delta       int                       `json:"delta"`
	Previous    int                       `json:"previous_quantity"`
	Quantity    int                       `json:"quantity"`
	Reason      enums.StockMovementReason `json:"reason"`
	MovementID  uuid.UUID                 `json:"movement_id"`
	LowStock    bool                      `json:"low_stock"`
}

type LedgerParams struct {
	Repo    Repository
	Tx      txRunner
	Outbox  outboxPublisher
	Metrics recorder
}

type Ledger struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	metrics recorder
}

func NewLedger(params LedgerParams) (*Ledger, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &Ledger{
		repo:    params.Repo,
		tx:      params.Tx,
		outbox:  params.Outbox,
		metrics: params.Metrics,
	}, nil
}

// AdjustStock applies input.Delta to the product inside tx. The product row is
// locked first, a negative result is refused without writing, and the
// inventory shadow and movement log are updated alongside the product.
func (l *Ledger) AdjustStock(ctx context.Context, tx *gorm.DB, input AdjustInput) (*Adjustment, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.Delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock delta must not be zero")
	}
	if !input.Reason.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid stock movement reason")
	}

	repo := l.repo.WithTx(tx)

	product, err := repo.LockProduct(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"product_id": input.ProductID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock product")
	}

	current := product.StockQuantity
	next := current + input.Delta
	if next < 0 {
		return nil, InsufficientStock(product, -input.Delta)
	}

	updated, err := repo.CompareAndSetQuantity(ctx, product.ID, current, next)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product stock")
	}
	if !updated {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "stock changed concurrently, retry").
			WithDetails(map[string]any{"product_id": product.ID})
	}

	inventory, err := l.syncInventory(ctx, repo, product, next)
	if err != nil {
		return nil, err
	}

	movement := &models.StockMovement{
		ProductID:     product.ID,
		Delta:         input.Delta,
		QuantityAfter: next,
		Reason:        input.Reason,
		OrderID:       input.OrderID,
		ActorUserID:   input.ActorID,
	}
	if err := repo.InsertMovement(ctx, movement); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock movement")
	}

	crossed := current > inventory.Threshold && next <= inventory.Threshold
	if crossed {
		event := outbox.DomainEvent{
			EventType:     enums.EventInventoryLowStock,
			AggregateType: enums.AggregateProduct,
			AggregateID:   product.ID,
			Actor:         actorRef(input.ActorID),
			Data: payloads.InventoryLowStockEvent{
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    next,
				Threshold:   inventory.Threshold,
				Unit:        inventory.Unit,
			},
		}
		if err := l.outbox.Emit(ctx, tx, event); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit low stock event")
		}
	}

	if l.metrics != nil {
		l.metrics.IncStockAdjustment(string(input.Reason))
		if crossed {
			l.metrics.IncLowStock()
		}
	}

	return &Adjustment{
		ProductID:   product.ID,
		ProductName: product.Name,
		Delta:       input.Delta,
		Previous:    current,
		Quantity:    next,
		Reason:      input.Reason,
		MovementID:  movement.ID,
		LowStock:    next <= inventory.Threshold,
	}, nil
}

func (l *Ledger) syncInventory(ctx context.Context, repo Repository, product *models.Product, quantity int) (*models.InventoryRecord, error) {
	inventory, err := repo.FindInventory(ctx, product.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}
	if inventory == nil {
		inventory = &models.InventoryRecord{
			ProductID:   product.ID,
			Quantity:    quantity,
			Threshold:   models.DefaultInventoryThreshold,
			Unit:        models.DefaultInventoryUnit,
			Price:       product.Price,
			Description: product.Description,
		}
		if err := repo.CreateInventory(ctx, inventory); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create inventory record")
		}
		return inventory, nil
	}
	if err := repo.SetInventoryQuantity(ctx, inventory.ID, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update inventory quantity")
	}
	inventory.Quantity = quantity
	return inventory, nil
}

// Adjust runs a standalone adjustment in its own transaction.
func (l *Ledger) Adjust(ctx context.Context, input AdjustInput) (*Adjustment, error) {
	var result *Adjustment
	err := l.tx.WithTx(ctx, func(tx *gorm.DB) error {
		adj, err := l.AdjustStock(ctx, tx, input)
		if err != nil {
			return err
		}
		result = adj
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "stock adjustment failed")
		}
		return nil, err
	}
	return result, nil
}

// ListMovements returns the newest movements for a product.
func (l *Ledger) ListMovements(ctx context.Context, productID uuid.UUID, limit int) ([]models.StockMovement, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	exists, err := l.repo.ProductExists(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	rows, err := l.repo.ListMovements(ctx, productID, pagination.NormalizeLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock movements")
	}
	return rows, nil
}

// InsufficientStock builds the error returned when requested exceeds the
// product's stock.
func InsufficientStock(product *models.Product, requested int) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("Insufficient stock for product %s", product.Name)).
		WithDetails(map[string]any{
			"product_id":   product.ID,
			"product_name": product.Name,
			"requested":    requested,
			"available":    product.StockQuantity,
		})
}

func actorRef(id *uuid.UUID) *outbox.ActorRef {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: *id}
}
