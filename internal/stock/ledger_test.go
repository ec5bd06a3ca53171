package stock

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/farmdesk/farmdesk-backend/pkg/db"
	"github.com/farmdesk/farmdesk-backend/pkg/db/models"
	"github.com/farmdesk/farmdesk-backend/pkg/enums"
	pkgerrors "github.com/farmdesk/farmdesk-backend/pkg/errors"
	"github.com/farmdesk/farmdesk-backend/pkg/logger"
	"github.com/farmdesk/farmdesk-backend/pkg/outbox"
	"github.com/farmdesk/farmdesk-backend/pkg/outbox/payloads"
)

type countingMetrics struct {
	adjustments map[string]int
	lowStock    int
}

func (m *countingMetrics) IncStockAdjustment(reason string) {
	if m.adjustments == nil {
		m.adjustments = map[string]int{}
	}
	m.adjustments[reason]++
}

func (m *countingMetrics) IncLowStock() { m.lowStock++ }

func newLedgerFixture(t *testing.T) (*Ledger, *gorm.DB, *countingMetrics) {
	t.Helper()
	dsn := "file:stock_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	metrics := &countingMetrics{}
	ledger, err := NewLedger(LedgerParams{
		Repo:    NewRepository(conn),
		Tx:      db.NewFromGorm(conn),
		Outbox:  outbox.NewService(outbox.NewRepository(conn), logger.Nop()),
		Metrics: metrics,
	})
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	return ledger, conn, metrics
}

func seedProduct(t *testing.T, conn *gorm.DB, name string, stock int) models.Product {
	t.Helper()
	product := models.Product{
		Name:          name,
		Category:      "vegetables",
		Price:         decimal.RequireFromString("5.00"),
		StockQuantity: stock,
	}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func reloadStock(t *testing.T, conn *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var product models.Product
	if err := conn.First(&product, "id = ?", id).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	return product.StockQuantity
}

func countMovements(t *testing.T, conn *gorm.DB) int64 {
	t.Helper()
	var count int64
	if err := conn.Model(&models.StockMovement{}).Count(&count).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	return count
}

func TestNewLedgerRequiresDependencies(t *testing.T) {
	if _, err := NewLedger(LedgerParams{}); err == nil {
		t.Fatalf("expected error for missing dependencies")
	}
}

func TestAdjustDecrementsStockAndRecordsMovement(t *testing.T) {
	ledger, conn, metrics := newLedgerFixture(t)
	product := seedProduct(t, conn, "Carrots", 50)
	actor := uuid.New()

	adj, err := ledger.Adjust(context.Background(), AdjustInput{
		ProductID: product.ID,
		Delta:     -5,
		Reason:    enums.StockMovementManualAdjustment,
		ActorID:   &actor,
	})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if adj.Previous != 50 || adj.Quantity != 45 || adj.LowStock {
		t.Fatalf("unexpected adjustment %+v", adj)
	}
	if got := reloadStock(t, conn, product.ID); got != 45 {
		t.Fatalf("expected stock 45 got %d", got)
	}

	var inventory models.InventoryRecord
	if err := conn.First(&inventory, "product_id = ?", product.ID).Error; err != nil {
		t.Fatalf("load inventory: %v", err)
	}
	if inventory.Quantity != 45 {
		t.Fatalf("expected inventory 45 got %d", inventory.Quantity)
	}
	if inventory.Threshold != models.DefaultInventoryThreshold || inventory.Unit != models.DefaultInventoryUnit {
		t.Fatalf("expected default threshold and unit, got %d %q", inventory.Threshold, inventory.Unit)
	}

	movements, err := ledger.ListMovements(context.Background(), product.ID, 10)
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("expected 1 movement got %d", len(movements))
	}
	if movements[0].Delta != -5 || movements[0].QuantityAfter != 45 {
		t.Fatalf("unexpected movement %+v", movements[0])
	}
	if movements[0].ActorUserID == nil || *movements[0].ActorUserID != actor {
		t.Fatalf("expected actor %s on movement", actor)
	}

	if metrics.adjustments["manual_adjustment"] != 1 {
		t.Fatalf("expected one manual adjustment metric, got %v", metrics.adjustments)
	}
	if metrics.lowStock != 0 {
		t.Fatalf("expected no low stock metric, got %d", metrics.lowStock)
	}
}

func TestAdjustRefusesNegativeResult(t *testing.T) {
	ledger, conn, _ := newLedgerFixture(t)
	product := seedProduct(t, conn, "Kale", 3)

	_, err := ledger.Adjust(context.Background(), AdjustInput{
		ProductID: product.ID,
		Delta:     -4,
		Reason:    enums.StockMovementOrderPlaced,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if msg := pkgerrors.As(err).Message(); msg != "Insufficient stock for product Kale" {
		t.Fatalf("unexpected message %q", msg)
	}
	if got := reloadStock(t, conn, product.ID); got != 3 {
		t.Fatalf("stock changed to %d", got)
	}
	if n := countMovements(t, conn); n != 0 {
		t.Fatalf("expected no movements, got %d", n)
	}
}

func TestAdjustAllowsDrainToZero(t *testing.T) {
	ledger, conn, _ := newLedgerFixture(t)
	product := seedProduct(t, conn, "Beets", 4)

	adj, err := ledger.Adjust(context.Background(), AdjustInput{
		ProductID: product.ID,
		Delta:     -4,
		Reason:    enums.StockMovementOrderPlaced,
	})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if adj.Quantity != 0 {
		t.Fatalf("expected 0 got %d", adj.Quantity)
	}
	if got := reloadStock(t, conn, product.ID); got != 0 {
		t.Fatalf("expected stock 0 got %d", got)
	}
}

func TestAdjustValidatesInput(t *testing.T) {
	ledger, conn, _ := newLedgerFixture(t)
	product := seedProduct(t, conn, "Leeks", 10)

	cases := map[string]AdjustInput{
		"zero delta":     {ProductID: product.ID, Delta: 0, Reason: enums.StockMovementManualAdjustment},
		"missing id":     {Delta: 1, Reason: enums.StockMovementManualAdjustment},
		"unknown reason": {ProductID: product.ID, Delta: 1, Reason: "restock"},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ledger.Adjust(context.Background(), input)
			if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestAdjustUnknownProduct(t *testing.T) {
	ledger, _, _ := newLedgerFixture(t)

	_, err := ledger.Adjust(context.Background(), AdjustInput{
		ProductID: uuid.New(),
		Delta:     1,
		Reason:    enums.StockMovementManualAdjustment,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAdjustEmitsLowStockOnceWhenCrossingThreshold(t *testing.T) {
	ledger, conn, metrics := newLedgerFixture(t)
	product := seedProduct(t, conn, "Spinach", 12)
	ctx := context.Background()

	if _, err := ledger.Adjust(ctx, AdjustInput{ProductID: product.ID, Delta: -2, Reason: enums.StockMovementOrderPlaced}); err != nil {
		t.Fatalf("first adjust: %v", err)
	}
	adj, err := ledger.Adjust(ctx, AdjustInput{ProductID: product.ID, Delta: -1, Reason: enums.StockMovementOrderPlaced})
	if err != nil {
		t.Fatalf("second adjust: %v", err)
	}
	if !adj.LowStock {
		t.Fatalf("expected low stock on crossing")
	}

	var events []models.OutboxEvent
	if err := conn.Where("event_type = ?", enums.EventInventoryLowStock).Find(&events).Error; err != nil {
		t.Fatalf("load events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 low stock event got %d", len(events))
	}
	if events[0].AggregateID != product.ID {
		t.Fatalf("expected aggregate %s got %s", product.ID, events[0].AggregateID)
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(events[0].Payload, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	var data payloads.InventoryLowStockEvent
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if data.Quantity != 10 || data.ProductName != "Spinach" {
		t.Fatalf("unexpected payload %+v", data)
	}
	if metrics.lowStock != 1 {
		t.Fatalf("expected 1 low stock metric got %d", metrics.lowStock)
	}
}

func TestAdjustStockRollsBackWithCallerTransaction(t *testing.T) {
	ledger, conn, _ := newLedgerFixture(t)
	product := seedProduct(t, conn, "Onions", 20)
	client := db.NewFromGorm(conn)

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		if _, err := ledger.AdjustStock(context.Background(), tx, AdjustInput{
			ProductID: product.ID,
			Delta:     -5,
			Reason:    enums.StockMovementOrderPlaced,
		}); err != nil {
			return err
		}
		return pkgerrors.New(pkgerrors.CodeInternal, "boom")
	})
	if err == nil {
		t.Fatalf("expected transaction error")
	}
	if got := reloadStock(t, conn, product.ID); got != 20 {
		t.Fatalf("expected rollback to 20 got %d", got)
	}
	if n := countMovements(t, conn); n != 0 {
		t.Fatalf("expected no movements, got %d", n)
	}
}

func TestAdjustStockRequiresTransaction(t *testing.T) {
	ledger, _, _ := newLedgerFixture(t)
	_, err := ledger.AdjustStock(context.Background(), nil, AdjustInput{ProductID: uuid.New(), Delta: 1})
	if !pkgerrors.HasCode(err, pkgerrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestListMovementsUnknownProduct(t *testing.T) {
	ledger, _, _ := newLedgerFixture(t)
	_, err := ledger.ListMovements(context.Background(), uuid.New(), 5)
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
