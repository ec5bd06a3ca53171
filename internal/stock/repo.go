package stock

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/farmdesk/farmdesk-backend/pkg/db/models"
)

// Repository is the persistence surface of the stock ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LockProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	CompareAndSetQuantity(ctx context.Context, productID uuid.UUID, expected, next int) (bool, error)
	FindInventory(ctx context.Context, productID uuid.UUID) (*models.InventoryRecord, error)
	CreateInventory(ctx context.Context, record *models.InventoryRecord) error
	SetInventoryQuantity(ctx context.Context, inventoryID uuid.UUID, quantity int) error
	InsertMovement(ctx context.Context, movement *models.StockMovement) error
	ProductExists(ctx context.Context, productID uuid.UUID) (bool, error)
	ListMovements(ctx context.Context, productID uuid.UUID, limit int) ([]models.StockMovement, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// LockProduct reads the product with SELECT ... FOR UPDATE. Dialects without
// row locks (SQLite) drop the clause.
func (r *repository) LockProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", productID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CompareAndSetQuantity writes next only while the stored quantity still
// equals expected.
func (r *repository) CompareAndSetQuantity(ctx context.Context, productID uuid.UUID, expected, next int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock_quantity = ?", productID, expected).
		Update("stock_quantity", next)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// FindInventory returns nil, nil when the product has no inventory shadow yet.
func (r *repository) FindInventory(ctx context.Context, productID uuid.UUID) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *repository) CreateInventory(ctx context.Context, record *models.InventoryRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) SetInventoryQuantity(ctx context.Context, inventoryID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("id = ?", inventoryID).
		Update("quantity", quantity).Error
}

func (r *repository) InsertMovement(ctx context.Context, movement *models.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) ProductExists(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error
	return count > 0, err
}

func (r *repository) ListMovements(ctx context.Context, productID uuid.UUID, limit int) ([]models.StockMovement, error) {
	var rows []models.StockMovement
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
