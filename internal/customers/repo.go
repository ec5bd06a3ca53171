package customers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmdesk/farmdesk-backend/pkg/db/models"
)

// Repository persists customer profiles.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByUserID returns gorm.ErrRecordNotFound when the user has no profile.
func (r *Repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.CustomerProfile, error) {
	var profile models.CustomerProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *Repository) Create(ctx context.Context, profile *models.CustomerProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

// Update writes the mutable profile columns.
func (r *Repository) Update(ctx context.Context, profile *models.CustomerProfile) error {
	return r.db.WithContext(ctx).
		Model(profile).
		Select("full_name", "phone_number", "shipping_address", "billing_address", "updated_at").
		Updates(profile).Error
}
