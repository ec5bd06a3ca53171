package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CustomerProfile holds delivery details for a customer account (1:1 with users).
type CustomerProfile struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID          uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	FullName        string    `gorm:"column:full_name;not null"`
	PhoneNumber     string    `gorm:"column:phone_number;not null"`
	ShippingAddress *string   `gorm:"column:shipping_address"`
	BillingAddress  *string   `gorm:"column:billing_address"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (CustomerProfile) TableName() string {
	return "customers"
}

func (c *CustomerProfile) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
