package customers

import (
	"time"

	"github.com/google/uuid"

	"github.com/farmdesk/farmdesk-backend/pkg/db/models"
)

// ProfileDTO is the API view of a customer profile.
type ProfileDTO struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	FullName        string    `json:"full_name"`
	PhoneNumber     string    `json:"phone_number"`
	ShippingAddress *string   `json:"shipping_address"`
	BillingAddress  *string   `json:"billing_address"`
	Complete        bool      `json:"complete"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// UpdateProfileCommand carries the fields a customer may change. Nil leaves the
// column untouched.
type UpdateProfileCommand struct {
	FullName        *string
	PhoneNumber     *string
	ShippingAddress *string
	BillingAddress  *string
}

// DeliverableProfile is what order placement needs from a verified profile.
type DeliverableProfile struct {
	CustomerID      uuid.UUID
	ShippingAddress string
}

func FromModel(m *models.CustomerProfile) *ProfileDTO {
	if m == nil {
		return nil
	}
	return &ProfileDTO{
		ID:              m.ID,
		UserID:          m.UserID,
		FullName:        m.FullName,
		PhoneNumber:     m.PhoneNumber,
		ShippingAddress: m.ShippingAddress,
		BillingAddress:  m.BillingAddress,
		Complete:        addressUsable(m.ShippingAddress),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
