package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/farmdesk/farmdesk-backend/pkg/errors"
)

const (
	// PlaceholderAddress is written into auto-created profiles.
	PlaceholderAddress = "Please update your address"
	placeholderMarker  = "please update"

	ProfileRedirect = "/profile"

	msgProfileMissing    = "Complete your customer profile before placing orders"
	msgAddressIncomplete = "Please update your shipping address before placing orders"
)

// Gate checks that a customer can receive an order.
type Gate struct {
	repo *Repository
}

func NewGate(repo *Repository) (*Gate, error) {
	if repo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	return &Gate{repo: repo}, nil
}

// RequireDeliverableProfile loads the user's profile inside tx and returns the
// customer id and shipping address snapshot. It never writes.
func (g *Gate) RequireDeliverableProfile(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*DeliverableProfile, error) {
	profile, err := g.repo.WithTx(tx).FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeProfileMissing, msgProfileMissing).
				WithDetails(map[string]any{"redirect": ProfileRedirect})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer profile")
	}
	if !addressUsable(profile.ShippingAddress) {
		return nil, pkgerrors.New(pkgerrors.CodeAddressIncomplete, msgAddressIncomplete).
			WithDetails(map[string]any{"redirect": ProfileRedirect})
	}
	return &DeliverableProfile{
		CustomerID:      profile.ID,
		ShippingAddress: strings.TrimSpace(*profile.ShippingAddress),
	}, nil
}

func addressUsable(address *string) bool {
	if address == nil {
		return false
	}
	trimmed := strings.TrimSpace(*address)
	if trimmed == "" {
		return false
	}
	return !strings.Contains(strings.ToLower(trimmed), placeholderMarker)
}
