package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmdesk/farmdesk-backend/pkg/db"
	"github.com/farmdesk/farmdesk-backend/pkg/db/models"
	pkgerrors "github.com/farmdesk/farmdesk-backend/pkg/errors"
	"github.com/farmdesk/farmdesk-backend/pkg/logger"
)

const (
	placeholderName  = "New Customer"
	placeholderPhone = "000-000-0000"

	maxNameLength    = 120
	maxPhoneLength   = 32
	maxAddressLength = 500
)

// Service exposes profile reads and edits for the signed-in customer.
type Service interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	Update(ctx context.Context, userID uuid.UUID, cmd UpdateProfileCommand) (*ProfileDTO, error)
}

type service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) GetOrCreate(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err == nil {
		return FromModel(profile), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer profile")
	}

	placeholder := PlaceholderAddress
	billing := PlaceholderAddress
	profile = &models.CustomerProfile{
		UserID:          userID,
		FullName:        placeholderName,
		PhoneNumber:     placeholderPhone,
		ShippingAddress: &placeholder,
		BillingAddress:  &billing,
	}
	if err := s.repo.Create(ctx, profile); err != nil {
		if !db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer profile")
		}
		// another request created it first
		existing, findErr := s.repo.FindByUserID(ctx, userID)
		if findErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load customer profile")
		}
		return FromModel(existing), nil
	}

	s.logg.Info(s.logg.WithUserID(ctx, userID.String()), "placeholder customer profile created")
	return FromModel(profile), nil
}

func (s *service) Update(ctx context.Context, userID uuid.UUID, cmd UpdateProfileCommand) (*ProfileDTO, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer profile")
	}

	if cmd.FullName != nil {
		profile.FullName = strings.TrimSpace(*cmd.FullName)
	}
	if cmd.PhoneNumber != nil {
		profile.PhoneNumber = strings.TrimSpace(*cmd.PhoneNumber)
	}
	if cmd.ShippingAddress != nil {
		profile.ShippingAddress = normalizeAddress(*cmd.ShippingAddress)
	}
	if cmd.BillingAddress != nil {
		profile.BillingAddress = normalizeAddress(*cmd.BillingAddress)
	}

	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer profile")
	}
	return FromModel(profile), nil
}

func (c UpdateProfileCommand) validate() error {
	if c.FullName == nil && c.PhoneNumber == nil && c.ShippingAddress == nil && c.BillingAddress == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "no profile fields to update")
	}
	if c.FullName != nil {
		name := strings.TrimSpace(*c.FullName)
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
		}
		if len(name) > maxNameLength {
			return pkgerrors.New(pkgerrors.CodeValidation, "full name is too long")
		}
	}
	if c.PhoneNumber != nil {
		phone := strings.TrimSpace(*c.PhoneNumber)
		if phone == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "phone number is required")
		}
		if len(phone) > maxPhoneLength {
			return pkgerrors.New(pkgerrors.CodeValidation, "phone number is too long")
		}
	}
	addresses := []struct {
		field string
		value *string
	}{
		{"shipping_address", c.ShippingAddress},
		{"billing_address", c.BillingAddress},
	}
	for _, address := range addresses {
		if address.value != nil && len(strings.TrimSpace(*address.value)) > maxAddressLength {
			return pkgerrors.New(pkgerrors.CodeValidation, "address is too long").
				WithDetails(map[string]any{"field": address.field})
		}
	}
	return nil
}

func normalizeAddress(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
