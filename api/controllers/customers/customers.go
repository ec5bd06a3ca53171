package customers

import (
	"net/http"

	"github.com/farmdesk/farmdesk-backend/api/middleware"
	"github.com/farmdesk/farmdesk-backend/api/responses"
	"github.com/farmdesk/farmdesk-backend/api/validators"
	internalcustomers "github.com/farmdesk/farmdesk-backend/internal/customers"
	pkgerrors "github.com/farmdesk/farmdesk-backend/pkg/errors"
	"github.com/farmdesk/farmdesk-backend/pkg/logger"
)

type updateProfileRequest struct {
	FullName        *string `json:"full_name" validate:"omitempty,max=120"`
	PhoneNumber     *string `json:"phone_number" validate:"omitempty,max=32"`
	ShippingAddress *string `json:"shipping_address" validate:"omitempty,max=500"`
	BillingAddress  *string `json:"billing_address" validate:"omitempty,max=500"`
}

// GetMe returns the caller's profile, creating the placeholder on first visit.
func GetMe(svc internalcustomers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		userID, _, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		profile, err := svc.GetOrCreate(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

func UpdateMe(svc internalcustomers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		userID, _, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var req updateProfileRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.Update(r.Context(), userID, internalcustomers.UpdateProfileCommand{
			FullName:        req.FullName,
			PhoneNumber:     req.PhoneNumber,
			ShippingAddress: req.ShippingAddress,
			BillingAddress:  req.BillingAddress,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}
