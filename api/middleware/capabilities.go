package middleware

import (
	"net/http"

	"github.com/farmdesk/farmdesk-backend/api/responses"
	"github.com/farmdesk/farmdesk-backend/internal/access"
	pkgerrors "github.com/farmdesk/farmdesk-backend/pkg/errors"
	"github.com/farmdesk/farmdesk-backend/pkg/logger"
)

// RequireCapability rejects actors whose role does not grant capability.
// It must run after Auth.
func RequireCapability(capability access.Capability, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, role, ok := ActorFromContext(r.Context())
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
				return
			}
			if !access.Allows(role, capability) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role not permitted").
					WithDetails(map[string]any{"capability": capability}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
