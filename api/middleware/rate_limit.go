package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/farmdesk/farmdesk-backend/api/responses"
	pkgerrors "github.com/farmdesk/farmdesk-backend/pkg/errors"
	"github.com/farmdesk/farmdesk-backend/pkg/logger"
)

// FixedWindowLimiter counts hits per scope inside a fixed window.
type FixedWindowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// PlacementPolicy caps how many orders one user may submit per window.
type PlacementPolicy struct {
	Window    time.Duration
	UserLimit int
}

// PlacementRateLimit applies PlacementPolicy per authenticated user. Limiter
// failures are logged and the request proceeds.
func PlacementRateLimit(policy PlacementPolicy, limiter FixedWindowLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || policy.Window <= 0 || policy.UserLimit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := UserIDFromContext(r.Context())
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, count, err := limiter.FixedWindowAllow(r.Context(), "orders:place:user:"+userID, int64(policy.UserLimit), policy.Window)
			if err != nil {
				logError(r.Context(), logg, "placement rate limit check failed", err)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(policy.Window.Seconds())))
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many orders").
					WithDetails(map[string]any{"limit": policy.UserLimit, "attempts": count}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
