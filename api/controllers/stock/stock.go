package stock

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/farmdesk/farmdesk-backend/api/middleware"
	"github.com/farmdesk/farmdesk-backend/api/responses"
	"github.com/farmdesk/farmdesk-backend/api/validators"
	internalstock "github.com/farmdesk/farmdesk-backend/internal/stock"
	"github.com/farmdesk/farmdesk-backend/pkg/db/models"
	"github.com/farmdesk/farmdesk-backend/pkg/enums"
	pkgerrors "github.com/farmdesk/farmdesk-backend/pkg/errors"
	"github.com/farmdesk/farmdesk-backend/pkg/logger"
	"github.com/farmdesk/farmdesk-backend/pkg/pagination"
)

// Ledger is the stock surface the HTTP layer needs.
type Ledger interface {
	Adjust(ctx context.Context, input internalstock.AdjustInput) (*internalstock.Adjustment, error)
	ListMovements(ctx context.Context, productID uuid.UUID, limit int) ([]models.StockMovement, error)
}

type adjustRequest struct {
	Delta int `json:"delta" validate:"ne=0"`
}

type movementResponse struct {
	ID            uuid.UUID                 `json:"id"`
	Delta         int                       `json:"delta"`
	QuantityAfter int                       `json:"quantity_after"`
	Reason        enums.StockMovementReason `json:"reason"`
	OrderID       *uuid.UUID                `json:"order_id,omitempty"`
	ActorUserID   *uuid.UUID                `json:"actor_user_id,omitempty"`
	CreatedAt     time.Time                 `json:"created_at"`
}

// Adjust applies a manual restock or write-off to a product.
func Adjust(ledger Ledger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ledger == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock ledger unavailable"))
			return
		}

		userID, _, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		productID, err := validators.ParseURLUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req adjustRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		adjustment, err := ledger.Adjust(r.Context(), internalstock.AdjustInput{
			ProductID: productID,
			Delta:     req.Delta,
			Reason:    enums.StockMovementManualAdjustment,
			ActorID:   &userID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, adjustment)
	}
}

// Movements lists a product's newest stock movements.
func Movements(ledger Ledger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ledger == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock ledger unavailable"))
			return
		}

		productID, err := validators.ParseURLUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := ledger.ListMovements(r.Context(), productID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]movementResponse, 0, len(rows))
		for _, row := range rows {
			out = append(out, movementResponse{
				ID:            row.ID,
				Delta:         row.Delta,
				QuantityAfter: row.QuantityAfter,
				Reason:        row.Reason,
				OrderID:       row.OrderID,
				ActorUserID:   row.ActorUserID,
				CreatedAt:     row.CreatedAt,
			})
		}
		responses.WriteSuccess(w, out)
	}
}
