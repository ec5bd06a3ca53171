package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmdesk/farmdesk-backend/internal/stock"
	"github.com/farmdesk/farmdesk-backend/pkg/db/models"
	"github.com/farmdesk/farmdesk-backend/pkg/enums"
	pkgerrors "github.com/farmdesk/farmdesk-backend/pkg/errors"
	"github.com/farmdesk/farmdesk-backend/pkg/metrics"
	"github.com/farmdesk/farmdesk-backend/pkg/money"
	"github.com/farmdesk/farmdesk-backend/pkg/outbox"
	"github.com/farmdesk/farmdesk-backend/pkg/outbox/payloads"
)

// PlaceOrder creates the order, its line items and the stock decrements in a
// single transaction. Any failure leaves no trace in the database.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlaceOrderResult, error) {
	started := time.Now()
	result, err := s.placeOrder(ctx, input)
	s.observePlacement(started, err)
	return result, err
}

func (s *service) placeOrder(ctx context.Context, input PlaceOrderInput) (*PlaceOrderResult, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := validateItems(input.Items); err != nil {
		return nil, err
	}

	ctx = s.logg.WithUserID(ctx, input.UserID.String())
	var result *PlaceOrderResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		profile, err := s.gate.RequireDeliverableProfile(ctx, tx, input.UserID)
		if err != nil {
			return err
		}

		assembly, err := s.assembler.Assemble(ctx, tx, input.Items)
		if err != nil {
			return err
		}

		repo := s.repo.WithTx(tx)
		order := &models.Order{
			CustomerID:      profile.CustomerID,
			TotalAmount:     assembly.TotalAmount,
			Status:          enums.OrderStatusPending,
			DeliveryAddress: profile.ShippingAddress,
		}
		if err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		actor := input.UserID
		items := make([]payloads.OrderCreatedItem, 0, len(assembly.LineItems))
		for i := range assembly.LineItems {
			line := assembly.LineItems[i]
			line.OrderID = order.ID
			if err := repo.CreateLineItem(ctx, &line); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order line item")
			}
			if _, err := s.stock.AdjustStock(ctx, tx, stock.AdjustInput{
				ProductID: line.ProductID,
				Delta:     -line.Quantity,
				Reason:    enums.StockMovementOrderPlaced,
				OrderID:   &order.ID,
				ActorID:   &actor,
			}); err != nil {
				return err
			}
			items = append(items, payloads.OrderCreatedItem{
				ProductID:       line.ProductID,
				Quantity:        line.Quantity,
				PriceAtPurchase: money.String(line.PriceAtPurchase),
			})
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.UserID, Role: string(input.ActorRole)},
			Data: payloads.OrderCreatedEvent{
				OrderID:     order.ID,
				CustomerID:  order.CustomerID,
				UserID:      input.UserID,
				TotalAmount: money.String(order.TotalAmount),
				Items:       items,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order created event")
		}

		result = &PlaceOrderResult{OrderID: order.ID, TotalAmount: order.TotalAmount}
		return nil
	})
	if err != nil {
		return nil, placementError(err)
	}

	s.logg.Info(s.logg.WithOrderID(ctx, result.OrderID.String()), "order placed")
	return result, nil
}

// placementError passes business rejections through and reports every other
// failure, including a lost stock update race, as a generic internal error.
func placementError(err error) error {
	typed := pkgerrors.As(err)
	if typed == nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "order placement failed")
	}
	switch typed.Code() {
	case pkgerrors.CodeDependency, pkgerrors.CodeConflict:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "order placement failed").
			WithDetails(typed.Details())
	}
	return err
}

func (s *service) observePlacement(started time.Time, err error) {
	if s.metrics == nil {
		return
	}
	if err == nil {
		s.metrics.ObservePlacement(metrics.OutcomeSuccess, "", time.Since(started))
		return
	}
	code := pkgerrors.CodeInternal
	if typed := pkgerrors.As(err); typed != nil {
		code = typed.Code()
	}
	outcome := metrics.OutcomeFailed
	if pkgerrors.MetadataFor(code).HTTPStatus < 500 {
		outcome = metrics.OutcomeRejected
	}
	s.metrics.ObservePlacement(outcome, string(code), time.Since(started))
}
