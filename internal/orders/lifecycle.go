package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmdesk/farmdesk-backend/internal/stock"
	"github.com/farmdesk/farmdesk-backend/pkg/db/models"
	"github.com/farmdesk/farmdesk-backend/pkg/enums"
	pkgerrors "github.com/farmdesk/farmdesk-backend/pkg/errors"
	"github.com/farmdesk/farmdesk-backend/pkg/money"
	"github.com/farmdesk/farmdesk-backend/pkg/outbox"
	"github.com/farmdesk/farmdesk-backend/pkg/outbox/payloads"
)

// Transition moves an order to input.Status. Delivered and cancelled orders are
// final, even for a request naming their current status. Cancelling returns
// the stock the order still holds.
func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	ctx = s.logg.WithOrderID(ctx, input.OrderID.String())
	var (
		order    *models.Order
		previous enums.OrderStatus
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.LockOrder(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return orderNotFound()
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		order = loaded
		previous = loaded.Status

		if err := s.checkTransition(previous, input.Status); err != nil {
			return err
		}
		if previous == input.Status {
			return nil
		}

		if err := repo.UpdateStatus(ctx, order.ID, input.Status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		order.Status = input.Status

		restocked := false
		if input.Status == enums.OrderStatusCancelled {
			restocked, err = s.restock(ctx, tx, repo, order, input.ActorID)
			if err != nil {
				return err
			}
		}

		return s.emitStatusChanged(ctx, tx, order, previous, input.ActorID, input.ActorRole, restocked, false)
	})
	if err != nil {
		return nil, asTyped(err, "order status update failed")
	}

	if previous != order.Status {
		if s.metrics != nil {
			s.metrics.IncTransition(string(previous), string(order.Status))
		}
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"from": previous,
			"to":   order.Status,
		}), "order status changed")
	}
	return order, nil
}

func (s *service) checkTransition(from, to enums.OrderStatus) error {
	details := map[string]any{"from": from, "to": to}
	if from.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeInvalidTransition, fmt.Sprintf("Order is already %s and can no longer change", from)).
			WithDetails(details)
	}
	if from == to {
		return nil
	}
	if s.strict && !from.IsAdjacent(to) {
		return pkgerrors.New(pkgerrors.CodeInvalidTransition, fmt.Sprintf("Order cannot move from %s to %s", from, to)).
			WithDetails(details)
	}
	return nil
}

// restock gives back what the order still holds, so an order that was
// cancelled, corrected back to an open status and cancelled again returns its
// stock once.
func (s *service) restock(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, actorID uuid.UUID) (bool, error) {
	held, err := repo.HeldStock(ctx, order.ID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load held stock")
	}
	var actor *uuid.UUID
	if actorID != uuid.Nil {
		actor = &actorID
	}
	restocked := false
	for _, line := range order.LineItems {
		quantity := min(line.Quantity, held[line.ProductID])
		if quantity <= 0 {
			continue
		}
		if _, err := s.stock.AdjustStock(ctx, tx, stock.AdjustInput{
			ProductID: line.ProductID,
			Delta:     quantity,
			Reason:    enums.StockMovementOrderCancelled,
			OrderID:   &order.ID,
			ActorID:   actor,
		}); err != nil {
			return false, err
		}
		held[line.ProductID] -= quantity
		restocked = true
	}
	return restocked, nil
}

func (s *service) emitStatusChanged(ctx context.Context, tx *gorm.DB, order *models.Order, previous enums.OrderStatus, actorID uuid.UUID, role enums.UserRole, restocked, correction bool) error {
	var actor *outbox.ActorRef
	if actorID != uuid.Nil {
		actor = &outbox.ActorRef{UserID: actorID, Role: string(role)}
	}
	event := outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor,
		Data: payloads.OrderStatusChangedEvent{
			OrderID:        order.ID,
			PreviousStatus: previous,
			Status:         order.Status,
			Restocked:      restocked,
			Correction:     correction,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order status event")
	}
	return nil
}

// Correct applies a staff edit. Status is written as given, even when the
// lifecycle would refuse it, and stock is left alone.
func (s *service) Correct(ctx context.Context, cmd CorrectionCommand) (*models.Order, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.LockOrder(ctx, cmd.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return orderNotFound()
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		order = loaded
		previous := loaded.Status

		var columns []string
		if cmd.Status != nil {
			order.Status = *cmd.Status
			columns = append(columns, "status")
		}
		if cmd.DeliveryAddress != nil {
			order.DeliveryAddress = strings.TrimSpace(*cmd.DeliveryAddress)
			columns = append(columns, "delivery_address")
		}
		if cmd.TotalAmount != nil {
			order.TotalAmount = money.Round(*cmd.TotalAmount)
			columns = append(columns, "total_amount")
		}
		if err := repo.UpdateColumns(ctx, order, columns...); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}

		if order.Status != previous {
			return s.emitStatusChanged(ctx, tx, order, previous, cmd.ActorID, cmd.ActorRole, false, true)
		}
		return nil
	})
	if err != nil {
		return nil, asTyped(err, "order update failed")
	}
	return order, nil
}

func (c CorrectionCommand) validate() error {
	if c.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if c.Status == nil && c.DeliveryAddress == nil && c.TotalAmount == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "no order fields to update")
	}
	if c.Status != nil && !c.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if c.DeliveryAddress != nil && strings.TrimSpace(*c.DeliveryAddress) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery address must not be empty")
	}
	if c.TotalAmount != nil && c.TotalAmount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "total amount must not be negative")
	}
	return nil
}

// Delete removes the order and its line items. Stock is not returned.
func (s *service) Delete(ctx context.Context, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.LockOrder(ctx, orderID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return orderNotFound()
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if err := repo.DeleteLineItems(ctx, orderID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order items")
		}
		if _, err := repo.DeleteOrder(ctx, orderID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
		}
		return nil
	})
	if err != nil {
		return asTyped(err, "order delete failed")
	}
	s.logg.Info(s.logg.WithOrderID(ctx, orderID.String()), "order deleted")
	return nil
}
