package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmdesk/farmdesk-backend/internal/stock"
	pkgerrors "github.com/farmdesk/farmdesk-backend/pkg/errors"
	"github.com/farmdesk/farmdesk-backend/pkg/logger"
	"github.com/farmdesk/farmdesk-backend/pkg/pagination"
)

const defaultRecentLimit = 5

// ServiceParams wires the collaborators of the order service.
type ServiceParams struct {
	Repo              Repository
	Tx                txRunner
	Outbox            outboxPublisher
	Gate              profileGate
	Stock             stock.Adjuster
	Metrics           recorder
	Logger            *logger.Logger
	StrictTransitions bool
	RecentLimit       int
}

type service struct {
	repo        Repository
	tx          txRunner
	outbox      outboxPublisher
	gate        profileGate
	assembler   *Assembler
	stock       stock.Adjuster
	metrics     recorder
	logg        *logger.Logger
	strict      bool
	recentLimit int
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Gate == nil {
		return nil, fmt.Errorf("customer profile gate required")
	}
	if params.Stock == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	assembler, err := NewAssembler(params.Repo)
	if err != nil {
		return nil, err
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	recent := params.RecentLimit
	if recent <= 0 {
		recent = defaultRecentLimit
	}
	return &service{
		repo:        params.Repo,
		tx:          params.Tx,
		outbox:      params.Outbox,
		gate:        params.Gate,
		assembler:   assembler,
		stock:       params.Stock,
		metrics:     params.Metrics,
		logg:        logg,
		strict:      params.StrictTransitions,
		recentLimit: recent,
	}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*pagination.Page[OrderView], error) {
	cursor, err := pagination.ParseCursor(input.Params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(input.Params.Limit)
	rows, err := s.repo.ListOrders(ctx, ListFilter{
		OwnerUserID: input.Scope.OwnerUserID,
		Cursor:      cursor,
		Limit:       pagination.LimitWithBuffer(limit),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	page := pagination.Trim(rows, limit, func(v OrderView) pagination.Cursor {
		return pagination.Cursor{CreatedAt: v.CreatedAt, ID: v.ID}
	})
	if err := s.attachItems(ctx, page.Items); err != nil {
		return nil, err
	}
	if page.Items == nil {
		page.Items = []OrderView{}
	}
	return &page, nil
}

func (s *service) Detail(ctx context.Context, input DetailInput) (*OrderView, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	view, err := s.repo.FindOrderView(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, orderNotFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	// other customers' orders are reported as missing
	if owner := input.Scope.OwnerUserID; owner != nil && *owner != view.CustomerUserID {
		return nil, orderNotFound()
	}
	views := []OrderView{*view}
	if err := s.attachItems(ctx, views); err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *service) Recent(ctx context.Context, userID uuid.UUID) ([]RecentOrder, error) {
	customerID, err := s.repo.CustomerIDForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer profile")
	}
	rows, err := s.repo.ListRecent(ctx, customerID, s.recentLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recent orders")
	}
	if rows == nil {
		rows = []RecentOrder{}
	}
	return rows, nil
}

func (s *service) attachItems(ctx context.Context, views []OrderView) error {
	if len(views) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.ID)
	}
	items, err := s.repo.ListItemViews(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order items")
	}
	byOrder := make(map[uuid.UUID][]ItemView, len(views))
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	for i := range views {
		views[i].Items = byOrder[views[i].ID]
		if views[i].Items == nil {
			views[i].Items = []ItemView{}
		}
	}
	return nil
}

func orderNotFound() *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

// asTyped keeps typed errors and hides anything else behind a generic failure.
func asTyped(err error, message string) error {
	if err == nil {
		return nil
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, message)
}
