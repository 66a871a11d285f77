package order

import (
	"context"
	"fmt"
	"strings"

	"batipro/internal/domain"
	orderrepo "batipro/internal/repository/order"
	"go.uber.org/zap"
)

// transitions lists the statuses an order may move to from each status.
var transitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderPending:   {domain.OrderPaid, domain.OrderCancelled},
	domain.OrderPaid:      {domain.OrderShipped, domain.OrderDelivered, domain.OrderCancelled},
	domain.OrderShipped:   {domain.OrderDelivered},
	domain.OrderDelivered: {},
	domain.OrderCancelled: {},
}

// Page is one slice of the admin order listing.
type Page struct {
	Orders []domain.Order `json:"orders"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type Service struct {
	repo   orderrepo.Repository
	logger *zap.Logger
}

func New(repo orderrepo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger.Named("order_service")}
}

func (s *Service) List(ctx context.Context, f orderrepo.ListFilter) (*Page, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalid, f.Status)
	}
	f.Email = strings.TrimSpace(f.Email)
	orders, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return &Page{Orders: orders, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	return s.repo.Get(ctx, id)
}

// UpdateStatus moves an order along its lifecycle. Setting the current
// status again is a no-op.
func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalid, status)
	}
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status == status {
		return o, nil
	}
	if !allowed(o.Status, status) {
		return nil, fmt.Errorf("%w: cannot move order from %s to %s", domain.ErrInvalid, o.Status, status)
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	s.logger.Info("order status changed", zap.String("order_id", id), zap.String("from", string(o.Status)), zap.String("to", string(status)))
	o.Status = status
	return o, nil
}

func allowed(from, to domain.OrderStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
