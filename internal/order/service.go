// Package order reads and writes pharmacy orders through the query cache
package order

import (
	"context"
	"log/slog"

	"github.com/mmcdole/medbook/internal/domain"
	"github.com/mmcdole/medbook/internal/query"
	"github.com/mmcdole/medbook/internal/resource"
)

// Page is one page of orders
type Page = domain.Page[domain.Order]

type payment struct {
	ID     string
	Method string
	Fee    float64
}

// Service provides cached order reads and order writes
type Service struct {
	repo   domain.OrderRepository
	cache  *query.Client
	logger *slog.Logger

	pay      *query.Mutation[payment, *domain.Order]
	shipping *query.Mutation[payment, *domain.Order]
	cancel   *query.Mutation[payment, *domain.Order]
}

// NewService creates a new order service
func NewService(repo domain.OrderRepository, cache *query.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{repo: repo, cache: cache, logger: logger}

	opts := func(name string) query.MutationOptions[payment, *domain.Order] {
		return query.MutationOptions[payment, *domain.Order]{
			Name:      name,
			Resources: []query.Resource{resource.Orders, resource.Notifications},
			OnError: func(in payment, err error) {
				logger.Error("order update failed", "action", name, "id", in.ID, "error", err)
			},
		}
	}
	s.pay = query.NewMutation(cache, func(ctx context.Context, in payment) (*domain.Order, error) {
		return repo.PayOrder(ctx, in.ID, in.Method)
	}, opts("pay"))
	s.shipping = query.NewMutation(cache, func(ctx context.Context, in payment) (*domain.Order, error) {
		return repo.SetShippingFee(ctx, in.ID, in.Fee)
	}, opts("shipping"))
	s.cancel = query.NewMutation(cache, func(ctx context.Context, in payment) (*domain.Order, error) {
		return repo.CancelOrder(ctx, in.ID)
	}, opts("cancel"))
	return s
}

func (s *Service) listFetcher(f domain.OrderFilter) query.Fetcher[Page] {
	return func(ctx context.Context) (Page, error) {
		return s.repo.ListOrders(ctx, f)
	}
}

// List returns the caller's orders
func (s *Service) List(ctx context.Context, f domain.OrderFilter) (Page, error) {
	return query.Fetch(ctx, s.cache, resource.OrdersKey(f), s.listFetcher(f))
}

// ObserveList subscribes to the caller's orders
func (s *Service) ObserveList(f domain.OrderFilter, opts ...query.QueryOption) *query.Observer[Page] {
	return query.Observe(s.cache, resource.OrdersKey(f), s.listFetcher(f), opts...)
}

// Get returns one order
func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	if id == "" {
		return nil, domain.ErrMissingParam
	}
	return query.Fetch(ctx, s.cache, resource.OrderKey(id), func(ctx context.Context) (*domain.Order, error) {
		return s.repo.GetOrder(ctx, id)
	})
}

// Pay pays an order with the given method
func (s *Service) Pay(ctx context.Context, id, method string) (*domain.Order, error) {
	if id == "" || method == "" {
		return nil, domain.ErrMissingParam
	}
	return s.pay.Mutate(ctx, payment{ID: id, Method: method})
}

// SetShippingFee sets the shipping fee on an order
func (s *Service) SetShippingFee(ctx context.Context, id string, fee float64) (*domain.Order, error) {
	if id == "" {
		return nil, domain.ErrMissingParam
	}
	return s.shipping.Mutate(ctx, payment{ID: id, Fee: fee})
}

// Cancel cancels an unpaid order
func (s *Service) Cancel(ctx context.Context, id string) (*domain.Order, error) {
	if id == "" {
		return nil, domain.ErrMissingParam
	}
	return s.cancel.Mutate(ctx, payment{ID: id})
}
