// Package pharmacy serves the product catalogue and places orders
package pharmacy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmcdole/medbook/internal/domain"
	"github.com/mmcdole/medbook/internal/query"
	"github.com/mmcdole/medbook/internal/resource"
)

// catalogueLimit is the page size used when loading the catalogue for local search
const catalogueLimit = 100

// ErrOutOfStock is returned when a purchase asks for more than the cached stock
var ErrOutOfStock = errors.New("not enough stock")

// Page is one page of products
type Page = domain.Page[domain.Product]

// Service provides cached catalogue reads, local search and purchases
type Service struct {
	products domain.ProductRepository
	cache    *query.Client
	logger   *slog.Logger

	purchase *query.Mutation[domain.CreateOrderInput, *domain.Order]
}

// NewService creates a new pharmacy service
func NewService(products domain.ProductRepository, orders domain.OrderRepository, cache *query.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{products: products, cache: cache, logger: logger}
	s.purchase = query.NewMutation(cache, orders.CreateOrder, query.MutationOptions[domain.CreateOrderInput, *domain.Order]{
		Name: "purchase",
		// orders cover the product prefixes because stock changes
		Resources: []query.Resource{resource.Orders, resource.Notifications},
		OnSuccess: func(in domain.CreateOrderInput, out *domain.Order) {
			logger.Info("order placed", "id", out.ID, "items", len(in.Items))
		},
		OnError: func(in domain.CreateOrderInput, err error) {
			logger.Error("failed to place order", "items", len(in.Items), "error", err)
		},
	})
	return s
}

func (s *Service) listFetcher(f domain.ListFilter) query.Fetcher[Page] {
	return func(ctx context.Context) (Page, error) {
		return s.products.ListProducts(ctx, f)
	}
}

// Products returns one page of the catalogue
func (s *Service) Products(ctx context.Context, f domain.ListFilter) (Page, error) {
	return query.Fetch(ctx, s.cache, resource.ProductsKey(f), s.listFetcher(f))
}

// ObserveProducts subscribes to one page of the catalogue
func (s *Service) ObserveProducts(f domain.ListFilter, opts ...query.QueryOption) *query.Observer[Page] {
	return query.Observe(s.cache, resource.ProductsKey(f), s.listFetcher(f), opts...)
}

// Product returns one product
func (s *Service) Product(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, domain.ErrMissingParam
	}
	return query.Fetch(ctx, s.cache, resource.ProductKey(id), func(ctx context.Context) (*domain.Product, error) {
		return s.products.GetProduct(ctx, id)
	})
}

// Search ranks the cached catalogue against term. The catalogue is loaded
// through the cache, so repeated searches cost no requests while fresh.
func (s *Service) Search(ctx context.Context, term string) ([]domain.Product, error) {
	page, err := s.Products(ctx, domain.ListFilter{Page: 1, Limit: catalogueLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to load catalogue: %w", err)
	}
	return Rank(page.Items, term), nil
}

// Purchase places an order for items. Quantities are checked against the
// cached product when one is available; the server has the final word.
func (s *Service) Purchase(ctx context.Context, items []domain.OrderItem, address string) (*domain.Order, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("no items: %w", domain.ErrMissingParam)
	}
	for _, it := range items {
		if it.ProductID == "" || it.Quantity < 1 {
			return nil, fmt.Errorf("invalid item %q: %w", it.ProductID, domain.ErrMissingParam)
		}
		if p, ok := query.GetData[*domain.Product](s.cache, resource.ProductKey(it.ProductID)); ok && p != nil && !p.InStock(it.Quantity) {
			return nil, fmt.Errorf("%s: %w", p.Name, ErrOutOfStock)
		}
	}
	return s.purchase.Mutate(ctx, domain.CreateOrderInput{Items: items, ShippingAddress: address})
}
