package api

import (
	"context"
	"net/http"

	"github.com/mmcdole/medbook/internal/domain"
)

// ListProducts returns one page of the pharmacy catalogue
func (c *Client) ListProducts(ctx context.Context, filter domain.ListFilter) (domain.Page[domain.Product], error) {
	return list[domain.Product](ctx, c, RouteProducts, nil, filter.Values())
}

// GetProduct fetches one product
func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var out domain.Product
	if err := c.Do(ctx, http.MethodGet, RouteProduct, Params{"id": id}, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
