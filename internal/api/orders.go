package api

import (
	"context"
	"net/http"

	"github.com/mmcdole/medbook/internal/domain"
)

// ListOrders returns one page of the caller's orders
func (c *Client) ListOrders(ctx context.Context, filter domain.OrderFilter) (domain.Page[domain.Order], error) {
	return list[domain.Order](ctx, c, RouteOrders, nil, filter.Values())
}

// GetOrder fetches one order
func (c *Client) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return c.orderCall(ctx, http.MethodGet, RouteOrder, id, nil)
}

// CreateOrder places a pharmacy order
func (c *Client) CreateOrder(ctx context.Context, in domain.CreateOrderInput) (*domain.Order, error) {
	var out domain.Order
	if err := c.Do(ctx, http.MethodPost, RouteOrders, nil, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PayOrder pays an order. Payment processing happens server-side.
func (c *Client) PayOrder(ctx context.Context, id, paymentMethod string) (*domain.Order, error) {
	body := struct {
		PaymentMethod string `json:"paymentMethod"`
	}{paymentMethod}
	return c.orderCall(ctx, http.MethodPost, RouteOrderPay, id, body)
}

// SetShippingFee sets the shipping fee on an order (admin)
func (c *Client) SetShippingFee(ctx context.Context, id string, fee float64) (*domain.Order, error) {
	body := struct {
		ShippingFee float64 `json:"shippingFee"`
	}{fee}
	return c.orderCall(ctx, http.MethodPut, RouteOrderShipping, id, body)
}

// CancelOrder cancels an unpaid order
func (c *Client) CancelOrder(ctx context.Context, id string) (*domain.Order, error) {
	return c.orderCall(ctx, http.MethodPost, RouteOrderCancel, id, struct{}{})
}

func (c *Client) orderCall(ctx context.Context, method, route, id string, body any) (*domain.Order, error) {
	var out domain.Order
	if err := c.Do(ctx, method, route, Params{"id": id}, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
