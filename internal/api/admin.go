package api

import (
	"context"
	"net/http"

	"github.com/mmcdole/medbook/internal/domain"
)

// Stats returns the admin dashboard summary
func (c *Client) Stats(ctx context.Context) (*domain.AdminStats, error) {
	var out domain.AdminStats
	if err := c.Do(ctx, http.MethodGet, RouteAdminStats, nil, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUsers returns one page of accounts
func (c *Client) ListUsers(ctx context.Context, filter domain.ListFilter) (domain.Page[domain.User], error) {
	return list[domain.User](ctx, c, RouteAdminUsers, nil, filter.Values())
}

// ListAllAppointments returns appointments across all users
func (c *Client) ListAllAppointments(ctx context.Context, filter domain.AppointmentFilter) (domain.Page[domain.Appointment], error) {
	return list[domain.Appointment](ctx, c, RouteAdminAppointments, nil, filter.Values())
}

// SetUserActive activates or deactivates an account
func (c *Client) SetUserActive(ctx context.Context, id string, active bool) (*domain.User, error) {
	body := struct {
		Active bool `json:"active"`
	}{active}
	var out domain.User
	if err := c.Do(ctx, http.MethodPut, RouteAdminUserStatus, Params{"id": id}, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteUser removes an account
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, RouteAdminUser, Params{"id": id}, nil, nil, nil)
}
