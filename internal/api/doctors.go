package api

import (
	"context"
	"net/http"

	"github.com/mmcdole/medbook/internal/domain"
)

// ListDoctors returns one page of the doctor directory
func (c *Client) ListDoctors(ctx context.Context, filter domain.ListFilter) (domain.Page[domain.Doctor], error) {
	return list[domain.Doctor](ctx, c, RouteDoctors, nil, filter.Values())
}

// GetDoctor fetches a doctor profile
func (c *Client) GetDoctor(ctx context.Context, id string) (*domain.Doctor, error) {
	var out domain.Doctor
	if err := c.Do(ctx, http.MethodGet, RouteDoctor, Params{"id": id}, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateDoctor edits a doctor profile
func (c *Client) UpdateDoctor(ctx context.Context, id string, update domain.DoctorProfileUpdate) (*domain.Doctor, error) {
	var out domain.Doctor
	if err := c.Do(ctx, http.MethodPut, RouteDoctor, Params{"id": id}, nil, update, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
