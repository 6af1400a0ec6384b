package api

import (
	"context"
	"net/http"

	"github.com/mmcdole/medbook/internal/domain"
)

// ListAppointments returns one page of appointments matching filter
func (c *Client) ListAppointments(ctx context.Context, filter domain.AppointmentFilter) (domain.Page[domain.Appointment], error) {
	return list[domain.Appointment](ctx, c, RouteAppointments, nil, filter.Values())
}

// GetAppointment fetches one appointment
func (c *Client) GetAppointment(ctx context.Context, id string) (*domain.Appointment, error) {
	var out domain.Appointment
	if err := c.Do(ctx, http.MethodGet, RouteAppointment, Params{"id": id}, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateAppointment books a new appointment
func (c *Client) CreateAppointment(ctx context.Context, in domain.CreateAppointmentInput) (*domain.Appointment, error) {
	var out domain.Appointment
	if err := c.Do(ctx, http.MethodPost, RouteAppointments, nil, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AcceptAppointment confirms a pending appointment (doctor)
func (c *Client) AcceptAppointment(ctx context.Context, id string) (*domain.Appointment, error) {
	return c.appointmentAction(ctx, RouteAppointmentAccept, id, struct{}{})
}

// RejectAppointment declines a pending appointment (doctor)
func (c *Client) RejectAppointment(ctx context.Context, id, reason string) (*domain.Appointment, error) {
	return c.appointmentAction(ctx, RouteAppointmentReject, id, reasonBody{Reason: reason})
}

// CancelAppointment cancels a booking (patient)
func (c *Client) CancelAppointment(ctx context.Context, id, reason string) (*domain.Appointment, error) {
	return c.appointmentAction(ctx, RouteAppointmentCancel, id, reasonBody{Reason: reason})
}

// UpdateAppointmentStatus changes status and payment fields
func (c *Client) UpdateAppointmentStatus(ctx context.Context, id string, update domain.StatusUpdate) (*domain.Appointment, error) {
	var out domain.Appointment
	if err := c.Do(ctx, http.MethodPut, RouteAppointmentStatus, Params{"id": id}, nil, update, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type reasonBody struct {
	Reason string `json:"reason,omitempty"`
}

func (c *Client) appointmentAction(ctx context.Context, route, id string, body any) (*domain.Appointment, error) {
	var out domain.Appointment
	if err := c.Do(ctx, http.MethodPost, route, Params{"id": id}, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
