package appointment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmcdole/medbook/internal/domain"
	"github.com/mmcdole/medbook/internal/query"
	"github.com/mmcdole/medbook/internal/resource"
)

// Action identifies a status change on an existing appointment
type Action struct {
	ID     string
	Reason string
	Update domain.StatusUpdate
}

// Commands performs appointment writes. Each success invalidates every view of
// appointments, including the admin and per-patient lists.
type Commands struct {
	repo   domain.AppointmentRepository
	logger *slog.Logger

	create *query.Mutation[domain.CreateAppointmentInput, *domain.Appointment]
	accept *query.Mutation[Action, *domain.Appointment]
	reject *query.Mutation[Action, *domain.Appointment]
	cancel *query.Mutation[Action, *domain.Appointment]
	status *query.Mutation[Action, *domain.Appointment]
}

// NewCommands creates a new Commands instance
func NewCommands(repo domain.AppointmentRepository, cache *query.Client, logger *slog.Logger) *Commands {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Commands{repo: repo, logger: logger}

	detail := func(_ Action, out *domain.Appointment) []query.Key {
		if out == nil || out.ID == "" {
			return nil
		}
		return []query.Key{resource.AppointmentKey(out.ID)}
	}
	onError := func(name string) func(Action, error) {
		return func(in Action, err error) {
			logger.Error("appointment update failed", "action", name, "id", in.ID, "error", err)
		}
	}
	opts := func(name string) query.MutationOptions[Action, *domain.Appointment] {
		return query.MutationOptions[Action, *domain.Appointment]{
			Name:      name,
			Resources: []query.Resource{resource.Appointments, resource.Notifications},
			Keys:      detail,
			OnError:   onError(name),
		}
	}

	c.create = query.NewMutation(cache, repo.CreateAppointment, query.MutationOptions[domain.CreateAppointmentInput, *domain.Appointment]{
		Name:      "create appointment",
		Resources: []query.Resource{resource.Appointments, resource.Notifications},
		OnSuccess: func(in domain.CreateAppointmentInput, out *domain.Appointment) {
			logger.Info("appointment booked", "id", out.ID, "doctor", in.DoctorID, "date", in.AppointmentDate)
		},
		OnError: func(in domain.CreateAppointmentInput, err error) {
			logger.Error("failed to book appointment", "doctor", in.DoctorID, "error", err)
		},
	})
	c.accept = query.NewMutation(cache, func(ctx context.Context, in Action) (*domain.Appointment, error) {
		return repo.AcceptAppointment(ctx, in.ID)
	}, opts("accept"))
	c.reject = query.NewMutation(cache, func(ctx context.Context, in Action) (*domain.Appointment, error) {
		return repo.RejectAppointment(ctx, in.ID, in.Reason)
	}, opts("reject"))
	c.cancel = query.NewMutation(cache, func(ctx context.Context, in Action) (*domain.Appointment, error) {
		return repo.CancelAppointment(ctx, in.ID, in.Reason)
	}, opts("cancel"))
	c.status = query.NewMutation(cache, func(ctx context.Context, in Action) (*domain.Appointment, error) {
		return repo.UpdateAppointmentStatus(ctx, in.ID, in.Update)
	}, opts("status"))
	return c
}

// Create books an appointment
func (c *Commands) Create(ctx context.Context, in domain.CreateAppointmentInput) (*domain.Appointment, error) {
	if in.DoctorID == "" || in.AppointmentDate == "" {
		return nil, fmt.Errorf("doctor and date are required: %w", domain.ErrMissingParam)
	}
	if in.BookingType == "" {
		in.BookingType = domain.BookingVisit
	}
	return c.create.Mutate(ctx, in)
}

// Accept confirms a pending appointment
func (c *Commands) Accept(ctx context.Context, id string) (*domain.Appointment, error) {
	return c.run(ctx, c.accept, Action{ID: id})
}

// Reject declines a pending appointment
func (c *Commands) Reject(ctx context.Context, id, reason string) (*domain.Appointment, error) {
	return c.run(ctx, c.reject, Action{ID: id, Reason: reason})
}

// Cancel cancels a booking
func (c *Commands) Cancel(ctx context.Context, id, reason string) (*domain.Appointment, error) {
	return c.run(ctx, c.cancel, Action{ID: id, Reason: reason})
}

// UpdateStatus changes status and payment fields
func (c *Commands) UpdateStatus(ctx context.Context, id string, update domain.StatusUpdate) (*domain.Appointment, error) {
	return c.run(ctx, c.status, Action{ID: id, Update: update})
}

// Pending returns the number of writes in flight
func (c *Commands) Pending() int {
	return c.create.Pending() + c.accept.Pending() + c.reject.Pending() + c.cancel.Pending() + c.status.Pending()
}

func (c *Commands) run(ctx context.Context, m *query.Mutation[Action, *domain.Appointment], in Action) (*domain.Appointment, error) {
	if in.ID == "" {
		return nil, domain.ErrMissingParam
	}
	return m.Mutate(ctx, in)
}
