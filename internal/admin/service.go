// Package admin serves the admin panel: dashboard stats, accounts and every appointment
package admin

import (
	"context"
	"log/slog"

	"github.com/mmcdole/medbook/internal/domain"
	"github.com/mmcdole/medbook/internal/query"
	"github.com/mmcdole/medbook/internal/resource"
)

type userStatus struct {
	ID     string
	Active bool
}

// Service provides cached admin reads and account management
type Service struct {
	repo   domain.AdminRepository
	cache  *query.Client
	logger *slog.Logger

	setActive *query.Mutation[userStatus, *domain.User]
	remove    *query.Mutation[string, struct{}]
}

// NewService creates a new admin service
func NewService(repo domain.AdminRepository, cache *query.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{repo: repo, cache: cache, logger: logger}

	s.setActive = query.NewMutation(cache, func(ctx context.Context, in userStatus) (*domain.User, error) {
		return repo.SetUserActive(ctx, in.ID, in.Active)
	}, query.MutationOptions[userStatus, *domain.User]{
		Name:      "set user status",
		Resources: []query.Resource{resource.Users},
		OnSuccess: func(in userStatus, _ *domain.User) {
			logger.Info("user status changed", "id", in.ID, "active", in.Active)
		},
		OnError: func(in userStatus, err error) {
			logger.Error("failed to change user status", "id", in.ID, "error", err)
		},
	})
	s.remove = query.NewMutation(cache, func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, repo.DeleteUser(ctx, id)
	}, query.MutationOptions[string, struct{}]{
		Name: "delete user",
		// a deleted account takes its appointments with it
		Resources: []query.Resource{resource.Users, resource.Appointments},
		OnError: func(id string, err error) {
			logger.Error("failed to delete user", "id", id, "error", err)
		},
	})
	return s
}

// Stats returns the dashboard summary
func (s *Service) Stats(ctx context.Context) (*domain.AdminStats, error) {
	return query.Fetch(ctx, s.cache, resource.AdminStatsKey(), s.repo.Stats)
}

// ObserveStats subscribes to the dashboard summary
func (s *Service) ObserveStats(opts ...query.QueryOption) *query.Observer[*domain.AdminStats] {
	return query.Observe(s.cache, resource.AdminStatsKey(), s.repo.Stats, opts...)
}

// Users returns one page of accounts
func (s *Service) Users(ctx context.Context, f domain.ListFilter) (domain.Page[domain.User], error) {
	return query.Fetch(ctx, s.cache, resource.AdminUsersKey(f), func(ctx context.Context) (domain.Page[domain.User], error) {
		return s.repo.ListUsers(ctx, f)
	})
}

// Appointments returns appointments across all users
func (s *Service) Appointments(ctx context.Context, f domain.AppointmentFilter) (domain.Page[domain.Appointment], error) {
	return query.Fetch(ctx, s.cache, resource.AdminAppointmentsKey(f), func(ctx context.Context) (domain.Page[domain.Appointment], error) {
		return s.repo.ListAllAppointments(ctx, f)
	})
}

// SetUserActive activates or deactivates an account
func (s *Service) SetUserActive(ctx context.Context, id string, active bool) (*domain.User, error) {
	if id == "" {
		return nil, domain.ErrMissingParam
	}
	return s.setActive.Mutate(ctx, userStatus{ID: id, Active: active})
}

// DeleteUser removes an account
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrMissingParam
	}
	_, err := s.remove.Mutate(ctx, id)
	return err
}
