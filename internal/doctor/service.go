// Package doctor serves the doctor directory and profiles
package doctor

import (
	"context"
	"log/slog"

	"github.com/mmcdole/medbook/internal/domain"
	"github.com/mmcdole/medbook/internal/query"
	"github.com/mmcdole/medbook/internal/resource"
)

// Page is one page of the directory
type Page = domain.Page[domain.Doctor]

type profileUpdate struct {
	ID     string
	Update domain.DoctorProfileUpdate
}

// Service provides cached directory reads and profile edits
type Service struct {
	repo   domain.DoctorRepository
	cache  *query.Client
	logger *slog.Logger

	update *query.Mutation[profileUpdate, *domain.Doctor]
}

// NewService creates a new doctor service
func NewService(repo domain.DoctorRepository, cache *query.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{repo: repo, cache: cache, logger: logger}
	s.update = query.NewMutation(cache, func(ctx context.Context, in profileUpdate) (*domain.Doctor, error) {
		return repo.UpdateDoctor(ctx, in.ID, in.Update)
	}, query.MutationOptions[profileUpdate, *domain.Doctor]{
		Name:      "update doctor",
		Resources: []query.Resource{resource.Doctors},
		OnError: func(in profileUpdate, err error) {
			logger.Error("failed to update doctor profile", "id", in.ID, "error", err)
		},
	})
	return s
}

func (s *Service) listFetcher(f domain.ListFilter) query.Fetcher[Page] {
	return func(ctx context.Context) (Page, error) {
		return s.repo.ListDoctors(ctx, f)
	}
}

// List returns one page of the directory
func (s *Service) List(ctx context.Context, f domain.ListFilter) (Page, error) {
	return query.Fetch(ctx, s.cache, resource.DoctorsKey(f), s.listFetcher(f))
}

// ObserveList subscribes to one page of the directory
func (s *Service) ObserveList(f domain.ListFilter, opts ...query.QueryOption) *query.Observer[Page] {
	return query.Observe(s.cache, resource.DoctorsKey(f), s.listFetcher(f), opts...)
}

// Profile returns one doctor
func (s *Service) Profile(ctx context.Context, id string) (*domain.Doctor, error) {
	if id == "" {
		return nil, domain.ErrMissingParam
	}
	return query.Fetch(ctx, s.cache, resource.DoctorKey(id), s.profileFetcher(id))
}

// ObserveProfile subscribes to one doctor; gated off until the id is known
func (s *Service) ObserveProfile(id string, opts ...query.QueryOption) *query.Observer[*domain.Doctor] {
	opts = append([]query.QueryOption{query.Enabled(id != "")}, opts...)
	return query.Observe(s.cache, resource.DoctorKey(id), s.profileFetcher(id), opts...)
}

func (s *Service) profileFetcher(id string) query.Fetcher[*domain.Doctor] {
	return func(ctx context.Context) (*domain.Doctor, error) {
		return s.repo.GetDoctor(ctx, id)
	}
}

// UpdateProfile edits a doctor profile
func (s *Service) UpdateProfile(ctx context.Context, id string, update domain.DoctorProfileUpdate) (*domain.Doctor, error) {
	if id == "" {
		return nil, domain.ErrMissingParam
	}
	return s.update.Mutate(ctx, profileUpdate{ID: id, Update: update})
}
