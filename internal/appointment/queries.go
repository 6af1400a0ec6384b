package appointment

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mmcdole/medbook/internal/domain"
	"github.com/mmcdole/medbook/internal/query"
	"github.com/mmcdole/medbook/internal/resource"
	"golang.org/x/sync/errgroup"
)

// Page is one page of appointments
type Page = domain.Page[domain.Appointment]

// Queries provides cached reads of appointments
type Queries struct {
	repo   domain.AppointmentRepository
	cache  *query.Client
	logger *slog.Logger
}

// NewQueries creates a new Queries instance
func NewQueries(repo domain.AppointmentRepository, cache *query.Client, logger *slog.Logger) *Queries {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queries{repo: repo, cache: cache, logger: logger}
}

func (q *Queries) listFetcher(f domain.AppointmentFilter) query.Fetcher[Page] {
	return func(ctx context.Context) (Page, error) {
		return q.repo.ListAppointments(ctx, f)
	}
}

// List returns the caller's appointments matching f
func (q *Queries) List(ctx context.Context, f domain.AppointmentFilter) (Page, error) {
	return query.Fetch(ctx, q.cache, resource.AppointmentsKey(f), q.listFetcher(f))
}

// ObserveList subscribes to the caller's appointments matching f
func (q *Queries) ObserveList(f domain.AppointmentFilter, opts ...query.QueryOption) *query.Observer[Page] {
	return query.Observe(q.cache, resource.AppointmentsKey(f), q.listFetcher(f), opts...)
}

// Get returns one appointment. An empty id never reaches the network.
func (q *Queries) Get(ctx context.Context, id string) (*domain.Appointment, error) {
	if id == "" {
		return nil, domain.ErrMissingParam
	}
	return query.Fetch(ctx, q.cache, resource.AppointmentKey(id), q.detailFetcher(id))
}

// ObserveDetail subscribes to one appointment; gated off until id is known
func (q *Queries) ObserveDetail(id string, opts ...query.QueryOption) *query.Observer[*domain.Appointment] {
	opts = append([]query.QueryOption{query.Enabled(id != "")}, opts...)
	return query.Observe(q.cache, resource.AppointmentKey(id), q.detailFetcher(id), opts...)
}

func (q *Queries) detailFetcher(id string) query.Fetcher[*domain.Appointment] {
	return func(ctx context.Context) (*domain.Appointment, error) {
		return q.repo.GetAppointment(ctx, id)
	}
}

// ForPatient returns a patient's appointments as seen by staff
func (q *Queries) ForPatient(ctx context.Context, patientID string, f domain.AppointmentFilter) (Page, error) {
	if patientID == "" {
		return Page{}, domain.ErrMissingParam
	}
	f.PatientID = patientID
	return query.Fetch(ctx, q.cache, resource.PatientAppointmentsKey(patientID, f), q.listFetcher(f))
}

// ForDoctor returns a doctor's schedule
func (q *Queries) ForDoctor(ctx context.Context, doctorID string, f domain.AppointmentFilter) (Page, error) {
	if doctorID == "" {
		return Page{}, domain.ErrMissingParam
	}
	f.DoctorID = doctorID
	return query.Fetch(ctx, q.cache, resource.DoctorAppointmentsKey(doctorID, f), q.listFetcher(f))
}

// StatusCounts returns the number of appointments per status. One limit=1 query
// per status is issued in parallel and only its pagination total is read.
func (q *Queries) StatusCounts(ctx context.Context) (map[domain.AppointmentStatus]int, error) {
	statuses := []domain.AppointmentStatus{
		domain.StatusPending,
		domain.StatusConfirmed,
		domain.StatusCompleted,
		domain.StatusCancelled,
		domain.StatusRejected,
	}

	var mu sync.Mutex
	counts := make(map[domain.AppointmentStatus]int, len(statuses))

	g, gctx := errgroup.WithContext(ctx)
	for _, status := range statuses {
		g.Go(func() error {
			page, err := q.List(gctx, domain.AppointmentFilter{Status: status, Page: 1, Limit: 1})
			if err != nil {
				return err
			}
			mu.Lock()
			counts[status] = page.Pagination.Total
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		q.logger.Error("failed to count appointments", "error", err)
		return nil, err
	}
	return counts, nil
}

// Tab returns one page of a list tab: every status in the tab fetched in
// parallel, merged and ordered newest first
func (q *Queries) Tab(ctx context.Context, tab Tab, page, limit int) (Page, error) {
	return q.TabAggregate(tab, page, limit).Run(ctx, q.cache)
}

// TabAggregate builds the fan-out behind Tab. Each status is cached under its
// own list key, so switching back to a tab reuses the earlier results.
func (q *Queries) TabAggregate(tab Tab, page, limit int) query.Aggregate[domain.Appointment] {
	if limit < 1 {
		limit = domain.DefaultPageLimit
	}
	if page < 1 {
		page = 1
	}
	agg := query.Aggregate[domain.Appointment]{
		Less:  NewestFirst,
		Page:  page,
		Limit: limit,
	}
	for _, status := range tab.Statuses() {
		f := domain.AppointmentFilter{Status: status, Page: page, Limit: limit}
		agg.Sources = append(agg.Sources, query.Source[domain.Appointment]{
			Key:   resource.AppointmentsKey(f),
			Fetch: q.listFetcher(f),
		})
	}
	return agg
}
