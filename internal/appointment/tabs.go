package appointment

import (
	"sync"

	"github.com/mmcdole/medbook/internal/domain"
	"github.com/mmcdole/medbook/internal/query"
)

// Tab is one of the appointment list views
type Tab int

const (
	Upcoming Tab = iota
	Cancelled
	Completed
)

// AllTabs lists every tab in display order
var AllTabs = []Tab{Upcoming, Cancelled, Completed}

func (t Tab) String() string {
	switch t {
	case Cancelled:
		return "Cancelled"
	case Completed:
		return "Completed"
	default:
		return "Upcoming"
	}
}

// Statuses returns the appointment statuses merged into the tab
func (t Tab) Statuses() []domain.AppointmentStatus {
	switch t {
	case Cancelled:
		return []domain.AppointmentStatus{domain.StatusCancelled, domain.StatusRejected}
	case Completed:
		return []domain.AppointmentStatus{domain.StatusCompleted}
	default:
		return []domain.AppointmentStatus{domain.StatusPending, domain.StatusConfirmed}
	}
}

// ParseTab maps a tab name to a Tab
func ParseTab(name string) (Tab, bool) {
	switch name {
	case "upcoming", "Upcoming":
		return Upcoming, true
	case "cancelled", "Cancelled", "canceled":
		return Cancelled, true
	case "completed", "Completed":
		return Completed, true
	}
	return Upcoming, false
}

// NewestFirst orders by date descending, then time descending.
// Dates are YYYY-MM-DD and times HH:MM, so string order is chronological.
func NewestFirst(a, b domain.Appointment) bool {
	if a.AppointmentDate != b.AppointmentDate {
		return a.AppointmentDate > b.AppointmentDate
	}
	return a.AppointmentTime > b.AppointmentTime
}

// Tabs tracks the selected tab and page of a list view
type Tabs struct {
	mu    sync.Mutex
	tab   Tab
	page  int
	limit int
}

// NewTabs starts on the first page of the upcoming tab
func NewTabs(limit int) *Tabs {
	if limit < 1 {
		limit = domain.DefaultPageLimit
	}
	return &Tabs{tab: Upcoming, page: 1, limit: limit}
}

// Select switches tab and resets to page 1
func (s *Tabs) Select(tab Tab) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tab = tab
	s.page = 1
}

// Next advances a page unless already on the last of pages
func (s *Tabs) Next(pages int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page >= pages {
		return false
	}
	s.page++
	return true
}

// Prev goes back a page unless on the first
func (s *Tabs) Prev() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page <= 1 {
		return false
	}
	s.page--
	return true
}

// Current returns the selected tab, page and limit
func (s *Tabs) Current() (Tab, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tab, s.page, s.limit
}

// Aggregate builds the fan-out for the current tab and page
func (s *Tabs) Aggregate(q *Queries) query.Aggregate[domain.Appointment] {
	tab, page, limit := s.Current()
	return q.TabAggregate(tab, page, limit)
}
