package appointment

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/mmcdole/medbook/internal/domain"
)

// backend is a minimal in-memory stand-in for the booking API
type backend struct {
	mu    sync.Mutex
	items []domain.Appointment
	next  int
	lists atomic.Int32
}

func newBackend(t *testing.T, seed ...domain.Appointment) (*backend, *httptest.Server) {
	t.Helper()
	b := &backend{items: seed, next: len(seed) + 1}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /appointment", b.list)
	mux.HandleFunc("GET /admin/appointments", b.list)
	mux.HandleFunc("POST /appointment", b.create)
	mux.HandleFunc("POST /appointment/{id}/cancel", b.cancel)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return b, srv
}

func (b *backend) list(w http.ResponseWriter, r *http.Request) {
	b.lists.Add(1)
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = domain.DefaultPageLimit
	}

	b.mu.Lock()
	var matched []domain.Appointment
	for _, a := range b.items {
		if s := q.Get("status"); s != "" && string(a.Status) != s {
			continue
		}
		if p := q.Get("patientId"); p != "" && a.PatientID != p {
			continue
		}
		matched = append(matched, a)
	}
	b.mu.Unlock()

	start := (page - 1) * limit
	end := start + limit
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"data":       append([]domain.Appointment{}, matched[start:end]...),
		"pagination": domain.SyntheticPagination(len(matched), page, limit),
	})
}

func (b *backend) create(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateAppointmentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": err.Error()})
		return
	}
	b.mu.Lock()
	a := domain.Appointment{
		ID:              fmt.Sprintf("a%d", b.next),
		DoctorID:        in.DoctorID,
		PatientID:       in.PatientID,
		AppointmentDate: in.AppointmentDate,
		AppointmentTime: in.AppointmentTime,
		BookingType:     in.BookingType,
		Status:          domain.StatusPending,
	}
	b.next++
	b.items = append(b.items, a)
	b.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "message": "Appointment booked", "data": a})
}

func (b *backend) cancel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items {
		if b.items[i].ID == id {
			if b.items[i].Status != domain.StatusPending {
				writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "only pending appointments can be cancelled"})
				return
			}
			b.items[i].Status = domain.StatusCancelled
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": b.items[i]})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "appointment not found"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
