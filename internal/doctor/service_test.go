package doctor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mmcdole/medbook/internal/api"
	"github.com/mmcdole/medbook/internal/domain"
	"github.com/mmcdole/medbook/internal/query"
	"github.com/mmcdole/medbook/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileGateAndUpdate(t *testing.T) {
	var fee atomic.Int64
	fee.Store(50)
	var gets atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET /doctors/{id}", func(w http.ResponseWriter, r *http.Request) {
		gets.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": domain.Doctor{ID: r.PathValue("id"), Fee: float64(fee.Load())}})
	})
	mux.HandleFunc("PUT /doctors/{id}", func(w http.ResponseWriter, r *http.Request) {
		var in domain.DoctorProfileUpdate
		_ = json.NewDecoder(r.Body).Decode(&in)
		fee.Store(int64(in.Fee))
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": domain.Doctor{ID: r.PathValue("id"), Fee: in.Fee}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cache := query.New(query.WithStaleTime(time.Hour), query.WithDependencies(resource.Dependencies()))
	defer cache.Close()
	svc := NewService(api.NewClient(srv.URL), cache, nil)

	// id not known yet: the gated profile stays idle
	unknown := svc.ObserveProfile("")
	defer unknown.Close()
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, gets.Load())

	profile := svc.ObserveProfile("d1")
	defer profile.Close()
	require.Eventually(t, func() bool {
		st := profile.State()
		return st.HasData && st.Data.Fee == 50
	}, time.Second, 5*time.Millisecond)

	_, err := svc.UpdateProfile(context.Background(), "d1", domain.DoctorProfileUpdate{Fee: 80})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return profile.State().Data.Fee == 80 }, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 2, gets.Load())
}
