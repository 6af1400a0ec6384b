package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmcdole/medbook/internal/api"
	"github.com/mmcdole/medbook/internal/domain"
	"github.com/mmcdole/medbook/internal/query"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ api.Recorder   = (*Recorder)(nil)
	_ query.Recorder = (*Recorder)(nil)
)

func TestObserveRequest(t *testing.T) {
	rec := NewRecorder(nil)
	rec.ObserveRequest("/appointment/:id", "GET", 200, 250*time.Millisecond)
	rec.ObserveRequest("/appointment/:id", "GET", 0, time.Millisecond)

	families := gather(t, rec, "medbook_api_requests_total", "medbook_api_request_duration_seconds")

	ok := findMetric(t, families["medbook_api_requests_total"], map[string]string{
		"route": "/appointment/:id", "method": "GET", "status_code": "200",
	})
	assert.Equal(t, 1.0, ok.GetCounter().GetValue())

	failed := findMetric(t, families["medbook_api_requests_total"], map[string]string{
		"route": "/appointment/:id", "method": "GET", "status_code": "network_error",
	})
	assert.Equal(t, 1.0, failed.GetCounter().GetValue())

	hist := findMetric(t, families["medbook_api_request_duration_seconds"], map[string]string{
		"route": "/appointment/:id", "method": "GET",
	}).GetHistogram()
	require.NotNil(t, hist)
	assert.EqualValues(t, 2, hist.GetSampleCount())
	assert.InDelta(t, 0.251, hist.GetSampleSum(), 0.001)
}

func TestObserveInvalidation(t *testing.T) {
	rec := NewRecorder(nil)
	rec.ObserveInvalidation("appointments", 3)
	rec.ObserveInvalidation("appointments", 0)

	families := gather(t, rec, "medbook_query_invalidations_total", "medbook_query_invalidated_entries_total")
	calls := findMetric(t, families["medbook_query_invalidations_total"], map[string]string{"tag": "appointments"})
	assert.Equal(t, 2.0, calls.GetCounter().GetValue())
	entries := findMetric(t, families["medbook_query_invalidated_entries_total"], map[string]string{"tag": "appointments"})
	assert.Equal(t, 3.0, entries.GetCounter().GetValue())
}

func TestNilRecorder(t *testing.T) {
	var rec *Recorder
	assert.NotPanics(t, func() {
		rec.ObserveRequest("/x", "GET", 200, time.Second)
		rec.ObserveLookup("x", query.LookupHit)
		rec.ObserveFetch("x", query.FetchSuccess, time.Second)
		rec.ObserveInvalidation("x", 1)
	})

	rr := httptest.NewRecorder()
	rec.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestRecorderWiredThroughClients(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"totalUsers":4}}`))
	}))
	defer srv.Close()

	rec := NewRecorder(nil)
	apiClient := api.NewClient(srv.URL, api.WithRecorder(rec))
	cache := query.New(query.WithStaleTime(time.Hour), query.WithRecorder(rec))
	defer cache.Close()

	key := query.K("admin", "stats")
	fetch := func(ctx context.Context) (*domain.AdminStats, error) { return apiClient.Stats(ctx) }
	for range 2 {
		_, err := query.Fetch(context.Background(), cache, key, fetch)
		require.NoError(t, err)
	}

	families := gather(t, rec, "medbook_api_requests_total", "medbook_query_lookups_total", "medbook_query_fetches_total")
	assert.Equal(t, 1.0, findMetric(t, families["medbook_api_requests_total"], map[string]string{
		"route": api.RouteAdminStats, "status_code": "200",
	}).GetCounter().GetValue())
	assert.Equal(t, 1.0, findMetric(t, families["medbook_query_lookups_total"], map[string]string{
		"tag": "admin", "result": query.LookupMiss,
	}).GetCounter().GetValue())
	assert.Equal(t, 1.0, findMetric(t, families["medbook_query_lookups_total"], map[string]string{
		"tag": "admin", "result": query.LookupHit,
	}).GetCounter().GetValue())
	assert.Equal(t, 1.0, findMetric(t, families["medbook_query_fetches_total"], map[string]string{
		"tag": "admin", "outcome": query.FetchSuccess,
	}).GetCounter().GetValue())

	rr := httptest.NewRecorder()
	rec.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "medbook_query_fetch_duration_seconds")
}

func gather(t *testing.T, rec *Recorder, names ...string) map[string][]*dto.Metric {
	t.Helper()
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}
	families, err := rec.Gatherer().Gather()
	require.NoError(t, err)

	collected := make(map[string][]*dto.Metric, len(names))
	for _, mf := range families {
		if wanted[mf.GetName()] {
			collected[mf.GetName()] = append(collected[mf.GetName()], mf.GetMetric()...)
		}
	}
	for _, name := range names {
		require.NotEmpty(t, collected[name], "metric %q not collected", name)
	}
	return collected
}

func findMetric(t *testing.T, metrics []*dto.Metric, labels map[string]string) *dto.Metric {
	t.Helper()
	for _, metric := range metrics {
		if matchLabels(metric, labels) {
			return metric
		}
	}
	require.FailNow(t, "metric not found", "labels %v", labels)
	return nil
}

func matchLabels(metric *dto.Metric, labels map[string]string) bool {
	for key, expected := range labels {
		found := false
		for _, label := range metric.GetLabel() {
			if label.GetName() == key && label.GetValue() == expected {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
