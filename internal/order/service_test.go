package order

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

func TestPayInvalidatesOrders(t *testing.T) {
	var status atomic.Value
	status.Store(domain.OrderPending)
	var lists, pays atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders", func(w http.ResponseWriter, r *http.Request) {
		lists.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    []domain.Order{{ID: "o1", Status: status.Load().(domain.OrderStatus)}},
		})
	})
	mux.HandleFunc("POST /orders/{id}/pay", func(w http.ResponseWriter, r *http.Request) {
		pays.Add(1)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "card", body["paymentMethod"])
		status.Store(domain.OrderPaid)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": domain.Order{ID: r.PathValue("id"), Status: domain.OrderPaid}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cache := query.New(query.WithStaleTime(time.Hour), query.WithDependencies(resource.Dependencies()))
	defer cache.Close()
	svc := NewService(api.NewClient(srv.URL), cache, nil)
	ctx := context.Background()

	page, err := svc.List(ctx, domain.OrderFilter{})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPending, page.Items[0].Status)

	paid, err := svc.Pay(ctx, "o1", "card")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPaid, paid.Status)

	page, err = svc.List(ctx, domain.OrderFilter{})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPaid, page.Items[0].Status)
	assert.EqualValues(t, 2, lists.Load())
	assert.EqualValues(t, 1, pays.Load())

	_, err = svc.Pay(ctx, "o1", "")
	assert.ErrorIs(t, err, domain.ErrMissingParam)
}
