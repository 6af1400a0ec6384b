package pharmacy

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

var catalogue = []domain.Product{
	{ID: "p1", Name: "Paracetamol 500mg", Category: "pain", Stock: 10},
	{ID: "p2", Name: "Ibuprofen", Category: "pain", Stock: 1},
	{ID: "p3", Name: "Vitamin C", Category: "supplements", Stock: 50},
	{ID: "p4", Name: "Para", Category: "misc", Stock: 5},
}

func TestRank(t *testing.T) {
	got := Rank(catalogue, "para")
	require.Len(t, got, 2)
	assert.Equal(t, "p4", got[0].ID)
	assert.Equal(t, "p1", got[1].ID)

	got = Rank(catalogue, "vtmn")
	require.Len(t, got, 1)
	assert.Equal(t, "p3", got[0].ID)

	got = Rank(catalogue, "pain")
	assert.Len(t, got, 2)

	assert.Len(t, Rank(catalogue, "  "), len(catalogue))
	assert.Empty(t, Rank(catalogue, "zzz"))
}

func TestSearchUsesCachedCatalogueAndPurchaseInvalidatesIt(t *testing.T) {
	var lists, creates atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /products", func(w http.ResponseWriter, r *http.Request) {
		lists.Add(1)
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": catalogue})
	})
	mux.HandleFunc("GET /products/{id}", func(w http.ResponseWriter, r *http.Request) {
		for _, p := range catalogue {
			if p.ID == r.PathValue("id") {
				_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": p})
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("POST /orders", func(w http.ResponseWriter, r *http.Request) {
		creates.Add(1)
		var in domain.CreateOrderInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": domain.Order{ID: "o1", Items: in.Items, Status: domain.OrderPending}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cache := query.New(query.WithStaleTime(time.Hour), query.WithDependencies(resource.Dependencies()))
	defer cache.Close()
	client := api.NewClient(srv.URL)
	svc := NewService(client, client, cache, nil)
	ctx := context.Background()

	for _, term := range []string{"para", "ibu", "vit"} {
		_, err := svc.Search(ctx, term)
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, lists.Load())

	_, err := svc.Product(ctx, "p2")
	require.NoError(t, err)
	_, err = svc.Purchase(ctx, []domain.OrderItem{{ProductID: "p2", Quantity: 3}}, "")
	require.ErrorIs(t, err, ErrOutOfStock)
	assert.Zero(t, creates.Load())

	order, err := svc.Purchase(ctx, []domain.OrderItem{{ProductID: "p1", Quantity: 2}}, "1 Main St")
	require.NoError(t, err)
	assert.Equal(t, "o1", order.ID)

	_, err = svc.Search(ctx, "para")
	require.NoError(t, err)
	assert.EqualValues(t, 2, lists.Load(), "purchase did not invalidate the catalogue")
}
