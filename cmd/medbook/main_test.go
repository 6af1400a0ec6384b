package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/mmcdole/medbook/internal/config"
	"github.com/mmcdole/medbook/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	mu    sync.Mutex
	calls []string
	body  map[string]map[string]any
}

func (r *recorded) add(req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := req.Method + " " + req.URL.Path
	r.calls = append(r.calls, key)
	b, _ := io.ReadAll(req.Body)
	var body map[string]any
	if json.Unmarshal(b, &body) == nil {
		r.body[key] = body
	}
}

func newTestApp(t *testing.T, routes map[string]string) (*app, *bytes.Buffer, *recorded) {
	t.Helper()
	rec := &recorded{body: make(map[string]map[string]any)}
	mux := http.NewServeMux()
	for pattern, body := range routes {
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			rec.add(r)
			_, _ = w.Write([]byte(body))
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.API.BaseURL = srv.URL
	cfg.Storage.DataDir = t.TempDir()
	cfg.Cache.Persist = false

	a, err := newApp(cfg, log.NullLogger())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	var out bytes.Buffer
	a.out = &out
	require.NoError(t, a.auth.Session().Begin("tok-1", "refresh-1"))
	return a, &out, rec
}

func TestParseIDAcceptsFlagsAroundID(t *testing.T) {
	for _, args := range [][]string{
		{"a1", "--reason", "busy"},
		{"--reason", "busy", "a1"},
	} {
		fs := flag.NewFlagSet("reject", flag.ContinueOnError)
		reason := fs.String("reason", "", "")
		id, err := parseID(fs, args)
		require.NoError(t, err)
		assert.Equal(t, "a1", id)
		assert.Equal(t, "busy", *reason)
	}

	_, err := parseID(flag.NewFlagSet("accept", flag.ContinueOnError), nil)
	assert.ErrorContains(t, err, "usage: medbook accept")

	_, err = parseID(flag.NewFlagSet("accept", flag.ContinueOnError), []string{"a1", "a2"})
	assert.ErrorContains(t, err, `unexpected argument "a2"`)
}

func TestDoctorActionsReachServer(t *testing.T) {
	a, out, rec := newTestApp(t, map[string]string{
		"POST /appointment/{id}/accept": `{"success":true,"data":{"id":"a1","status":"CONFIRMED"}}`,
		"POST /appointment/{id}/reject": `{"success":true,"data":{"id":"a2","status":"REJECTED"}}`,
		"PUT /appointment/{id}/status":  `{"success":true,"data":{"id":"a3","status":"COMPLETED"}}`,
	})
	ctx := context.Background()

	require.NoError(t, a.dispatch(ctx, "accept", []string{"a1"}))
	require.NoError(t, a.dispatch(ctx, "reject", []string{"a2", "--reason", "fully booked"}))
	require.NoError(t, a.dispatch(ctx, "status", []string{"a3", "--status", "completed"}))

	assert.Contains(t, out.String(), "Accepted a1 (CONFIRMED)")
	assert.Contains(t, out.String(), "Rejected a2 (REJECTED)")
	assert.Contains(t, out.String(), "a3 is now COMPLETED")
	assert.Equal(t, "fully booked", rec.body["POST /appointment/a2/reject"]["reason"])
	assert.Equal(t, "COMPLETED", rec.body["PUT /appointment/a3/status"]["status"])
}

func TestAdminDoctorAndChatCommands(t *testing.T) {
	a, out, rec := newTestApp(t, map[string]string{
		"GET /admin/stats":             `{"success":true,"data":{"users":12,"doctors":3,"revenue":250.5}}`,
		"PUT /admin/users/{id}/status": `{"success":true,"data":{"id":"u1","email":"ann@example.com","active":false}}`,
		"GET /doctors":                 `{"success":true,"data":[{"id":"d1","name":"Dr. Brown","specialty":"Cardiology","fee":40}]}`,
		"GET /chat/conversations":      `{"success":true,"data":[{"id":"c1","participants":[{"id":"d1","name":"Dr. Brown"}],"unreadCount":2}]}`,
		"GET /chat/{id}/messages":      `{"success":true,"data":[{"id":"m1","senderId":"d1","body":"see you at 10"}]}`,
	})
	ctx := context.Background()

	require.NoError(t, a.dispatch(ctx, "admin", []string{"stats"}))
	require.NoError(t, a.dispatch(ctx, "admin", []string{"deactivate", "u1"}))
	require.NoError(t, a.dispatch(ctx, "doctors", nil))
	require.NoError(t, a.dispatch(ctx, "chat", nil))
	require.NoError(t, a.dispatch(ctx, "chat", []string{"c1"}))

	text := out.String()
	assert.Contains(t, text, "revenue")
	assert.Contains(t, text, "250.50")
	assert.Contains(t, text, "ann@example.com active=false")
	assert.Contains(t, text, "Cardiology")
	assert.Contains(t, text, "Dr. Brown")
	assert.Contains(t, text, "see you at 10")
	assert.Equal(t, false, rec.body["PUT /admin/users/u1/status"]["active"])

	err := a.dispatch(ctx, "admin", []string{"reports"})
	assert.ErrorContains(t, err, `unknown admin panel "reports"`)
}

func TestRefreshRenewsSession(t *testing.T) {
	a, out, rec := newTestApp(t, map[string]string{
		"POST /auth/refresh": `{"success":true,"data":{"token":"tok-2","refreshToken":"refresh-2"}}`,
	})

	require.NoError(t, a.dispatch(context.Background(), "refresh", nil))
	assert.Contains(t, out.String(), "Session renewed")
	assert.Equal(t, "refresh-1", rec.body["POST /auth/refresh"]["refreshToken"])
	assert.Equal(t, "tok-2", a.auth.Session().Token())
	assert.Equal(t, "refresh-2", a.auth.Session().RefreshToken())
}

func TestCommandsRequireSignIn(t *testing.T) {
	a, _, _ := newTestApp(t, nil)
	require.NoError(t, a.auth.Session().Clear())

	err := a.dispatch(context.Background(), "admin", []string{"stats"})
	assert.ErrorContains(t, err, "not signed in")
}
