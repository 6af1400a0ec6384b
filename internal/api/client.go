package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/medbook/internal/domain"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "medbook/1.0"
)

// Session supplies the bearer token and is told which token the server rejected
type Session interface {
	Token() string
	Expire(token string)
}

// Recorder receives per-request telemetry
type Recorder interface {
	ObserveRequest(route, method string, status int, duration time.Duration)
}

// Client is the single HTTP boundary to the booking API. It attaches auth,
// unwraps the response envelope and normalizes every failure into a domain error.
// It never retries or deduplicates; the query layer owns that.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    Session
	limiter    *rate.Limiter
	logger     *slog.Logger
	recorder   Recorder
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithSession attaches the token source consulted on every request
func WithSession(s Session) Option {
	return func(c *Client) { c.session = s }
}

// WithRateLimit throttles outbound requests. A non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRecorder reports request metrics
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// NewClient creates an API client for baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do resolves a route template with params, performs the request and decodes
// the unwrapped payload into out (which may be nil). The template, not the
// resolved path, is used as the metrics label.
func (c *Client) Do(ctx context.Context, method, route string, params Params, query url.Values, body, out any) error {
	path, err := Resolve(route, params)
	if err != nil {
		return err
	}
	raw, err := c.send(ctx, method, route, path, query, body)
	if err != nil {
		return err
	}
	return decodeData(payload(raw), out)
}

// list performs a GET against a list endpoint and decodes one page
func list[T any](ctx context.Context, c *Client, route string, params Params, query url.Values) (domain.Page[T], error) {
	path, err := Resolve(route, params)
	if err != nil {
		return domain.Page[T]{}, err
	}
	raw, err := c.send(ctx, http.MethodGet, route, path, query, nil)
	if err != nil {
		return domain.Page[T]{}, err
	}
	page, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))
	return decodePage[T](raw, page, limit)
}

// send performs the HTTP exchange and returns the raw body of a successful response
func (c *Client) send(ctx context.Context, method, route, path string, query url.Values, body any) ([]byte, error) {
	if c.baseURL == "" {
		return nil, domain.ErrNotConfigured
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	token := ""
	if c.session != nil {
		token = c.session.Token()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("User-Agent", userAgent)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	c.logger.Debug("api request", "method", method, "path", path, "request_id", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(route, method, 0, start)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Error("api request failed", "error", err, "method", method, "path", path)
		return nil, domain.NewNetworkError()
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	c.observe(route, method, resp.StatusCode, start)
	if err != nil {
		c.logger.Error("failed to read response", "error", err, "path", path)
		return nil, domain.NewNetworkError()
	}

	if resp.StatusCode == http.StatusUnauthorized && token != "" {
		c.logger.Warn("session rejected by server", "method", method, "path", path)
		if c.session != nil {
			c.session.Expire(token)
		}
		return nil, domain.ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &domain.APIError{
			Status:  resp.StatusCode,
			Message: errorMessage(resp.StatusCode, respBody),
			Payload: respBody,
		}
		c.logger.Error("api request error", "status", resp.StatusCode, "method", method, "path", path, "message", apiErr.Message)
		return nil, apiErr
	}

	if err := envelopeError(resp.StatusCode, respBody); err != nil {
		c.logger.Error("api request rejected", "method", method, "path", path, "error", err)
		return nil, err
	}
	return respBody, nil
}

func (c *Client) observe(route, method string, status int, start time.Time) {
	if c.recorder != nil {
		c.recorder.ObserveRequest(route, method, status, time.Since(start))
	}
}

// IsUnauthorized reports whether err means the session is gone
func IsUnauthorized(err error) bool {
	return errors.Is(err, domain.ErrUnauthorized)
}

var (
	_ domain.AppointmentRepository  = (*Client)(nil)
	_ domain.OrderRepository        = (*Client)(nil)
	_ domain.ProductRepository      = (*Client)(nil)
	_ domain.NotificationRepository = (*Client)(nil)
	_ domain.DoctorRepository       = (*Client)(nil)
	_ domain.ChatRepository         = (*Client)(nil)
	_ domain.AdminRepository        = (*Client)(nil)
	_ domain.AuthRepository         = (*Client)(nil)
)
