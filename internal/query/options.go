package query

import (
	"log/slog"
	"time"

	"github.com/mmcdole/medbook/internal/domain"
)

const (
	defaultGCTime = 5 * time.Minute
)

// Option configures a Client
type Option func(*Client)

// WithStaleTime sets how long a successful result counts as fresh. Zero means
// every read revalidates (stale-while-revalidate on every mount).
func WithStaleTime(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.staleTime = d
		}
	}
}

// WithGCTime sets how long an unobserved entry is kept before eviction
func WithGCTime(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.gcTime = d
		}
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

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithPersister writes successful results through to durable storage and hydrates
// entries from it on first access. Hydrated data is shown immediately but treated as stale.
func WithPersister(s domain.SnapshotStore) Option {
	return func(c *Client) {
		c.persister = s
	}
}

// WithDependencies installs the resource -> key-prefix table used by mutations
func WithDependencies(d Dependencies) Option {
	return func(c *Client) {
		c.deps = d
	}
}

// queryConfig is the per-read configuration
type queryConfig struct {
	enabled         bool
	refetchInterval time.Duration
	staleTime       time.Duration
	hasStaleTime    bool
}

// QueryOption configures a single Fetch or Observe
type QueryOption func(*queryConfig)

// Enabled gates the query. A disabled query never fetches but keeps any cached value.
func Enabled(v bool) QueryOption {
	return func(q *queryConfig) { q.enabled = v }
}

// RefetchInterval revalidates the entry on a fixed period while observed, regardless of staleness
func RefetchInterval(d time.Duration) QueryOption {
	return func(q *queryConfig) {
		if d > 0 {
			q.refetchInterval = d
		}
	}
}

// StaleTime overrides the client stale time for this read
func StaleTime(d time.Duration) QueryOption {
	return func(q *queryConfig) {
		q.staleTime = d
		q.hasStaleTime = true
	}
}

func (c *Client) queryConfig(opts []QueryOption) queryConfig {
	cfg := queryConfig{enabled: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !cfg.hasStaleTime {
		cfg.staleTime = c.staleTime
	}
	return cfg
}
