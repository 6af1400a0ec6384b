package query

import (
	"context"
	"time"
)

// Status is the lifecycle state of a cache entry
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// State is a typed snapshot of a cache entry as seen by one observer
type State[T any] struct {
	Data       T
	HasData    bool
	Err        error
	Status     Status
	IsFetching bool
	Stale      bool
	UpdatedAt  time.Time
}

// IsLoading is true while the first fetch for the key is in flight
func (s State[T]) IsLoading() bool {
	return !s.HasData && s.IsFetching
}

type rawFetcher func(ctx context.Context) (any, error)

type decoder func([]byte) (any, error)

// entry holds one key's cached result. All fields are guarded by Client.mu.
type entry struct {
	key  Key
	hash string

	data      any
	hasData   bool
	err       error
	status    Status
	updatedAt time.Time
	errorAt   time.Time

	// invalidated is set by Invalidate and cleared only by a fetch that started
	// after the invalidation (generation > invalidatedThrough)
	invalidated        bool
	invalidatedThrough uint64

	// startedGen is bumped when a fetch starts; appliedGen records the newest
	// generation whose completion was written. Completions with a generation
	// <= appliedGen are discarded so a slow old fetch never overwrites newer data.
	startedGen uint64
	appliedGen uint64
	fetching   int

	fetcher rawFetcher
	decode  decoder

	observers map[*observer]struct{}
	gcTimer   *time.Timer
}

func newEntry(key Key) *entry {
	return &entry{
		key:       key,
		hash:      key.Hash(),
		observers: make(map[*observer]struct{}),
	}
}

// isStale reports whether the entry needs revalidation under the given stale time
func (e *entry) isStale(staleTime time.Duration, now time.Time) bool {
	if !e.hasData || e.invalidated {
		return true
	}
	return now.Sub(e.updatedAt) >= staleTime
}

func (e *entry) hasEnabledObserver() bool {
	for o := range e.observers {
		if o.cfg.enabled {
			return true
		}
	}
	return false
}

func (e *entry) stopGC() {
	if e.gcTimer != nil {
		e.gcTimer.Stop()
		e.gcTimer = nil
	}
}
