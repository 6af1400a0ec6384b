package query

import (
	"context"
	"time"
)

// observer is one subscription to an entry. Guarded by Client.mu.
type observer struct {
	c       *Client
	e       *entry
	cfg     queryConfig
	updates chan struct{}
	stop    chan struct{}
	closed  bool
}

// signal wakes the subscriber. Signals coalesce: a subscriber that is behind
// sees one wakeup and reads the latest state.
func (o *observer) signal() {
	if o.closed {
		return
	}
	select {
	case o.updates <- struct{}{}:
	default:
	}
}

// configureLocked applies cfg and reports whether the entry should be fetched.
// Fetches happen only when the observer goes from disabled to enabled (mounting
// counts as such a transition) and the entry is stale, so re-applying the same
// options never triggers anything.
func (o *observer) configureLocked(cfg queryConfig) bool {
	prev := o.cfg
	o.cfg = cfg
	if prev.enabled != cfg.enabled || prev.refetchInterval != cfg.refetchInterval {
		o.restartPollingLocked()
	}
	return cfg.enabled && !prev.enabled && o.e.isStale(cfg.staleTime, time.Now())
}

func (o *observer) restartPollingLocked() {
	if o.stop != nil {
		close(o.stop)
		o.stop = nil
	}
	c := o.c
	if o.closed || c.closed || !o.cfg.enabled || o.cfg.refetchInterval <= 0 {
		return
	}

	stop := make(chan struct{})
	o.stop = stop
	interval := o.cfg.refetchInterval
	e := o.e

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-c.ctx.Done():
				return
			case <-ticker.C:
				if _, err := c.fetch(c.ctx, e, nil); err != nil {
					c.logger.Debug("poll failed", "key", e.key.String(), "error", err)
				}
			}
		}
	}()
}

func (o *observer) stopLocked() {
	if o.closed {
		return
	}
	o.closed = true
	if o.stop != nil {
		close(o.stop)
		o.stop = nil
	}
	close(o.updates)
}

// Observer is a typed live subscription to one key. Read State after every
// signal on Updates; the channel closes when the observer is closed.
type Observer[T any] struct {
	o *observer
}

// Observe subscribes to key. The first observer of a stale key triggers a fetch,
// and a RefetchInterval option polls the key for as long as the observer is enabled.
func Observe[T any](c *Client, key Key, fetch Fetcher[T], opts ...QueryOption) *Observer[T] {
	cfg := c.queryConfig(opts)
	o := &observer{c: c, updates: make(chan struct{}, 1)}

	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.acquireLocked(key, erase(fetch), decodeAs[T])
	o.e = e
	if c.closed {
		o.stopLocked()
		return &Observer[T]{o: o}
	}
	e.observers[o] = struct{}{}

	switch {
	case !cfg.enabled:
		c.recorder.ObserveLookup(key.Tag, LookupDisabled)
	case !e.hasData:
		c.recorder.ObserveLookup(key.Tag, LookupMiss)
	case e.isStale(cfg.staleTime, time.Now()):
		c.recorder.ObserveLookup(key.Tag, LookupStale)
	default:
		c.recorder.ObserveLookup(key.Tag, LookupHit)
	}

	if o.configureLocked(cfg) {
		c.backgroundLocked(e)
	}
	o.signal()
	return &Observer[T]{o: o}
}

// Key returns the observed key
func (ob *Observer[T]) Key() Key {
	return ob.o.e.key
}

// Updates signals whenever the entry changes
func (ob *Observer[T]) Updates() <-chan struct{} {
	return ob.o.updates
}

// State returns the current state of the entry
func (ob *Observer[T]) State() State[T] {
	c := ob.o.c
	c.mu.Lock()
	defer c.mu.Unlock()

	e := ob.o.e
	st := State[T]{
		HasData:    e.hasData,
		Err:        e.err,
		Status:     e.status,
		IsFetching: e.fetching > 0,
		Stale:      e.isStale(ob.o.cfg.staleTime, time.Now()),
		UpdatedAt:  e.updatedAt,
	}
	if e.hasData {
		if v, ok := e.data.(T); ok {
			st.Data = v
		}
	}
	return st
}

// SetOptions re-applies the read options. Safe to call on every render: only an
// enabled false -> true transition on a stale entry starts a fetch.
func (ob *Observer[T]) SetOptions(opts ...QueryOption) {
	c := ob.o.c
	cfg := c.queryConfig(opts)
	c.mu.Lock()
	defer c.mu.Unlock()
	if ob.o.closed {
		return
	}
	if ob.o.configureLocked(cfg) {
		c.backgroundLocked(ob.o.e)
	}
}

// Refetch forces a new fetch, bypassing freshness and any in-flight request
func (ob *Observer[T]) Refetch(ctx context.Context) (T, error) {
	var zero T
	v, err := ob.o.c.refetch(ctx, ob.o.e)
	if err != nil {
		return zero, err
	}
	return cast[T](ob.o.e.key, v)
}

// Close unsubscribes. The entry is evicted after the GC time once nobody observes it.
func (ob *Observer[T]) Close() {
	c := ob.o.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if ob.o.closed {
		return
	}
	ob.o.stopLocked()
	delete(ob.o.e.observers, ob.o)
	c.releaseLocked(ob.o.e)
}
