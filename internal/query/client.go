package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/medbook/internal/domain"
	"golang.org/x/sync/singleflight"
)

// ErrDisabled is returned by Fetch when the query is gated off and nothing is cached
var ErrDisabled = errors.New("query is disabled")

// Fetcher loads the data for one key
type Fetcher[T any] func(ctx context.Context) (T, error)

// Client is the query cache shared by every view. Create one at startup with New and
// tear it down with Close. Nothing in this package is global, so tests build their own.
type Client struct {
	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group

	staleTime time.Duration
	gcTime    time.Duration
	deps      Dependencies
	logger    *slog.Logger
	recorder  Recorder
	persister domain.SnapshotStore

	// ctx scopes every shared fetch and polling loop; cancelled by Close
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// New creates a query cache
func New(opts ...Option) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		entries:  make(map[string]*entry),
		gcTime:   defaultGCTime,
		logger:   slog.Default(),
		recorder: nopRecorder{},
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close stops polling and GC timers, cancels in-flight fetches and waits for
// background work to finish. The client must not be used afterwards.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for _, e := range c.entries {
		e.stopGC()
		for o := range e.observers {
			o.stopLocked()
		}
	}
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

// Len returns the number of live entries
func (c *Client) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Fetch returns the cached data for key when fresh, otherwise joins the in-flight
// fetch or starts one. Cancelling ctx abandons the wait, not the request.
func Fetch[T any](ctx context.Context, c *Client, key Key, fetch Fetcher[T], opts ...QueryOption) (T, error) {
	var zero T
	cfg := c.queryConfig(opts)
	raw := erase(fetch)

	c.mu.Lock()
	e := c.acquireLocked(key, raw, decodeAs[T])

	if !cfg.enabled {
		c.recorder.ObserveLookup(key.Tag, LookupDisabled)
		data, ok := e.data, e.hasData
		c.releaseLocked(e)
		c.mu.Unlock()
		if !ok {
			return zero, ErrDisabled
		}
		return cast[T](key, data)
	}

	if !e.isStale(cfg.staleTime, time.Now()) {
		c.recorder.ObserveLookup(key.Tag, LookupHit)
		data := e.data
		c.releaseLocked(e)
		c.mu.Unlock()
		return cast[T](key, data)
	}

	if e.hasData {
		c.recorder.ObserveLookup(key.Tag, LookupStale)
	} else {
		c.recorder.ObserveLookup(key.Tag, LookupMiss)
	}
	c.mu.Unlock()

	v, err := c.fetch(ctx, e, raw)

	c.mu.Lock()
	c.releaseLocked(e)
	c.mu.Unlock()

	if err != nil {
		return zero, err
	}
	return cast[T](key, v)
}

// GetData returns the cached data for key without fetching
func GetData[T any](c *Client, key Key) (T, bool) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.Hash()]
	if !ok || !e.hasData {
		return zero, false
	}
	v, ok := e.data.(T)
	return v, ok
}

// SetData seeds or replaces the cached data for key. Fetches already in flight
// for the key are superseded and their results discarded.
func (c *Client) SetData(key Key, data any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.acquireLocked(key, nil, nil)
	e.appliedGen = e.startedGen
	e.data = data
	e.hasData = true
	e.err = nil
	e.status = StatusSuccess
	e.updatedAt = time.Now()
	e.invalidated = false
	c.persistLocked(e)
	c.notifyLocked(e)
	c.releaseLocked(e)
}

// Invalidate marks every entry matching one of the prefixes stale. Observed entries
// are refetched in the background; the rest refetch on their next read. Marking is
// complete when Invalidate returns, and later reads never join a fetch that started
// before the invalidation.
func (c *Client) Invalidate(prefixes ...Key) int {
	if len(prefixes) == 0 {
		return 0
	}
	hashes := make([]string, len(prefixes))
	for i, p := range prefixes {
		hashes[i] = p.Hash()
	}
	perPrefix := make([]int, len(prefixes))

	c.mu.Lock()
	matched := 0
	for _, e := range c.entries {
		idx := matchPrefix(e.hash, hashes)
		if idx < 0 {
			continue
		}
		matched++
		perPrefix[idx]++
		e.invalidated = true
		e.invalidatedThrough = e.startedGen
		c.group.Forget(e.hash)
		c.notifyLocked(e)
		if e.hasEnabledObserver() {
			c.backgroundLocked(e)
		}
	}
	c.mu.Unlock()

	for i, p := range prefixes {
		c.recorder.ObserveInvalidation(p.Tag, perPrefix[i])
		c.logger.Debug("invalidated queries", "prefix", p.String(), "matched", perPrefix[i])
	}
	return matched
}

// InvalidateResources invalidates every key prefix the dependency table lists for the resources
func (c *Client) InvalidateResources(resources ...Resource) int {
	return c.Invalidate(c.deps.Keys(resources...)...)
}

// Dependencies returns the installed resource table
func (c *Client) Dependencies() Dependencies {
	return c.deps
}

// Remove drops every entry matching prefix. Observed entries are reset to idle
// instead so their observers see the data disappear.
func (c *Client) Remove(prefix Key) int {
	hash := prefix.Hash()
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for h, e := range c.entries {
		if matchPrefix(h, []string{hash}) < 0 {
			continue
		}
		removed++
		c.resetLocked(e)
	}
	if c.persister != nil {
		if err := c.persister.DeleteSnapshots(hash); err != nil {
			c.logger.Error("failed to delete snapshots", "error", err, "prefix", prefix.String())
		}
	}
	return removed
}

// Clear drops all cached data, in memory and on disk. Used on logout so the next
// session never sees the previous user's results.
func (c *Client) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		c.resetLocked(e)
	}
	if c.persister != nil {
		if err := c.persister.ClearSnapshots(); err != nil {
			c.logger.Error("failed to clear snapshots", "error", err)
		}
	}
	c.logger.Info("cleared query cache")
}

// --- internals ---

func (c *Client) resetLocked(e *entry) {
	// In-flight results belong to the old state; discard them
	e.appliedGen = e.startedGen
	e.invalidatedThrough = e.startedGen
	e.data = nil
	e.hasData = false
	e.err = nil
	e.status = StatusIdle
	e.invalidated = true
	c.group.Forget(e.hash)
	if len(e.observers) == 0 {
		e.stopGC()
		delete(c.entries, e.hash)
		return
	}
	c.notifyLocked(e)
}

// acquireLocked returns the entry for key, creating and hydrating it on first use
func (c *Client) acquireLocked(key Key, fetch rawFetcher, decode decoder) *entry {
	hash := key.Hash()
	e, ok := c.entries[hash]
	if !ok {
		e = newEntry(key)
		e.decode = decode
		c.hydrateLocked(e)
		c.entries[hash] = e
	}
	if fetch != nil {
		e.fetcher = fetch
	}
	if decode != nil {
		e.decode = decode
	}
	e.stopGC()
	return e
}

// releaseLocked schedules GC for an entry nobody is observing or fetching
func (c *Client) releaseLocked(e *entry) {
	if len(e.observers) > 0 || e.fetching > 0 || c.closed {
		return
	}
	e.stopGC()
	e.gcTimer = time.AfterFunc(c.gcTime, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if len(e.observers) > 0 || e.fetching > 0 {
			return
		}
		if cur, ok := c.entries[e.hash]; ok && cur == e {
			delete(c.entries, e.hash)
			c.logger.Debug("evicted query", "key", e.key.String())
		}
	})
}

func (c *Client) hydrateLocked(e *entry) {
	if c.persister == nil || e.decode == nil {
		return
	}
	raw, ts, ok := c.persister.LoadSnapshot(e.hash)
	if !ok {
		return
	}
	v, err := e.decode(raw)
	if err != nil {
		c.logger.Debug("discarding unreadable snapshot", "key", e.key.String(), "error", err)
		return
	}
	e.data = v
	e.hasData = true
	e.status = StatusSuccess
	e.updatedAt = time.Unix(ts, 0)
	// Shown immediately, revalidated on first read
	e.invalidated = true
}

func (c *Client) persistLocked(e *entry) {
	if c.persister == nil || e.decode == nil {
		return
	}
	b, err := json.Marshal(e.data)
	if err != nil {
		c.logger.Error("failed to encode snapshot", "error", err, "key", e.key.String())
		return
	}
	if err := c.persister.SaveSnapshot(e.hash, b, e.updatedAt.Unix()); err != nil {
		c.logger.Error("failed to save snapshot", "error", err, "key", e.key.String())
	}
}

func (c *Client) notifyLocked(e *entry) {
	for o := range e.observers {
		o.signal()
	}
}

// fetch joins the in-flight request for e or starts a new one. The shared request
// runs on the client's context so one caller giving up never cancels it for others.
func (c *Client) fetch(ctx context.Context, e *entry, fetcher rawFetcher) (any, error) {
	ch := c.group.DoChan(e.hash, func() (any, error) {
		return c.run(e, fetcher)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

// refetch forces a new request even if one is already in flight
func (c *Client) refetch(ctx context.Context, e *entry) (any, error) {
	c.group.Forget(e.hash)
	return c.fetch(ctx, e, nil)
}

// backgroundLocked starts a joined fetch tracked by the client's wait group
func (c *Client) backgroundLocked(e *entry) {
	if c.closed {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if _, err := c.fetch(c.ctx, e, nil); err != nil {
			c.logger.Debug("background fetch failed", "key", e.key.String(), "error", err)
		}
	}()
}

// run executes one fetch and applies its result if no newer fetch already has
func (c *Client) run(e *entry, fetcher rawFetcher) (any, error) {
	c.mu.Lock()
	if fetcher == nil {
		fetcher = e.fetcher
	}
	e.startedGen++
	gen := e.startedGen
	e.fetching++
	if !e.hasData {
		e.status = StatusPending
	}
	c.notifyLocked(e)
	c.mu.Unlock()

	start := time.Now()
	var (
		data any
		err  error
	)
	if fetcher == nil {
		err = fmt.Errorf("query %s has no fetcher", e.key)
	} else {
		data, err = fetcher(c.ctx)
	}
	elapsed := time.Since(start)

	c.mu.Lock()
	defer c.mu.Unlock()
	e.fetching--

	outcome := FetchSuccess
	switch {
	case c.entries[e.hash] != e:
		// Cleared or removed before the request started; nothing to apply it to
		outcome = FetchDiscarded
		c.recorder.ObserveFetch(e.key.Tag, outcome, elapsed)
		c.logger.Debug("discarding result for dropped query", "key", e.key.String())
		return data, err
	case gen <= e.appliedGen:
		outcome = FetchDiscarded
		c.logger.Debug("discarding out-of-order result", "key", e.key.String(), "generation", gen, "applied", e.appliedGen)
	case err != nil:
		outcome = FetchError
		e.appliedGen = gen
		e.err = err
		e.errorAt = time.Now()
		e.status = StatusError
		c.logger.Error("query failed", "key", e.key.String(), "error", err)
	default:
		e.appliedGen = gen
		e.data = data
		e.hasData = true
		e.err = nil
		e.status = StatusSuccess
		e.updatedAt = time.Now()
		if gen > e.invalidatedThrough {
			e.invalidated = false
		}
		c.persistLocked(e)
	}
	c.recorder.ObserveFetch(e.key.Tag, outcome, elapsed)
	c.notifyLocked(e)
	c.releaseLocked(e)

	if e.err != nil {
		return nil, e.err
	}
	return e.data, nil
}

func matchPrefix(hash string, prefixes []string) int {
	for i, p := range prefixes {
		if strings.HasPrefix(hash, p) {
			return i
		}
	}
	return -1
}

func erase[T any](fetch Fetcher[T]) rawFetcher {
	if fetch == nil {
		return nil
	}
	return func(ctx context.Context) (any, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

func decodeAs[T any](b []byte) (any, error) {
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func cast[T any](key Key, v any) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("query %s holds %T, not %T", key, v, zero)
	}
	return t, nil
}
