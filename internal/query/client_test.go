package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mmcdole/medbook/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pageResult struct {
	Page int `json:"page"`
}

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	c := New(opts...)
	t.Cleanup(c.Close)
	return c
}

func TestFetchRejectsStaleWrite(t *testing.T) {
	c := newTestClient(t)
	key := K("appointments", map[string]any{"page": 1})

	var calls atomic.Int32
	started := make(chan struct{})
	fetch := func(ctx context.Context) (pageResult, error) {
		switch calls.Add(1) {
		case 1:
			close(started)
			time.Sleep(100 * time.Millisecond)
			return pageResult{Page: 1}, nil
		default:
			time.Sleep(10 * time.Millisecond)
			return pageResult{Page: 2}, nil
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := Fetch(context.Background(), c, key, fetch)
		assert.NoError(t, err)
	}()
	<-started

	// B must not join A
	c.Invalidate(key)
	got, err := Fetch(context.Background(), c, key, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Page)

	wg.Wait()
	final, ok := GetData[pageResult](c, key)
	require.True(t, ok)
	assert.Equal(t, 2, final.Page, "slow older fetch overwrote newer data")
	assert.EqualValues(t, 2, calls.Load())
}

func TestFetchDeduplicatesConcurrentCallers(t *testing.T) {
	c := newTestClient(t, WithStaleTime(time.Minute))
	key := K("products")

	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 7, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 10)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := Fetch(context.Background(), c, key, fetch)
			assert.NoError(t, err)
			results[i] = v
		}()
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
	for _, v := range results {
		assert.Equal(t, 7, v)
	}
}

func TestFetchServesFreshDataFromCache(t *testing.T) {
	c := newTestClient(t, WithStaleTime(time.Minute))
	key := K("doctors")

	var calls atomic.Int32
	fetch := func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "list", nil
	}

	for i := 0; i < 3; i++ {
		v, err := Fetch(context.Background(), c, key, fetch)
		require.NoError(t, err)
		assert.Equal(t, "list", v)
	}
	assert.EqualValues(t, 1, calls.Load())

	// zero stale time for this read forces revalidation
	_, err := Fetch(context.Background(), c, key, fetch, StaleTime(0))
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

func TestFetchErrorKeepsPreviousData(t *testing.T) {
	c := newTestClient(t)
	key := K("orders")
	boom := errors.New("boom")

	fail := false
	fetch := func(ctx context.Context) (string, error) {
		if fail {
			return "", boom
		}
		return "first", nil
	}

	_, err := Fetch(context.Background(), c, key, fetch)
	require.NoError(t, err)

	fail = true
	_, err = Fetch(context.Background(), c, key, fetch)
	require.ErrorIs(t, err, boom)

	data, ok := GetData[string](c, key)
	require.True(t, ok)
	assert.Equal(t, "first", data)

	ob := Observe(c, key, fetch, Enabled(false))
	defer ob.Close()
	st := ob.State()
	assert.Equal(t, StatusError, st.Status)
	assert.ErrorIs(t, st.Err, boom)
	assert.True(t, st.HasData)
	assert.Equal(t, "first", st.Data)
}

func TestCancelledCallerDoesNotCancelSharedFetch(t *testing.T) {
	c := newTestClient(t)
	key := K("notifications")

	release := make(chan struct{})
	fetch := func(ctx context.Context) (int, error) {
		select {
		case <-release:
			return 3, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := Fetch(ctx, c, key, fetch)
		done <- err
	}()

	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		e, ok := c.entries[key.Hash()]
		return ok && e.fetching == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(release)
	require.Eventually(t, func() bool {
		v, ok := GetData[int](c, key)
		return ok && v == 3
	}, time.Second, 5*time.Millisecond)
}

func TestFetchDisabledWithoutData(t *testing.T) {
	c := newTestClient(t)
	_, err := Fetch(context.Background(), c, K("doctor", ""), func(ctx context.Context) (int, error) {
		t.Fatal("disabled query must not fetch")
		return 0, nil
	}, Enabled(false))
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestInvalidateRefetchesObservedEntries(t *testing.T) {
	c := newTestClient(t, WithStaleTime(time.Minute))

	var calls atomic.Int32
	fetch := func(ctx context.Context) (int32, error) {
		return calls.Add(1), nil
	}

	listKey := K("appointments", map[string]any{"status": "PENDING"})
	ob := Observe(c, listKey, fetch)
	defer ob.Close()
	require.Eventually(t, func() bool { return ob.State().Data == 1 }, time.Second, 5*time.Millisecond)

	// unobserved entry under the same prefix is only marked
	var other atomic.Int32
	_, err := Fetch(context.Background(), c, K("appointments", "detail"), func(ctx context.Context) (int32, error) {
		return other.Add(1), nil
	})
	require.NoError(t, err)

	matched := c.Invalidate(K("appointments"))
	assert.Equal(t, 2, matched)

	require.Eventually(t, func() bool { return ob.State().Data == 2 }, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 1, other.Load())

	assert.Zero(t, c.Invalidate(K("orders")))
}

func TestClearDiscardsInFlightResults(t *testing.T) {
	c := newTestClient(t)
	key := K("orders")

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_, _ = Fetch(context.Background(), c, key, func(ctx context.Context) (string, error) {
			close(started)
			<-release
			return "previous user", nil
		})
	}()
	<-started

	c.Clear()
	close(release)

	time.Sleep(20 * time.Millisecond)
	_, ok := GetData[string](c, key)
	assert.False(t, ok)
}

func TestResultForDroppedEntryIsNotPersisted(t *testing.T) {
	snapshots := store.NewMemory()
	c := newTestClient(t, WithPersister(snapshots))
	key := K("orders")

	// the entry is dropped by Clear after the caller took it but before the request ran
	c.mu.Lock()
	e := c.acquireLocked(key, nil, decodeAs[string])
	c.mu.Unlock()
	c.Clear()

	v, err := c.run(e, erase(func(ctx context.Context) (string, error) {
		return "previous user", nil
	}))
	require.NoError(t, err)
	assert.Equal(t, "previous user", v)

	_, ok := GetData[string](c, key)
	assert.False(t, ok)
	_, _, ok = snapshots.LoadSnapshot(key.Hash())
	assert.False(t, ok)
}

func TestSetDataAndRemove(t *testing.T) {
	c := newTestClient(t, WithStaleTime(time.Minute))
	c.SetData(K("products", "p1"), "aspirin")
	c.SetData(K("products", "p2"), "ibuprofen")

	v, ok := GetData[string](c, K("products", "p1"))
	require.True(t, ok)
	assert.Equal(t, "aspirin", v)

	// seeded data is fresh
	got, err := Fetch(context.Background(), c, K("products", "p2"), func(ctx context.Context) (string, error) {
		return "refetched", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ibuprofen", got)

	assert.Equal(t, 2, c.Remove(K("products")))
	assert.Zero(t, c.Len())
}

func TestUnobservedEntriesAreEvicted(t *testing.T) {
	c := newTestClient(t, WithGCTime(20*time.Millisecond))
	_, err := Fetch(context.Background(), c, K("admin", "stats"), func(ctx context.Context) (int, error) {
		return 1, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	require.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestPersistedSnapshotsHydrateAsStale(t *testing.T) {
	snapshots := store.NewMemory()
	key := K("appointments", map[string]any{"page": 1})

	first := New(WithPersister(snapshots))
	_, err := Fetch(context.Background(), first, key, func(ctx context.Context) (pageResult, error) {
		return pageResult{Page: 1}, nil
	})
	require.NoError(t, err)
	first.Close()

	second := newTestClient(t, WithPersister(snapshots), WithStaleTime(time.Hour))
	release := make(chan struct{})
	defer close(release)
	ob := Observe(second, key, func(ctx context.Context) (pageResult, error) {
		<-release
		return pageResult{Page: 9}, nil
	})
	defer ob.Close()

	st := ob.State()
	require.True(t, st.HasData)
	assert.Equal(t, 1, st.Data.Page)
	assert.True(t, st.Stale)

	second.Clear()
	_, _, ok := snapshots.LoadSnapshot(key.Hash())
	assert.False(t, ok)
}
