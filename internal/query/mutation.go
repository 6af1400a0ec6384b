package query

import (
	"context"
	"sync/atomic"
)

// Executor performs the server call behind a mutation
type Executor[In, Out any] func(ctx context.Context, in In) (Out, error)

// MutationOptions describes what a mutation changes and how the caller reacts
type MutationOptions[In, Out any] struct {
	// Name is used in logs
	Name string

	// Resources are resolved through the client's dependency table on success
	Resources []Resource

	// Keys returns extra targeted keys to invalidate, e.g. the detail key of the changed record
	Keys func(in In, out Out) []Key

	// OnSuccess runs after invalidation has been applied
	OnSuccess func(in In, out Out)

	// OnError is the single recovery point for a failed call. The cache is untouched.
	OnError func(in In, err error)
}

// Mutation is a reusable handle for one kind of write. Each Mutate performs
// exactly one executor call: no retries and no optimistic updates.
type Mutation[In, Out any] struct {
	c       *Client
	exec    Executor[In, Out]
	opts    MutationOptions[In, Out]
	pending atomic.Int64
}

// NewMutation creates a mutation bound to the cache
func NewMutation[In, Out any](c *Client, exec Executor[In, Out], opts MutationOptions[In, Out]) *Mutation[In, Out] {
	return &Mutation[In, Out]{c: c, exec: exec, opts: opts}
}

// Mutate runs the executor. On success the affected keys are invalidated before
// Mutate returns, so a refetch chained by the caller sees the stale-marked state.
func (m *Mutation[In, Out]) Mutate(ctx context.Context, in In) (Out, error) {
	m.pending.Add(1)
	defer m.pending.Add(-1)
	return m.run(ctx, in)
}

// Go runs the mutation in the background. The result reaches the caller only
// through OnSuccess and OnError.
func (m *Mutation[In, Out]) Go(ctx context.Context, in In) {
	m.pending.Add(1)
	go func() {
		defer m.pending.Add(-1)
		_, _ = m.run(ctx, in)
	}()
}

// Pending returns the number of calls in flight
func (m *Mutation[In, Out]) Pending() int {
	return int(m.pending.Load())
}

func (m *Mutation[In, Out]) run(ctx context.Context, in In) (Out, error) {
	out, err := m.exec(ctx, in)
	if err != nil {
		m.c.logger.Debug("mutation failed", "mutation", m.opts.Name, "error", err)
		if m.opts.OnError != nil {
			m.opts.OnError(in, err)
		}
		return out, err
	}

	keys := m.c.deps.Keys(m.opts.Resources...)
	if m.opts.Keys != nil {
		keys = append(keys, m.opts.Keys(in, out)...)
	}
	matched := m.c.Invalidate(keys...)
	m.c.logger.Debug("mutation applied", "mutation", m.opts.Name, "invalidated", matched)

	if m.opts.OnSuccess != nil {
		m.opts.OnSuccess(in, out)
	}
	return out, nil
}
