package query

import (
	"context"
	"fmt"
	"sort"

	"github.com/mmcdole/medbook/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Source is one sub-query of an aggregate
type Source[T any] struct {
	Key   Key
	Fetch Fetcher[domain.Page[T]]
}

// AggregateError reports which source failed an aggregate
type AggregateError struct {
	Source Key
	Err    error
}

func (e *AggregateError) Error() string {
	return fmt.Sprintf("aggregate source %s: %v", e.Source, e.Err)
}

func (e *AggregateError) Unwrap() error {
	return e.Err
}

// Aggregate merges several paged sources into one page. Each source is read
// through the cache under its own key; the merged result is not cached.
type Aggregate[T any] struct {
	Sources []Source[T]
	Less    func(a, b T) bool
	Page    int
	Limit   int
}

// Run fans out all sources in parallel and waits for every one. Any failure fails
// the whole aggregate; partial results are never returned.
func (a Aggregate[T]) Run(ctx context.Context, c *Client, opts ...QueryOption) (domain.Page[T], error) {
	pages := make([]domain.Page[T], len(a.Sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range a.Sources {
		g.Go(func() error {
			p, err := Fetch(gctx, c, src.Key, src.Fetch, opts...)
			if err != nil {
				return &AggregateError{Source: src.Key, Err: err}
			}
			pages[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Page[T]{}, err
	}

	var items []T
	for _, p := range pages {
		items = append(items, p.Items...)
	}
	if a.Less != nil {
		sort.SliceStable(items, func(i, j int) bool {
			return a.Less(items[i], items[j])
		})
	}

	page := a.Page
	if page < 1 {
		page = 1
	}
	limit := a.Limit
	if limit < 1 {
		limit = domain.DefaultPageLimit
	}
	return domain.Page[T]{
		Items:      items,
		Pagination: domain.SyntheticPagination(len(items), page, limit),
	}, nil
}
