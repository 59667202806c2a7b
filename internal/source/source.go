// Package source provides per-run data sources over array collections.
package source

import (
	"context"
	"slices"

	"github.com/nholik/flash-sentinel/internal/purity"
)

// Source yields the items of one collection.
type Source[T any] interface {
	Query(ctx context.Context) ([]T, error)
}

// Func adapts a function to Source.
type Func[T any] func(ctx context.Context) ([]T, error)

// Query implements Source.
func (f Func[T]) Query(ctx context.Context) ([]T, error) {
	return f(ctx)
}

// Paginated drains every page of q on each call.
func Paginated[T any](q purity.Query[T]) Source[T] {
	return Func[T](func(ctx context.Context) ([]T, error) {
		return purity.FetchAll(ctx, q)
	})
}

// Single reads only the first page of q on each call.
func Single[T any](q purity.Query[T]) Source[T] {
	return Func[T](func(ctx context.Context) ([]T, error) {
		return purity.FetchFirst(ctx, q)
	})
}

// Cache memoizes the first successful result of its backend. Errors are
// not cached. A Cache lives for one run and is not safe for concurrent use.
type Cache[T any] struct {
	backend Source[T]
	items   []T
	loaded  bool
}

// Cached wraps backend in a Cache.
func Cached[T any](backend Source[T]) *Cache[T] {
	return &Cache[T]{backend: backend}
}

// Query implements Source. Every call returns its own copy of the cached
// slice.
func (c *Cache[T]) Query(ctx context.Context) ([]T, error) {
	if c.loaded {
		return slices.Clone(c.items), nil
	}
	items, err := c.backend.Query(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = make([]T, 0)
	}
	c.items = items
	c.loaded = true
	return slices.Clone(c.items), nil
}

// Observe calls fn with the item count of every successful backend query.
func Observe[T any](backend Source[T], fn func(n int)) Source[T] {
	return Func[T](func(ctx context.Context) ([]T, error) {
		items, err := backend.Query(ctx)
		if err == nil && fn != nil {
			fn(len(items))
		}
		return items, err
	})
}
