package purity

import (
	"context"
	"net/url"
	"strconv"
)

// DefaultPageLimit is the page size requested from list endpoints.
const DefaultPageLimit = 1000

// Page is one response of a paginated collection.
// A nil or empty ContinuationToken marks the last page.
type Page[T any] struct {
	Items             []T     `json:"items"`
	ContinuationToken *string `json:"continuation_token"`
	TotalItemCount    int     `json:"total_item_count"`
}

func (p Page[T]) next() (string, bool) {
	if p.ContinuationToken == nil || *p.ContinuationToken == "" {
		return "", false
	}
	return *p.ContinuationToken, true
}

// Query fetches the page identified by cursor. An empty cursor requests the
// first page. Cursors are opaque and passed back verbatim.
type Query[T any] func(ctx context.Context, cursor string) (Page[T], error)

// FetchAll drains q and returns every item in delivery order. Any failed
// page fails the whole collection and no partial result is returned.
func FetchAll[T any](ctx context.Context, q Query[T]) ([]T, error) {
	items := make([]T, 0)
	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := q(ctx, cursor)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)

		next, ok := page.next()
		if !ok {
			return items, nil
		}
		cursor = next
	}
}

// FetchFirst returns the items of the first page only.
func FetchFirst[T any](ctx context.Context, q Query[T]) ([]T, error) {
	page, err := q(ctx, "")
	if err != nil {
		return nil, err
	}
	if page.Items == nil {
		return make([]T, 0), nil
	}
	return page.Items, nil
}

// List returns a query over the collection at resource.
func List[T any](r Requester, resource string, limit int) Query[T] {
	return ListWith[T](r, resource, limit, nil)
}

// ListWith is List with extra query parameters sent on every page, such
// as the type filter of arrays/space.
func ListWith[T any](r Requester, resource string, limit int, extra url.Values) Query[T] {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	return func(ctx context.Context, cursor string) (Page[T], error) {
		params := url.Values{}
		for key, values := range extra {
			params[key] = append([]string(nil), values...)
		}
		params.Set("limit", strconv.Itoa(limit))
		if cursor != "" {
			params.Set("continuation_token", cursor)
		}

		var page Page[T]
		if err := r.Get(ctx, resource, params, &page); err != nil {
			return Page[T]{}, err
		}
		return page, nil
	}
}
