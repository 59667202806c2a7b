package purity

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"
)

type stubItem struct {
	ID int `json:"id"`
}

// pagedQuery serves items split into pages of the given sizes. Cursors are
// opaque strings unrelated to page numbers.
func pagedQuery(items []stubItem, sizes []int, calls *int) Query[stubItem] {
	pages := make([][]stubItem, 0, len(sizes))
	offset := 0
	for _, size := range sizes {
		pages = append(pages, items[offset:offset+size])
		offset += size
	}
	cursorFor := func(i int) string { return fmt.Sprintf("tok-%x", 0xbeef+i) }

	return func(_ context.Context, cursor string) (Page[stubItem], error) {
		*calls++
		index := 0
		if cursor != "" {
			index = -1
			for i := range pages {
				if cursorFor(i) == cursor {
					index = i
				}
			}
			if index < 0 {
				return Page[stubItem]{}, fmt.Errorf("unknown cursor %q", cursor)
			}
		}
		page := Page[stubItem]{Items: pages[index], TotalItemCount: len(items)}
		if index+1 < len(pages) {
			next := cursorFor(index + 1)
			page.ContinuationToken = &next
		}
		return page, nil
	}
}

// compositions returns every ordered list of positive sizes summing to n.
func compositions(n int) [][]int {
	if n == 0 {
		return [][]int{{}}
	}
	var out [][]int
	for first := 1; first <= n; first++ {
		for _, rest := range compositions(n - first) {
			out = append(out, append([]int{first}, rest...))
		}
	}
	return out
}

func TestFetchAll_EveryPartition(t *testing.T) {
	t.Parallel()

	const n = 7
	items := make([]stubItem, n)
	for i := range items {
		items[i] = stubItem{ID: i}
	}

	parts := compositions(n)
	if len(parts) != 1<<(n-1) {
		t.Fatalf("expected %d partitions, got %d", 1<<(n-1), len(parts))
	}

	for _, sizes := range parts {
		calls := 0
		got, err := FetchAll(context.Background(), pagedQuery(items, sizes, &calls))
		if err != nil {
			t.Fatalf("sizes %v: unexpected error: %v", sizes, err)
		}
		if len(got) != n {
			t.Fatalf("sizes %v: expected %d items, got %d", sizes, n, len(got))
		}
		for i, item := range got {
			if item.ID != i {
				t.Fatalf("sizes %v: expected item %d at position %d, got %d", sizes, i, i, item.ID)
			}
		}
		if calls != len(sizes) {
			t.Fatalf("sizes %v: expected %d page calls, got %d", sizes, len(sizes), calls)
		}
	}
}

func TestFetchAll_EmptyCollection(t *testing.T) {
	t.Parallel()

	q := func(_ context.Context, _ string) (Page[stubItem], error) {
		return Page[stubItem]{}, nil
	}
	got, err := FetchAll(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestFetchAll_EmptyTokenTerminates(t *testing.T) {
	t.Parallel()

	empty := ""
	calls := 0
	q := func(_ context.Context, _ string) (Page[stubItem], error) {
		calls++
		return Page[stubItem]{Items: []stubItem{{ID: 1}}, ContinuationToken: &empty}, nil
	}
	got, err := FetchAll(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 || len(got) != 1 {
		t.Fatalf("expected one call and one item, got %d calls and %d items", calls, len(got))
	}
}

func TestFetchAll_ReplaysCursorVerbatim(t *testing.T) {
	t.Parallel()

	const token = "opaque/+= token"
	var seen []string
	q := func(_ context.Context, cursor string) (Page[stubItem], error) {
		seen = append(seen, cursor)
		if cursor == "" {
			next := token
			return Page[stubItem]{Items: []stubItem{{ID: 0}}, ContinuationToken: &next}, nil
		}
		return Page[stubItem]{Items: []stubItem{{ID: 1}}}, nil
	}
	if _, err := FetchAll(context.Background(), q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 2 || seen[0] != "" || seen[1] != token {
		t.Fatalf("expected cursors [\"\" %q], got %q", token, seen)
	}
}

func TestFetchAll_FaultDiscardsPartialResult(t *testing.T) {
	t.Parallel()

	fault := &UpstreamFault{Endpoint: "drives", StatusCode: 500}
	q := func(_ context.Context, cursor string) (Page[stubItem], error) {
		if cursor == "" {
			next := "second"
			return Page[stubItem]{Items: []stubItem{{ID: 0}, {ID: 1}}, ContinuationToken: &next}, nil
		}
		return Page[stubItem]{}, fault
	}

	got, err := FetchAll(context.Background(), q)
	if got != nil {
		t.Fatalf("expected no items, got %v", got)
	}
	var upstream *UpstreamFault
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamFault, got %v", err)
	}
}

func TestFetchAll_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q := func(_ context.Context, _ string) (Page[stubItem], error) {
		t.Fatalf("query must not run after cancellation")
		return Page[stubItem]{}, nil
	}
	if _, err := FetchAll(ctx, q); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFetchFirst_IgnoresContinuation(t *testing.T) {
	t.Parallel()

	calls := 0
	items := []stubItem{{ID: 0}, {ID: 1}, {ID: 2}}
	got, err := FetchFirst(context.Background(), pagedQuery(items, []int{2, 1}, &calls))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 || len(got) != 2 {
		t.Fatalf("expected one call and two items, got %d calls and %d items", calls, len(got))
	}
}

type recordingRequester struct {
	queries []url.Values
	pages   []Page[stubItem]
}

func (r *recordingRequester) Get(_ context.Context, resource string, query url.Values, out any) error {
	if resource != ResourceDrives {
		return fmt.Errorf("unexpected resource %q", resource)
	}
	r.queries = append(r.queries, query)
	page := out.(*Page[stubItem])
	*page = r.pages[len(r.queries)-1]
	return nil
}

func TestList_SendsLimitAndCursorOnly(t *testing.T) {
	t.Parallel()

	next := "c1"
	r := &recordingRequester{pages: []Page[stubItem]{
		{Items: []stubItem{{ID: 0}}, ContinuationToken: &next},
		{Items: []stubItem{{ID: 1}}},
	}}

	got, err := FetchAll(context.Background(), List[stubItem](r, ResourceDrives, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
	if len(r.queries) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(r.queries))
	}
	first, second := r.queries[0], r.queries[1]
	if first.Get("limit") != "1000" || first.Has("continuation_token") {
		t.Fatalf("unexpected first query: %v", first)
	}
	if second.Get("continuation_token") != "c1" {
		t.Fatalf("expected cursor c1, got %v", second)
	}
	for _, q := range r.queries {
		for _, forbidden := range []string{"filter", "ids", "names", "sort"} {
			if q.Has(forbidden) {
				t.Fatalf("query must not carry %s: %v", forbidden, q)
			}
		}
	}
}

func TestListWith_KeepsExtraParametersOnEveryPage(t *testing.T) {
	t.Parallel()

	next := "c1"
	r := &recordingRequester{pages: []Page[stubItem]{
		{Items: []stubItem{{ID: 0}}, ContinuationToken: &next},
		{Items: []stubItem{{ID: 1}}},
	}}
	extra := url.Values{"type": {SpaceFileSystem}}

	if _, err := FetchAll(context.Background(), ListWith[stubItem](r, ResourceDrives, 50, extra)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, q := range r.queries {
		if q.Get("type") != SpaceFileSystem || q.Get("limit") != "50" {
			t.Fatalf("request %d: unexpected query %v", i, q)
		}
	}
	if r.queries[1].Get("continuation_token") != "c1" {
		t.Fatalf("expected cursor c1, got %v", r.queries[1])
	}
	if extra.Has("limit") {
		t.Fatalf("extra parameters must not be modified: %v", extra)
	}
}
