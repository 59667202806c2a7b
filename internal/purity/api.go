package purity

import (
	"context"
	"net/url"
)

// Requester performs authenticated GET requests against the array REST API.
// The response body of a successful request is decoded into out.
//
// Tests can supply their own implementation instead of a live session:
//
//	type stubRequester struct{ pages map[string]string }
//
//	func (s stubRequester) Get(ctx context.Context, resource string, q url.Values, out any) error {
//	    return json.Unmarshal([]byte(s.pages[q.Get("continuation_token")]), out)
//	}
type Requester interface {
	Get(ctx context.Context, resource string, query url.Values, out any) error
}

var _ Requester = (*Client)(nil)
