package purity

import (
	"fmt"
	"strings"
)

// ConnectionError reports a failure to establish a session with the array.
type ConnectionError struct {
	Host string
	Op   string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to %s: %s: %v", e.Host, e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ErrorDetail is one entry of the API error envelope.
type ErrorDetail struct {
	Context string `json:"context,omitempty"`
	Message string `json:"message"`
}

// UpstreamFault is returned when the array answers a query with an error
// envelope instead of a page.
type UpstreamFault struct {
	Endpoint   string
	StatusCode int
	Errors     []ErrorDetail
	Body       string
}

func (e *UpstreamFault) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pure Storage API query failed: %s returned %d", e.Endpoint, e.StatusCode)
	for _, detail := range e.Errors {
		b.WriteString("; ")
		if detail.Context != "" {
			b.WriteString(detail.Context)
			b.WriteString(": ")
		}
		b.WriteString(detail.Message)
	}
	if len(e.Errors) == 0 && e.Body != "" {
		fmt.Fprintf(&b, " (%s)", e.Body)
	}
	return b.String()
}
