package notify

import (
	"context"
	"time"
)

// Failure describes an agent run that aborted before writing its sections.
type Failure struct {
	Host  string
	Phase string
	RunID string
	Err   error
	At    time.Time
}

// Error returns the failure's error text.
func (f Failure) Error() string {
	if f.Err == nil {
		return "unknown error"
	}
	return f.Err.Error()
}

func (f Failure) host() string {
	if f.Host == "" {
		return "unknown host"
	}
	return f.Host
}

// Notifier delivers run failures to external systems.
type Notifier interface {
	Notify(ctx context.Context, failure Failure) error
}
