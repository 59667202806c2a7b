package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// NoopNotifier drops notifications, leaving a debug line for each.
type NoopNotifier struct {
	logger zerolog.Logger
	reason string
}

// NewNoop returns a notifier that only logs. reason says why notifications
// are disabled.
func NewNoop(logger zerolog.Logger, reason string) *NoopNotifier {
	if reason != "" {
		logger.Debug().Msg(reason)
	}
	return &NoopNotifier{logger: logger, reason: reason}
}

// Notify implements Notifier.
func (n *NoopNotifier) Notify(_ context.Context, failure Failure) error {
	n.logger.Debug().
		Str("host", failure.host()).
		Str("phase", failure.Phase).
		Str("reason", n.reason).
		Msg("notification dropped")
	return nil
}
