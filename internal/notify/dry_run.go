package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// DryRunNotifier logs failures instead of delivering them.
type DryRunNotifier struct {
	logger zerolog.Logger
	inner  Notifier
}

// NewDryRunNotifier wraps inner without ever calling it.
func NewDryRunNotifier(logger zerolog.Logger, inner Notifier) *DryRunNotifier {
	return &DryRunNotifier{logger: logger, inner: inner}
}

// Notify implements Notifier.
func (n *DryRunNotifier) Notify(_ context.Context, failure Failure) error {
	n.logger.Info().
		Str("host", failure.host()).
		Str("phase", failure.Phase).
		Str("run_id", failure.RunID).
		Str("error", failure.Error()).
		Msg("[DRY-RUN] Would notify")
	return nil
}
