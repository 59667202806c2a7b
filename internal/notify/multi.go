package notify

import (
	"context"
	"errors"
)

// MultiNotifier fans a failure out to several notifiers.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier drops nil entries from notifiers.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	filtered := make([]Notifier, 0, len(notifiers))
	for _, notifier := range notifiers {
		if notifier == nil {
			continue
		}
		filtered = append(filtered, notifier)
	}
	return &MultiNotifier{notifiers: filtered}
}

// Len returns the number of wrapped notifiers.
func (m *MultiNotifier) Len() int {
	return len(m.notifiers)
}

// Notify implements Notifier. Every notifier is tried; their errors are
// joined.
func (m *MultiNotifier) Notify(ctx context.Context, failure Failure) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Notify(ctx, failure); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
