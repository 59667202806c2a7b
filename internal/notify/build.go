package notify

import "github.com/rs/zerolog"

// Settings selects the notification targets.
type Settings struct {
	SlackWebhookURL string
	WebhookURL      string
	WebhookTemplate string
	DryRun          bool
}

// Build assembles the configured notifiers. Without any target a noop
// notifier is returned.
func Build(logger zerolog.Logger, settings Settings) (Notifier, error) {
	var notifiers []Notifier
	if settings.SlackWebhookURL != "" {
		notifiers = append(notifiers, NewSlackNotifier(logger, settings.SlackWebhookURL))
	}
	if settings.WebhookURL != "" {
		webhook, err := NewWebhookNotifier(logger, settings.WebhookURL, settings.WebhookTemplate)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, webhook)
	}

	if len(notifiers) == 0 {
		return NewNoop(logger, "no notification target configured; notifications disabled"), nil
	}

	var notifier Notifier = NewMultiNotifier(notifiers...)
	if settings.DryRun {
		notifier = NewDryRunNotifier(logger, notifier)
	}
	return notifier, nil
}
