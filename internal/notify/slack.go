package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
)

// slackMaxText stays below the 3000 character limit of a section block,
// leaving room for the code fence.
const slackMaxText = 2900

// SlackNotifier posts Block Kit messages to an incoming webhook.
type SlackNotifier struct {
	logger     zerolog.Logger
	webhookURL string
	policy     deliveryPolicy
	poster     *poster
}

// SlackOption customizes SlackNotifier behavior.
type SlackOption func(*SlackNotifier)

// WithSlackTiming overrides the per-host rate and the retry schedule.
func WithSlackTiming(rateEvery time.Duration, rateBurst int, initialWait, maxWait, maxElapsed time.Duration) SlackOption {
	return func(s *SlackNotifier) {
		s.policy.rateEvery = rateEvery
		s.policy.rateBurst = rateBurst
		s.policy.initialWait = initialWait
		s.policy.maxWait = maxWait
		s.policy.maxElapsed = maxElapsed
	}
}

// NewSlackNotifier creates a Slack notifier or a noop notifier when the webhook is empty.
func NewSlackNotifier(logger zerolog.Logger, webhookURL string, opts ...SlackOption) Notifier {
	if webhookURL == "" {
		return NewNoop(logger, "slack webhook not configured; notifications disabled")
	}

	notifier := &SlackNotifier{
		logger:     logger,
		webhookURL: webhookURL,
		policy:     defaultPolicy,
	}
	for _, opt := range opts {
		opt(notifier)
	}
	notifier.poster = newPoster(logger, "slack", webhookURL, notifier.policy)

	return notifier
}

// Notify implements Notifier.
func (n *SlackNotifier) Notify(ctx context.Context, failure Failure) error {
	payload, err := json.Marshal(buildSlackMessage(failure))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}
	if err := n.poster.deliver(ctx, failure.host(), payload); err != nil {
		return err
	}

	n.logger.Debug().
		Str("host", failure.host()).
		Str("phase", failure.Phase).
		Msg("slack notification sent")
	return nil
}

func buildSlackMessage(failure Failure) slack.WebhookMessage {
	summary := fmt.Sprintf("FlashArray %s: agent run failed", failure.host())
	header := slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", summary, false, false))

	contextElements := []slack.MixedElement{
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("Host: *%s*", failure.host()), false, false),
	}
	if failure.Phase != "" {
		contextElements = append(contextElements, slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("Phase: `%s`", failure.Phase), false, false))
	}
	if failure.RunID != "" {
		contextElements = append(contextElements, slack.NewTextBlockObject("mrkdwn", "Run: "+failure.RunID, false, false))
	}
	if !failure.At.IsZero() {
		contextElements = append(contextElements, slack.NewTextBlockObject("mrkdwn", failure.At.UTC().Format(time.RFC3339), false, false))
	}

	errText := slack.NewTextBlockObject("mrkdwn", "```"+truncate(failure.Error(), slackMaxText)+"```", false, false)

	blockSet := slack.Blocks{BlockSet: []slack.Block{
		header,
		slack.NewContextBlock("", contextElements...),
		slack.NewSectionBlock(errText, nil, nil),
	}}
	return slack.WebhookMessage{
		Text:   summary,
		Blocks: &blockSet,
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
