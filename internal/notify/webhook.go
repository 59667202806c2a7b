package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"github.com/rs/zerolog"
)

const defaultWebhookTemplate = `{"host":{{ toJson .Host }},"phase":{{ toJson .Phase }},"run_id":{{ toJson .RunID }},"error":{{ toJson .Error }},"generated_at":{{ toJson .GeneratedAt }}}`

// WebhookPayload is the template context for webhook notifications.
type WebhookPayload struct {
	Host        string
	Phase       string
	RunID       string
	Error       string
	GeneratedAt time.Time
}

// WebhookNotifier renders a template and posts it to a generic webhook.
type WebhookNotifier struct {
	logger   zerolog.Logger
	template *template.Template
	poster   *poster
	now      func() time.Time
}

// NewWebhookNotifier creates a webhook notifier with the provided template.
// It returns nil when webhookURL is empty.
func NewWebhookNotifier(logger zerolog.Logger, webhookURL string, tmpl string) (*WebhookNotifier, error) {
	if webhookURL == "" {
		return nil, nil
	}
	if tmpl == "" {
		tmpl = defaultWebhookTemplate
	}

	parsed, err := template.New("webhook").Funcs(template.FuncMap{
		"toJson": func(v any) (string, error) {
			encoded, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			return string(encoded), nil
		},
	}).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("parse webhook template: %w", err)
	}

	return &WebhookNotifier{
		logger:   logger,
		template: parsed,
		poster:   newPoster(logger, "webhook", webhookURL, defaultPolicy),
		now:      time.Now,
	}, nil
}

// Notify implements Notifier.
func (n *WebhookNotifier) Notify(ctx context.Context, failure Failure) error {
	if n == nil {
		return nil
	}
	generated := failure.At
	if generated.IsZero() {
		generated = n.now()
	}
	payload := WebhookPayload{
		Host:        failure.host(),
		Phase:       failure.Phase,
		RunID:       failure.RunID,
		Error:       failure.Error(),
		GeneratedAt: generated.UTC(),
	}

	var buf bytes.Buffer
	if err := n.template.Execute(&buf, payload); err != nil {
		return fmt.Errorf("render webhook template: %w", err)
	}
	if err := n.poster.deliver(ctx, payload.Host, buf.Bytes()); err != nil {
		return err
	}

	n.logger.Debug().
		Str("host", payload.Host).
		Str("phase", payload.Phase).
		Msg("webhook notification sent")
	return nil
}
