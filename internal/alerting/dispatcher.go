package alerting

import (
	"context"

	"github.com/tgberrios/datasync/internal/alerting/channel"
	"github.com/tgberrios/datasync/internal/logx"
)

// WebhookSource lists the configured webhook subscribers, normally
// backed by the `webhooks` table from the external interfaces section.
// A Dispatcher that fans out an Alert re-reads this on every call, so a
// newly registered webhook is picked up without a process restart.
type WebhookSource interface {
	ListWebhooks(ctx context.Context) ([]channel.Config, error)
}

// senders maps a webhook Type to the Sender that knows how to deliver
// it; EMAIL has no Sender here — the original implementation's email
// adapter only logs an intent, a TODO left for an actual mail transport.
var senders = map[string]channel.Sender{
	"HTTP":     channel.HTTPSender{},
	"SLACK":    channel.SlackSender{},
	"TEAMS":    channel.TeamsSender{},
	"TELEGRAM": channel.TelegramSender{},
}

// Dispatcher fans an Alert out to every enabled, matching webhook.
// Delivery is best-effort: one subscriber's failure never blocks or
// fails the others (§4.11's "delivery is best-effort...no retry
// queue").
type Dispatcher struct {
	Webhooks WebhookSource
}

// NewDispatcher wires a Dispatcher.
func NewDispatcher(webhooks WebhookSource) *Dispatcher {
	return &Dispatcher{Webhooks: webhooks}
}

// Dispatch builds a WebhookEnvelope from alert and sends it to every
// enabled webhook whose LogLevels/LogCategories filter admits it (empty
// filter lists admit everything). Per-subscriber errors are collected,
// not short-circuited.
func (d *Dispatcher) Dispatch(ctx context.Context, alert Alert) []error {
	webhooks, err := d.Webhooks.ListWebhooks(ctx)
	if err != nil {
		return []error{err}
	}

	env := BuildEnvelope(alert)
	logger := logx.New("alerting.dispatcher")

	var errs []error
	for _, cfg := range webhooks {
		if !cfg.Enabled || !admits(cfg, alert) {
			continue
		}
		sender, ok := senders[cfg.Type]
		if !ok {
			continue
		}
		if sendErr := sender.Send(ctx, cfg, env); sendErr != nil {
			logger.Warn().Err(sendErr).Str("webhook", cfg.Name).Msg("webhook delivery failed")
			errs = append(errs, sendErr)
		}
	}
	return errs
}

// admits reports whether cfg's filters let alert through: empty
// LogLevels/LogCategories admit everything, matching the governance
// category "GOVERNANCE" every Alert carries.
func admits(cfg channel.Config, alert Alert) bool {
	if len(cfg.LogLevels) > 0 && !contains(cfg.LogLevels, string(alert.Severity)) {
		return false
	}
	if len(cfg.LogCategories) > 0 && !contains(cfg.LogCategories, "GOVERNANCE") {
		return false
	}
	return true
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// BuildEnvelope converts an Alert into the webhook payload envelope
// from the external interfaces section.
func BuildEnvelope(alert Alert) channel.Envelope {
	env := channel.Envelope{
		EventType:  "ALERT_CREATED",
		Title:      alert.Title,
		Message:    alert.Message,
		Severity:   string(alert.Severity),
		Timestamp:  alert.CreatedAt,
		SchemaName: alert.Schema,
		TableName:  alert.Table,
		Status:     string(alert.Status),
	}
	if alert.Status == Resolved {
		env.EventType = "ALERT_RESOLVED"
	}
	return env
}
