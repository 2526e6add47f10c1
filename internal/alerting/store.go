package alerting

import (
	"context"

	"github.com/tgberrios/datasync/internal/alerting/channel"
)

// Store is the alert/rule persistence contract, following
// internal/catalog.Store and internal/processlog.Store's shape: every
// mutation is a single self-contained call, no cursor or transaction
// leaks to the caller.
type Store interface {
	// CreateAlert inserts alert with status OPEN and returns its
	// assigned ID. CreatedAt/UpdatedAt are stamped by the store.
	CreateAlert(ctx context.Context, alert Alert) (id int64, err error)

	// UpdateAlertStatus transitions id to status, optionally reassigning
	// AssignedTo (empty leaves it untouched).
	UpdateAlertStatus(ctx context.Context, id int64, status Status, assignedTo string) error

	// ResolveAlert transitions id to RESOLVED and stamps ResolvedAt.
	ResolveAlert(ctx context.Context, id int64, resolvedBy string) error

	// ListActive returns OPEN alerts, most recent first, optionally
	// filtered by severity (empty = all), capped at limit.
	ListActive(ctx context.Context, severity Severity, limit int) ([]Alert, error)

	// ListByType returns alerts of typ created within the last `days`
	// days, most recent first.
	ListByType(ctx context.Context, typ Type, days int) ([]Alert, error)

	// ListForTable returns every alert ever raised against
	// (schema, table), most recent first.
	ListForTable(ctx context.Context, schema, table string) ([]Alert, error)

	// UpsertRule inserts or replaces the rule named rule.Name.
	UpsertRule(ctx context.Context, rule AlertRule) error

	// ListRules returns every rule, enabled and disabled.
	ListRules(ctx context.Context) ([]AlertRule, error)

	// ListActiveRules returns only enabled rules.
	ListActiveRules(ctx context.Context) ([]AlertRule, error)

	// SetRuleEnabled flips one rule's enabled flag.
	SetRuleEnabled(ctx context.Context, name string, enabled bool) error

	// DeleteRule removes a rule by name. Deleting an unknown rule is a
	// no-op, not an error.
	DeleteRule(ctx context.Context, name string) error

	// UpsertWebhook inserts or replaces the webhook named cfg.Name.
	UpsertWebhook(ctx context.Context, cfg channel.Config) error

	// ListWebhooks returns every configured webhook, enabled and
	// disabled; a Store is always a valid WebhookSource for Dispatcher.
	ListWebhooks(ctx context.Context) ([]channel.Config, error)

	// DeleteWebhook removes a webhook by name. A no-op on an unknown
	// name.
	DeleteWebhook(ctx context.Context, name string) error
}
