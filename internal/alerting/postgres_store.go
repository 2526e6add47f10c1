package alerting

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tgberrios/datasync/internal/alerting/channel"
)

// PostgresStore is the production Store, realizing the alerts/
// alert_rules tables from the external interfaces section.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an already-established pool. Callers own the
// pool's lifecycle (Close).
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the alerts, alert_rules and webhooks tables if absent. It is
// idempotent and safe to call on every process start, mirroring
// internal/catalog.PostgresStore.EnsureSchema.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS alerts (
	id           bigserial PRIMARY KEY,
	type         text NOT NULL,
	severity     text NOT NULL,
	title        text NOT NULL,
	message      text NOT NULL,
	schema_name  text NOT NULL DEFAULT '',
	table_name   text NOT NULL DEFAULT '',
	column_name  text NOT NULL DEFAULT '',
	source       text NOT NULL DEFAULT '',
	status       text NOT NULL DEFAULT 'OPEN',
	assigned_to  text NOT NULL DEFAULT '',
	resolved_at  timestamptz,
	metadata     jsonb NOT NULL DEFAULT '{}',
	created_at   timestamptz NOT NULL DEFAULT now(),
	updated_at   timestamptz NOT NULL DEFAULT now()
)`)
	if err != nil {
		return fmt.Errorf("alerting: ensure alerts schema: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS alert_rules (
	id          bigserial PRIMARY KEY,
	name        text NOT NULL UNIQUE,
	type        text NOT NULL,
	severity    text NOT NULL,
	condition   text NOT NULL DEFAULT '',
	threshold   double precision NOT NULL DEFAULT 0,
	enabled     boolean NOT NULL DEFAULT true,
	channels    jsonb NOT NULL DEFAULT '[]',
	created_at  timestamptz NOT NULL DEFAULT now(),
	updated_at  timestamptz NOT NULL DEFAULT now()
)`)
	if err != nil {
		return fmt.Errorf("alerting: ensure alert_rules schema: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS webhooks (
	id             bigserial PRIMARY KEY,
	name           text NOT NULL UNIQUE,
	type           text NOT NULL,
	url            text NOT NULL DEFAULT '',
	api_key        text NOT NULL DEFAULT '',
	bot_token      text NOT NULL DEFAULT '',
	chat_id        text NOT NULL DEFAULT '',
	email          text NOT NULL DEFAULT '',
	log_levels     jsonb NOT NULL DEFAULT '[]',
	log_categories jsonb NOT NULL DEFAULT '[]',
	enabled        boolean NOT NULL DEFAULT true
)`)
	if err != nil {
		return fmt.Errorf("alerting: ensure webhooks schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAlert(ctx context.Context, alert Alert) (int64, error) {
	metaJSON, err := json.Marshal(alert.Metadata)
	if err != nil {
		return 0, fmt.Errorf("alerting: encode metadata: %w", err)
	}

	var id int64
	err = s.pool.QueryRow(ctx, `
INSERT INTO alerts (type, severity, title, message, schema_name, table_name, column_name, source, status, metadata)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,'OPEN',$9)
RETURNING id`,
		alert.Type, alert.Severity, alert.Title, alert.Message,
		alert.Schema, alert.Table, alert.Column, alert.Source, metaJSON).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("alerting: create alert: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) UpdateAlertStatus(ctx context.Context, id int64, status Status, assignedTo string) error {
	tag, err := s.pool.Exec(ctx, `
UPDATE alerts SET status=$1,
	assigned_to = CASE WHEN $2 != '' THEN $2 ELSE assigned_to END,
	updated_at = now()
WHERE id=$3`, status, assignedTo, id)
	if err != nil {
		return fmt.Errorf("alerting: update alert status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errAlertNotFound(id)
	}
	return nil
}

func (s *PostgresStore) ResolveAlert(ctx context.Context, id int64, resolvedBy string) error {
	tag, err := s.pool.Exec(ctx, `
UPDATE alerts SET status='RESOLVED', resolved_at=now(),
	assigned_to = CASE WHEN $1 != '' THEN $1 ELSE assigned_to END,
	updated_at = now()
WHERE id=$2`, resolvedBy, id)
	if err != nil {
		return fmt.Errorf("alerting: resolve alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errAlertNotFound(id)
	}
	return nil
}

func (s *PostgresStore) ListActive(ctx context.Context, severity Severity, limit int) ([]Alert, error) {
	query := `
SELECT id, type, severity, title, message, schema_name, table_name, column_name,
       source, status, assigned_to, resolved_at, metadata, created_at, updated_at
FROM alerts WHERE status = 'OPEN'`
	args := []any{}
	if severity != "" {
		args = append(args, severity)
		query += fmt.Sprintf(" AND severity = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("alerting: list active: %w", err)
	}
	defer rows.Close()
	return scanAlerts(rows)
}

func (s *PostgresStore) ListByType(ctx context.Context, typ Type, days int) ([]Alert, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, type, severity, title, message, schema_name, table_name, column_name,
       source, status, assigned_to, resolved_at, metadata, created_at, updated_at
FROM alerts
WHERE type = $1 AND created_at >= now() - ($2 || ' days')::interval
ORDER BY created_at DESC`, typ, days)
	if err != nil {
		return nil, fmt.Errorf("alerting: list by type: %w", err)
	}
	defer rows.Close()
	return scanAlerts(rows)
}

func (s *PostgresStore) ListForTable(ctx context.Context, schema, table string) ([]Alert, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, type, severity, title, message, schema_name, table_name, column_name,
       source, status, assigned_to, resolved_at, metadata, created_at, updated_at
FROM alerts WHERE schema_name = $1 AND table_name = $2
ORDER BY created_at DESC`, schema, table)
	if err != nil {
		return nil, fmt.Errorf("alerting: list for table: %w", err)
	}
	defer rows.Close()
	return scanAlerts(rows)
}

type pgRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanAlerts(rows pgRows) ([]Alert, error) {
	var out []Alert
	for rows.Next() {
		var a Alert
		var metaRaw []byte
		var resolvedAt *time.Time
		if err := rows.Scan(&a.ID, &a.Type, &a.Severity, &a.Title, &a.Message,
			&a.Schema, &a.Table, &a.Column, &a.Source, &a.Status, &a.AssignedTo,
			&resolvedAt, &metaRaw, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("alerting: scan alert: %w", err)
		}
		if resolvedAt != nil {
			a.ResolvedAt = *resolvedAt
		}
		if len(metaRaw) > 0 {
			if err := json.Unmarshal(metaRaw, &a.Metadata); err != nil {
				return nil, fmt.Errorf("alerting: decode metadata: %w", err)
			}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpsertRule(ctx context.Context, rule AlertRule) error {
	channelsJSON, err := json.Marshal(rule.Channels)
	if err != nil {
		return fmt.Errorf("alerting: encode channels: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO alert_rules (name, type, severity, condition, threshold, enabled, channels)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (name) DO UPDATE SET
	type = EXCLUDED.type, severity = EXCLUDED.severity, condition = EXCLUDED.condition,
	threshold = EXCLUDED.threshold, enabled = EXCLUDED.enabled, channels = EXCLUDED.channels,
	updated_at = now()`,
		rule.Name, rule.Type, rule.Severity, rule.Condition, rule.Threshold, rule.Enabled, channelsJSON)
	if err != nil {
		return fmt.Errorf("alerting: upsert rule: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRules(ctx context.Context) ([]AlertRule, error) {
	return s.listRules(ctx, `SELECT name, type, severity, condition, threshold, enabled, channels, created_at, updated_at FROM alert_rules ORDER BY name`)
}

func (s *PostgresStore) ListActiveRules(ctx context.Context) ([]AlertRule, error) {
	return s.listRules(ctx, `SELECT name, type, severity, condition, threshold, enabled, channels, created_at, updated_at FROM alert_rules WHERE enabled = true ORDER BY name`)
}

func (s *PostgresStore) listRules(ctx context.Context, query string) ([]AlertRule, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("alerting: list rules: %w", err)
	}
	defer rows.Close()

	var out []AlertRule
	for rows.Next() {
		var r AlertRule
		var channelsRaw []byte
		if err := rows.Scan(&r.Name, &r.Type, &r.Severity, &r.Condition, &r.Threshold,
			&r.Enabled, &channelsRaw, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("alerting: scan rule: %w", err)
		}
		if len(channelsRaw) > 0 {
			if err := json.Unmarshal(channelsRaw, &r.Channels); err != nil {
				return nil, fmt.Errorf("alerting: decode channels: %w", err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SetRuleEnabled(ctx context.Context, name string, enabled bool) error {
	tag, err := s.pool.Exec(ctx, `UPDATE alert_rules SET enabled=$1, updated_at=now() WHERE name=$2`, enabled, name)
	if err != nil {
		return fmt.Errorf("alerting: set rule enabled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errRuleNotFound(name)
	}
	return nil
}

func (s *PostgresStore) DeleteRule(ctx context.Context, name string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM alert_rules WHERE name=$1`, name)
	if err != nil {
		return fmt.Errorf("alerting: delete rule: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpsertWebhook(ctx context.Context, cfg channel.Config) error {
	levelsJSON, err := json.Marshal(cfg.LogLevels)
	if err != nil {
		return fmt.Errorf("alerting: encode log_levels: %w", err)
	}
	categoriesJSON, err := json.Marshal(cfg.LogCategories)
	if err != nil {
		return fmt.Errorf("alerting: encode log_categories: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
INSERT INTO webhooks (name, type, url, api_key, bot_token, chat_id, email, log_levels, log_categories, enabled)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (name) DO UPDATE SET
	type = EXCLUDED.type, url = EXCLUDED.url, api_key = EXCLUDED.api_key,
	bot_token = EXCLUDED.bot_token, chat_id = EXCLUDED.chat_id, email = EXCLUDED.email,
	log_levels = EXCLUDED.log_levels, log_categories = EXCLUDED.log_categories,
	enabled = EXCLUDED.enabled`,
		cfg.Name, cfg.Type, cfg.URL, cfg.APIKey, cfg.BotToken, cfg.ChatID, cfg.Email,
		levelsJSON, categoriesJSON, cfg.Enabled)
	if err != nil {
		return fmt.Errorf("alerting: upsert webhook: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListWebhooks(ctx context.Context) ([]channel.Config, error) {
	rows, err := s.pool.Query(ctx, `
SELECT name, type, url, api_key, bot_token, chat_id, email, log_levels, log_categories, enabled
FROM webhooks ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("alerting: list webhooks: %w", err)
	}
	defer rows.Close()

	var out []channel.Config
	for rows.Next() {
		var cfg channel.Config
		var levelsRaw, categoriesRaw []byte
		if err := rows.Scan(&cfg.Name, &cfg.Type, &cfg.URL, &cfg.APIKey, &cfg.BotToken,
			&cfg.ChatID, &cfg.Email, &levelsRaw, &categoriesRaw, &cfg.Enabled); err != nil {
			return nil, fmt.Errorf("alerting: scan webhook: %w", err)
		}
		if len(levelsRaw) > 0 {
			if err := json.Unmarshal(levelsRaw, &cfg.LogLevels); err != nil {
				return nil, fmt.Errorf("alerting: decode log_levels: %w", err)
			}
		}
		if len(categoriesRaw) > 0 {
			if err := json.Unmarshal(categoriesRaw, &cfg.LogCategories); err != nil {
				return nil, fmt.Errorf("alerting: decode log_categories: %w", err)
			}
		}
		out = append(out, cfg)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteWebhook(ctx context.Context, name string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM webhooks WHERE name=$1`, name)
	if err != nil {
		return fmt.Errorf("alerting: delete webhook: %w", err)
	}
	return nil
}
