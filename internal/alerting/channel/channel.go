// Package channel re-shapes a governance Envelope into each webhook
// type's native payload and delivers it over a single shared HTTP
// client. Grounded on the original implementation's WebhookManager
// (one send* method per WebhookType, curl with a 10s timeout), adapted
// to Go's net/http and one Sender per file instead of one switch.
package channel

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// Timeout bounds every webhook HTTP call (§5's "Webhook HTTP calls have
// a fixed 10s timeout").
const Timeout = 10 * time.Second

// Envelope is the webhook payload envelope from the external interfaces
// section: {event_type, title, message, severity, timestamp,
// schema_name?, table_name?, db_engine?, status?, error_message?}.
type Envelope struct {
	EventType    string    `json:"event_type"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	Severity     string    `json:"severity"`
	Timestamp    time.Time `json:"timestamp"`
	SchemaName   string    `json:"schema_name,omitempty"`
	TableName    string    `json:"table_name,omitempty"`
	DBEngine     string    `json:"db_engine,omitempty"`
	Status       string    `json:"status,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// Config is one webhook subscriber's delivery configuration.
type Config struct {
	Name          string
	Type          string // HTTP, SLACK, TEAMS, TELEGRAM, EMAIL
	URL           string
	APIKey        string
	BotToken      string
	ChatID        string
	Email         string
	LogLevels     []string
	LogCategories []string
	Enabled       bool
}

// Sender delivers env to one webhook subscriber. Best-effort: an error
// means "not delivered", never a signal to retry — callers must accept
// lossy fan-out per §4.11.
type Sender interface {
	Send(ctx context.Context, cfg Config, env Envelope) error
}

// sharedClient is the one *http.Client every Sender in this package
// uses, per §5's "webhook HTTP calls have a fixed 10s timeout" rather
// than a per-call client.
var sharedClient = &http.Client{Timeout: Timeout}

// postJSON POSTs body as JSON to url with an optional bearer token,
// and reports delivered=true iff the response status is 2xx.
func postJSON(ctx context.Context, url, bearer string, body any) (delivered bool, err error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return false, fmt.Errorf("channel: encode payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("channel: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := sharedClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("channel: post %s: %w", url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
}

// severityColor maps a severity string onto a hex/named color the way
// the original implementation's Slack/Teams builders do.
func severityColor(severity, danger, warn, good string) string {
	switch severity {
	case "ERROR", "CRITICAL":
		return danger
	case "WARNING":
		return warn
	default:
		return good
	}
}
