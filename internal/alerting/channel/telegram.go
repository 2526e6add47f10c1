package channel

import (
	"context"
	"fmt"
	"strings"
)

type telegramPayload struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

func telegramEmoji(severity string) string {
	switch severity {
	case "ERROR", "CRITICAL":
		return "❌"
	case "WARNING":
		return "⚠️"
	default:
		return "ℹ️"
	}
}

// TelegramSender posts a Markdown-formatted message via the Telegram
// bot API's sendMessage endpoint. cfg.BotToken and cfg.ChatID are
// required; a missing one is a no-op error, matching the original
// implementation's guard.
type TelegramSender struct{}

func (TelegramSender) Send(ctx context.Context, cfg Config, env Envelope) error {
	if cfg.BotToken == "" || cfg.ChatID == "" {
		return fmt.Errorf("channel: telegram webhook %s: missing bot_token or chat_id", cfg.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s*\n\n%s", telegramEmoji(env.Severity), env.Title, env.Message)
	if env.SchemaName != "" {
		fmt.Fprintf(&b, "\n\n*Schema:* %s", env.SchemaName)
	}
	if env.TableName != "" {
		fmt.Fprintf(&b, "\n*Table:* %s", env.TableName)
	}
	if env.ErrorMessage != "" {
		fmt.Fprintf(&b, "\n*Error:* %s", env.ErrorMessage)
	}

	url := "https://api.telegram.org/bot" + cfg.BotToken + "/sendMessage"
	payload := telegramPayload{ChatID: cfg.ChatID, Text: b.String(), ParseMode: "Markdown"}

	delivered, err := postJSON(ctx, url, "", payload)
	if err != nil {
		return err
	}
	if !delivered {
		return fmt.Errorf("channel: telegram webhook %s: non-2xx response", cfg.Name)
	}
	return nil
}
