package channel

import (
	"context"
	"fmt"
)

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Fields []slackField `json:"fields"`
	TS     int64        `json:"ts"`
}

type slackPayload struct {
	Text        string            `json:"text"`
	Attachments []slackAttachment `json:"attachments"`
}

// SlackSender re-shapes an Envelope into a single attachment with one
// field per non-empty envelope field, colored by severity.
type SlackSender struct{}

func (SlackSender) Send(ctx context.Context, cfg Config, env Envelope) error {
	att := slackAttachment{
		Color: severityColor(env.Severity, "danger", "warning", "good"),
		TS:    env.Timestamp.Unix(),
	}
	att.Fields = append(att.Fields, slackField{Title: "Message", Value: env.Message})
	if env.SchemaName != "" {
		att.Fields = append(att.Fields, slackField{Title: "Schema", Value: env.SchemaName, Short: true})
	}
	if env.TableName != "" {
		att.Fields = append(att.Fields, slackField{Title: "Table", Value: env.TableName, Short: true})
	}
	if env.Status != "" {
		att.Fields = append(att.Fields, slackField{Title: "Status", Value: env.Status, Short: true})
	}
	if env.ErrorMessage != "" {
		att.Fields = append(att.Fields, slackField{Title: "Error", Value: env.ErrorMessage})
	}
	att.Fields = append(att.Fields, slackField{Title: "Severity", Value: env.Severity, Short: true})

	payload := slackPayload{Text: env.Title, Attachments: []slackAttachment{att}}

	delivered, err := postJSON(ctx, cfg.URL, "", payload)
	if err != nil {
		return err
	}
	if !delivered {
		return fmt.Errorf("channel: slack webhook %s: non-2xx response", cfg.Name)
	}
	return nil
}
