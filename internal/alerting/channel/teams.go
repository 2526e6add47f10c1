package channel

import (
	"context"
	"fmt"
)

type teamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type teamsSection struct {
	ActivityTitle string      `json:"activityTitle"`
	Text          string      `json:"text"`
	Facts         []teamsFact `json:"facts"`
}

type teamsPayload struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	Summary    string         `json:"summary"`
	ThemeColor string         `json:"themeColor"`
	Sections   []teamsSection `json:"sections"`
}

// TeamsSender re-shapes an Envelope into an Office 365 Connector
// MessageCard.
type TeamsSender struct{}

func (TeamsSender) Send(ctx context.Context, cfg Config, env Envelope) error {
	section := teamsSection{ActivityTitle: env.Title, Text: env.Message}
	if env.SchemaName != "" {
		section.Facts = append(section.Facts, teamsFact{Name: "Schema", Value: env.SchemaName})
	}
	if env.TableName != "" {
		section.Facts = append(section.Facts, teamsFact{Name: "Table", Value: env.TableName})
	}
	section.Facts = append(section.Facts, teamsFact{Name: "Severity", Value: env.Severity})
	if env.ErrorMessage != "" {
		section.Facts = append(section.Facts, teamsFact{Name: "Error", Value: env.ErrorMessage})
	}

	payload := teamsPayload{
		Type: "MessageCard", Context: "https://schema.org/extensions",
		Summary:    env.Title,
		ThemeColor: severityColor(env.Severity, "FF0000", "FFA500", "00FF00"),
		Sections:   []teamsSection{section},
	}

	delivered, err := postJSON(ctx, cfg.URL, "", payload)
	if err != nil {
		return err
	}
	if !delivered {
		return fmt.Errorf("channel: teams webhook %s: non-2xx response", cfg.Name)
	}
	return nil
}
