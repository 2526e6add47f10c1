package channel

import (
	"context"
	"fmt"
)

// HTTPSender POSTs the Envelope as-is to cfg.URL, with an optional
// bearer token from cfg.APIKey. This is the HTTP webhook type; the
// other adapters all re-shape the Envelope before delegating to the
// same shared client.
type HTTPSender struct{}

func (HTTPSender) Send(ctx context.Context, cfg Config, env Envelope) error {
	delivered, err := postJSON(ctx, cfg.URL, cfg.APIKey, env)
	if err != nil {
		return err
	}
	if !delivered {
		return fmt.Errorf("channel: http webhook %s: non-2xx response", cfg.Name)
	}
	return nil
}
