package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookNotifier posts lead events to the owner's chat webhook URL as a
// JSON message.
type WebhookNotifier struct {
	client *http.Client
}

func NewWebhookNotifier() *WebhookNotifier {
	return &WebhookNotifier{
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type webhookMessage struct {
	Text  string `json:"text"`
	Event Event  `json:"event"`
}

// Notify posts the event to the target's webhook URL. Targets without a
// webhook are skipped.
func (n *WebhookNotifier) Notify(ctx context.Context, target Target, event Event) error {
	if target.WebhookURL == "" {
		return nil
	}

	message := webhookMessage{
		Text:  fmt.Sprintf("Lead %s for %s is now %s", event.LeadID, event.CustomerName, event.Status),
		Event: event,
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.WebhookURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
