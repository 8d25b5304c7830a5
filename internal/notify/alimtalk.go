package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// AlimtalkNotifier sends lead events to the owner's phone through an
// alimtalk-style messaging gateway.
type AlimtalkNotifier struct {
	url    string
	apiKey string
	sender string
	client *http.Client
}

func NewAlimtalkNotifier(url, apiKey, sender string) *AlimtalkNotifier {
	return &AlimtalkNotifier{
		url:    url,
		apiKey: apiKey,
		sender: sender,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type alimtalkMessage struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Message  string `json:"message"`
}

// Notify sends the event as a message to the target's phone. Targets
// without a phone number are skipped.
func (n *AlimtalkNotifier) Notify(ctx context.Context, target Target, event Event) error {
	if target.Phone == "" || n.url == "" {
		return nil
	}

	message := alimtalkMessage{
		Sender:   n.sender,
		Receiver: target.Phone,
		Message:  fmt.Sprintf("[Lead update] %s: %s", event.CustomerName, event.Status),
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal alimtalk message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to build alimtalk request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.apiKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send alimtalk message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("alimtalk gateway returned status %d", resp.StatusCode)
	}

	return nil
}
