package notify

import (
	"context"
	"errors"
	"log"
)

// Target is the lead owner's registered contact channel. A partner may have
// any combination of channels configured; notifiers skip targets that lack
// their channel.
type Target struct {
	Phone      string
	WebhookURL string
}

// Event describes a lead lifecycle event worth telling the owner about.
type Event struct {
	LeadID       string `json:"lead_id"`
	MarketerCode string `json:"marketer_code"`
	CustomerName string `json:"customer_name"`
	Status       string `json:"status"`
}

// Notifier delivers a lead event to a contact channel. Delivery is
// decorative to the core operation's success: callers log failures and move
// on.
type Notifier interface {
	Notify(ctx context.Context, target Target, event Event) error
}

// MultiNotifier fans an event out to every configured channel.
type MultiNotifier struct {
	notifiers []Notifier
}

func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Notify delivers the event through each channel, collecting failures.
func (m *MultiNotifier) Notify(ctx context.Context, target Target, event Event) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, target, event); err != nil {
			log.Printf("Notify: delivery failed: %v", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NopNotifier drops every event. It stands in for the real channels when
// outbound delivery is disabled.
type NopNotifier struct{}

func (NopNotifier) Notify(ctx context.Context, target Target, event Event) error {
	return nil
}
