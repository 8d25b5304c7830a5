package notify

import (
	"context"
	"errors"
	"testing"
)

type recordingNotifier struct {
	calls int
	err   error
}

func (r *recordingNotifier) Notify(ctx context.Context, target Target, event Event) error {
	r.calls++
	return r.err
}

func TestNopNotifier(t *testing.T) {
	var n Notifier = NopNotifier{}

	err := n.Notify(context.Background(), Target{Phone: "010-0000-0000"}, Event{LeadID: "x"})
	if err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestMultiNotifierDeliversToEveryChannel(t *testing.T) {
	first := &recordingNotifier{}
	second := &recordingNotifier{}

	m := NewMultiNotifier(first, second)
	if err := m.Notify(context.Background(), Target{}, Event{}); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	if first.calls != 1 || second.calls != 1 {
		t.Errorf("expected one delivery per channel, got %d and %d", first.calls, second.calls)
	}
}

func TestMultiNotifierCollectsFailures(t *testing.T) {
	failing := &recordingNotifier{err: errors.New("gateway down")}
	healthy := &recordingNotifier{}

	m := NewMultiNotifier(failing, healthy)
	err := m.Notify(context.Background(), Target{}, Event{})
	if err == nil {
		t.Fatal("expected an error from the failing channel")
	}

	// One channel failing must not stop the others.
	if healthy.calls != 1 {
		t.Errorf("expected delivery to the healthy channel, got %d calls", healthy.calls)
	}
}
