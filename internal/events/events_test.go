package events

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestPublishReachesSubscribers(t *testing.T) {
	bus := NewBus()
	var got []Event
	bus.Subscribe(AppointmentCreated, func(e Event) error {
		got = append(got, e)
		return nil
	})
	bus.Subscribe(AppointmentCancelled, func(e Event) error {
		t.Error("wrong event type delivered")
		return nil
	})

	bus.Publish(Event{Type: AppointmentCreated, Payload: []byte(`{}`)})

	if len(got) != 1 {
		t.Fatalf("delivered %d events, want 1", len(got))
	}
	if got[0].CreatedAt.IsZero() {
		t.Error("publish must stamp CreatedAt")
	}
}

func TestPublishJSON(t *testing.T) {
	bus := NewBus()
	var payload map[string]int64
	bus.Subscribe(AppointmentCreated, func(e Event) error {
		return json.Unmarshal(e.Payload, &payload)
	})

	if err := bus.PublishJSON(AppointmentCreated, map[string]int64{"id": 7}); err != nil {
		t.Fatal(err)
	}
	if payload["id"] != 7 {
		t.Errorf("payload round-trip failed: %v", payload)
	}
}

func TestHandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := NewBus()
	called := false
	bus.Subscribe(AppointmentDeleted, func(Event) error {
		return errors.New("boom")
	})
	bus.Subscribe(AppointmentDeleted, func(Event) error {
		called = true
		return nil
	})

	bus.Publish(Event{Type: AppointmentDeleted})

	if !called {
		t.Error("later handlers must still run")
	}
}

func TestPublishWithoutSubscribers(t *testing.T) {
	// Must not panic.
	NewBus().Publish(Event{Type: AppointmentCompleted})
}
