package services

import (
	"testing"
	"time"
)

func TestHub_PublishRoutesByRecipient(t *testing.T) {
	hub := NewNotificationHub()

	alice := hub.Subscribe("alice-tab", 1)
	bob := hub.Subscribe("bob-tab", 2)
	defer hub.Unsubscribe("alice-tab")
	defer hub.Unsubscribe("bob-tab")

	hub.Publish(NotificationEvent{ID: 10, RecipientID: 1, Message: "for alice"})

	select {
	case event := <-alice:
		if event.Message != "for alice" {
			t.Errorf("alice got %q", event.Message)
		}
	case <-time.After(time.Second):
		t.Fatal("alice received nothing")
	}

	select {
	case event := <-bob:
		t.Errorf("bob should receive nothing, got %+v", event)
	default:
	}
}

func TestHub_MultipleClientsSameUser(t *testing.T) {
	hub := NewNotificationHub()

	tab1 := hub.Subscribe("tab-1", 1)
	tab2 := hub.Subscribe("tab-2", 1)
	defer hub.Unsubscribe("tab-1")
	defer hub.Unsubscribe("tab-2")

	hub.Publish(NotificationEvent{ID: 5, RecipientID: 1, Message: "fanout"})

	for name, ch := range map[string]<-chan NotificationEvent{"tab-1": tab1, "tab-2": tab2} {
		select {
		case event := <-ch:
			if event.ID != 5 {
				t.Errorf("%s got event %d", name, event.ID)
			}
		case <-time.After(time.Second):
			t.Fatalf("%s received nothing", name)
		}
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewNotificationHub()

	hub.Subscribe("gone", 1)
	if hub.ClientCount() != 1 {
		t.Fatalf("ClientCount = %d, expected 1", hub.ClientCount())
	}

	hub.Unsubscribe("gone")
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount = %d after unsubscribe, expected 0", hub.ClientCount())
	}

	// Publishing to no subscribers must not panic or block
	hub.Publish(NotificationEvent{ID: 1, RecipientID: 1})
}

func TestHub_SlowClientDoesNotBlockPublish(t *testing.T) {
	hub := NewNotificationHub()

	hub.Subscribe("slow", 1)
	defer hub.Unsubscribe("slow")

	// Overflow the buffer; Publish must stay non-blocking
	done := make(chan struct{})
	go func() {
		for i := 0; i < 300; i++ {
			hub.Publish(NotificationEvent{ID: uint(i), RecipientID: 1})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow client")
	}
}
