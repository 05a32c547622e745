package bus

import (
	"testing"
)

func TestPublishFansOut(t *testing.T) {
	h := NewHub()
	id1, ch1 := h.Subscribe()
	id2, ch2 := h.Subscribe()
	defer h.Unsubscribe(id1)
	defer h.Unsubscribe(id2)

	h.Publish("code", map[string]any{"ts": int64(42)})

	for i, ch := range []<-chan Event{ch1, ch2} {
		ev := <-ch
		if ev.Name != "code" {
			t.Errorf("subscriber %d: got event %q, want code", i, ev.Name)
		}
		if ev.Data["ts"] != int64(42) {
			t.Errorf("subscriber %d: payload ts = %v", i, ev.Data["ts"])
		}
	}
}

func TestNewSubscriberSeesOnlyFutureEvents(t *testing.T) {
	h := NewHub()
	h.Publish("code", nil)

	id, ch := h.Subscribe()
	defer h.Unsubscribe(id)

	select {
	case ev := <-ch:
		t.Errorf("expected no replay, got %q", ev.Name)
	default:
	}
}

func TestPerSubscriberFIFO(t *testing.T) {
	h := NewHub()
	id, ch := h.Subscribe()
	defer h.Unsubscribe(id)

	order := []string{"code", "connected", "cleared"}
	for _, name := range order {
		h.Publish(name, nil)
	}
	for i, want := range order {
		if got := (<-ch).Name; got != want {
			t.Fatalf("event %d: got %q, want %q", i, got, want)
		}
	}
}

func TestSlowSubscriberDoesNotBlockOthers(t *testing.T) {
	h := NewHub()
	slowID, slowCh := h.Subscribe()
	fastID, fastCh := h.Subscribe()
	defer h.Unsubscribe(slowID)
	defer h.Unsubscribe(fastID)

	// Overflow the slow subscriber's buffer without draining it.
	for i := 0; i < subscriberBuffer+5; i++ {
		h.Publish("code", nil)
		<-fastCh
	}

	if len(slowCh) != subscriberBuffer {
		t.Errorf("slow subscriber buffer = %d, want %d", len(slowCh), subscriberBuffer)
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	h := NewHub()
	id, ch := h.Subscribe()

	h.Unsubscribe(id)
	h.Unsubscribe(id) // close callback and explicit cleanup may both fire

	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed after unsubscribe")
	}
	if n := h.SubscriberCount(); n != 0 {
		t.Errorf("subscriber count = %d, want 0", n)
	}
}
