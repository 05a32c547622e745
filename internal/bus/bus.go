// Package bus fans out connection state-change events to any number of
// live observers (browser tabs holding an SSE stream open).
//
// Subscribers only see events published after they subscribe; there is
// no replay. Delivery to one subscriber never blocks delivery to the
// others: a subscriber whose buffer is full simply misses that event,
// and a dead subscriber is removed when its connection handler calls
// Unsubscribe.
package bus

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is a named notification with a small JSON-able payload.
type Event struct {
	Name string
	Data map[string]any
}

// subscriberBuffer bounds how many undelivered events a slow observer
// may accumulate before publishes start dropping for it.
const subscriberBuffer = 16

// Hub is the broadcast registry.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]chan Event
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]chan Event)}
}

// Subscribe registers a new observer and returns its ID and delivery
// channel. The channel is registered before returning, so every event
// published afterwards is delivered in publish order.
func (h *Hub) Subscribe() (string, <-chan Event) {
	id := uuid.NewString()
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	h.subs[id] = ch
	total := len(h.subs)
	h.mu.Unlock()

	slog.Info("event subscriber connected", "id", id, "total", total)
	return id, ch
}

// Unsubscribe removes an observer and closes its channel. Idempotent:
// both the connection handler's defer and explicit cleanup may call it.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	ch, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
		close(ch)
	}
	total := len(h.subs)
	h.mu.Unlock()

	if ok {
		slog.Info("event subscriber disconnected", "id", id, "total", total)
	}
}

// Publish delivers an event to every registered observer. Sends are
// non-blocking: a full buffer means that observer misses this event,
// and the others still receive it.
func (h *Hub) Publish(name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["ts"]; !ok {
		data["ts"] = time.Now().UnixMilli()
	}
	ev := Event{Name: name, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			slog.Debug("event dropped for slow subscriber", "id", id, "event", name)
		}
	}
}

// SubscriberCount returns the number of registered observers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
