// Package pubsub provides the in-process fanout hub. One hub instance
// serves the telemetry engine; the channel client owns a separate
// instance for its transport events. Delivery is synchronous and
// per-subscriber failures are isolated: a panicking callback never
// prevents delivery to the remaining subscribers.
package pubsub

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/c360/plantstream/types"
)

// Callback receives published events. Callbacks run synchronously on
// the publisher's goroutine and must not assume exclusivity.
type Callback func(types.Event)

type subscription struct {
	callback Callback
	plantID  string // "" = global subscription, receives everything
}

// Hub maintains the subscriber registry and fans events out. Callers
// hold only the opaque token needed to cancel.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]subscription
	logger *slog.Logger
}

// New creates an empty hub. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:   make(map[string]subscription),
		logger: logger,
	}
}

// Subscribe registers a callback for all events and returns the token
// used to cancel it.
func (h *Hub) Subscribe(fn Callback) string {
	return h.add(subscription{callback: fn})
}

// SubscribeToPlant registers a callback invoked only for events scoped
// to the given plant or explicitly global.
func (h *Hub) SubscribeToPlant(plantID string, fn Callback) string {
	return h.add(subscription{callback: fn, plantID: plantID})
}

func (h *Hub) add(sub subscription) string {
	token := uuid.NewString()
	h.mu.Lock()
	h.subs[token] = sub
	h.mu.Unlock()
	return token
}

// Unsubscribe removes a subscription. Safe to call multiple times; calls
// after the first are no-ops.
func (h *Hub) Unsubscribe(token string) {
	h.mu.Lock()
	delete(h.subs, token)
	h.mu.Unlock()
}

// Publish delivers the event to every matching subscriber synchronously,
// in stable (sorted token) order. Delivery does not batch or coalesce;
// a subscriber panic is recovered and logged, and the remaining
// subscribers still receive the event.
func (h *Hub) Publish(event types.Event) {
	h.mu.RLock()
	tokens := make([]string, 0, len(h.subs))
	for token := range h.subs {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)

	matched := make([]Callback, 0, len(tokens))
	for _, token := range tokens {
		sub := h.subs[token]
		if sub.plantID == "" || event.Scope() == "" || event.Scope() == sub.plantID {
			matched = append(matched, sub.callback)
		}
	}
	h.mu.RUnlock()

	for _, fn := range matched {
		h.deliver(fn, event)
	}
}

func (h *Hub) deliver(fn Callback, event types.Event) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("subscriber panicked during notification",
				"event_type", event.EventType(),
				"panic", r)
		}
	}()
	fn(event)
}

// Len returns the number of active subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
