package hub

import (
	"sync"

	"github.com/shahin-grc/collab/pkg/logger"
)

// Handler consumes a published payload.
type Handler func(payload any)

// Hub is an in-process publish/subscribe registry. It is the seam between
// the transport and every state tracker: the session publishes, trackers
// and view bindings subscribe, and neither side knows about the other.
type Hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[string][]*subscription
}

type subscription struct {
	id      uint64
	handler Handler
}

// New returns an empty Hub.
func New() *Hub {
	return &Hub{subs: make(map[string][]*subscription)}
}

// Subscribe registers a handler for an event name and returns a disposer.
//
// The disposer removes exactly the registration it was returned for, even if
// the same handler function is subscribed multiple times, and is idempotent.
func (h *Hub) Subscribe(event string, handler Handler) func() {
	h.mu.Lock()
	h.nextID++
	sub := &subscription{id: h.nextID, handler: handler}
	h.subs[event] = append(h.subs[event], sub)
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.remove(event, sub.id)
		})
	}
}

func (h *Hub) remove(event string, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.subs[event]
	for i, sub := range subs {
		if sub.id == id {
			h.subs[event] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// Publish invokes every handler registered for the event, in registration
// order. A panic in one handler is recovered and logged; remaining handlers
// still run.
func (h *Hub) Publish(event string, payload any) {
	h.mu.Lock()
	subs := h.subs[event]
	snapshot := make([]*subscription, len(subs))
	copy(snapshot, subs)
	h.mu.Unlock()

	for _, sub := range snapshot {
		h.invoke(event, sub, payload)
	}
}

func (h *Hub) invoke(event string, sub *subscription, payload any) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("hub: handler for %q panicked: %v", event, r)
		}
	}()
	sub.handler(payload)
}

// Clear drops every registration. Used at session teardown so no handler
// from a previous login leaks into the next one.
func (h *Hub) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs = make(map[string][]*subscription)
}

// HandlerCount reports the number of live registrations for an event.
func (h *Hub) HandlerCount(event string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[event])
}
