package notify

import (
	"context"
	"sync"
)

// Listener receives a payload-less change notification; it re-reads
// whatever state it renders.
type Listener func(ctx context.Context)

// Tap observes notifications of every scope
type Tap func(ctx context.Context, scope string)

// Hub fans change notifications out to listeners grouped by scope. A scope
// is one storage namespace, for example one visitor's local cart.
type Hub struct {
	mu     sync.RWMutex
	scopes map[string]map[uint64]Listener
	taps   []Tap
	nextID uint64
}

func NewHub() *Hub {
	return &Hub{scopes: make(map[string]map[uint64]Listener)}
}

// AddTap registers an observer for all scopes
func (h *Hub) AddTap(tap Tap) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.taps = append(h.taps, tap)
}

// Scope returns the channel for one scope. Channels are cheap handles and
// need no cleanup.
func (h *Hub) Scope(name string) *Channel {
	return &Channel{hub: h, scope: name}
}

// Listeners reports how many listeners a scope has
func (h *Hub) Listeners(scope string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.scopes[scope])
}

func (h *Hub) subscribe(scope string, fn Listener) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	if h.scopes[scope] == nil {
		h.scopes[scope] = make(map[uint64]Listener)
	}
	h.scopes[scope][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.scopes[scope], id)
			if len(h.scopes[scope]) == 0 {
				delete(h.scopes, scope)
			}
		})
	}
}

func (h *Hub) notify(ctx context.Context, scope string) {
	// Deliver to the listeners registered at call time, outside the lock so
	// listeners may subscribe or unsubscribe.
	h.mu.RLock()
	listeners := make([]Listener, 0, len(h.scopes[scope]))
	for _, fn := range h.scopes[scope] {
		listeners = append(listeners, fn)
	}
	taps := append([]Tap(nil), h.taps...)
	h.mu.RUnlock()

	for _, fn := range listeners {
		fn(ctx)
	}
	for _, tap := range taps {
		tap(ctx, scope)
	}
}

// Channel is the notification endpoint of a single scope
type Channel struct {
	hub   *Hub
	scope string
}

func (c *Channel) Scope() string { return c.scope }

// Subscribe registers fn and returns a function that removes it
func (c *Channel) Subscribe(fn Listener) (unsubscribe func()) {
	return c.hub.subscribe(c.scope, fn)
}

// Notify broadcasts one change notification
func (c *Channel) Notify(ctx context.Context) {
	c.hub.notify(ctx, c.scope)
}
