// Package realtime delivers newly ingested sales to the stock decrement
// engine and to attached UI sessions. Sessions subscribe through an explicit
// registry with a matching detach, so a closed session never leaks a
// subscription.
package realtime

import (
	"context"
	"sync"

	"pharmstock/pkg/logger"
)

// Event is one realtime notification pushed to sessions.
type Event struct {
	Kind   string `json:"kind"`
	SaleID string `json:"saleId,omitempty"`
}

const (
	// EventSaleApplied fires after a sale's lines went through the
	// decrement engine; the ordering screen rebuilds its list on it.
	EventSaleApplied = "sale_applied"
	// EventStockChanged fires on direct lot edits.
	EventStockChanged = "stock_changed"
)

// Registry fans events out to attached sessions. Attach returns a token the
// caller must pass to Detach; slow sessions drop events instead of blocking
// the fan-out.
type Registry struct {
	mu       sync.Mutex
	next     int
	sessions map[int]chan Event
	closed   bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[int]chan Event)}
}

// Attach subscribes a session. The channel is buffered; the returned token
// releases the subscription via Detach.
func (r *Registry) Attach() (<-chan Event, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan Event, 16)
	if r.closed {
		close(ch)
		return ch, -1
	}
	token := r.next
	r.next++
	r.sessions[token] = ch
	return ch, token
}

// Detach releases a subscription and closes its channel. Detaching twice or
// with an unknown token is a no-op.
func (r *Registry) Detach(token int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ch, ok := r.sessions[token]; ok {
		delete(r.sessions, token)
		close(ch)
	}
}

// Publish delivers an event to every attached session. Sessions that cannot
// keep up miss the event; the ordering screen rebuilds from scratch on the
// next one anyway.
func (r *Registry) Publish(ctx context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	for token, ch := range r.sessions {
		select {
		case ch <- ev:
		default:
			logger.Debug(ctx, "dropping realtime event for slow session",
				"token", token,
				"kind", ev.Kind,
			)
		}
	}
}

// Close detaches every session. Further Attach calls return a closed
// channel.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	for token, ch := range r.sessions {
		delete(r.sessions, token)
		close(ch)
	}
}
