// Package identity adapts sign-in providers and publishes session changes.
package identity

import (
	"context"
	"sync"
	"time"

	"quizontal-backend/internal/models"
)

// EventKind tells whether a session began or ended
type EventKind string

const (
	SessionStarted EventKind = "session_started"
	SessionEnded   EventKind = "session_ended"
)

// Event is a change of the current session of one user
type Event struct {
	Kind     EventKind       `json:"type"`
	Identity models.Identity `json:"identity"`
	At       time.Time       `json:"at"`
}

// Notifier is a single-consumer channel of session events
type Notifier struct {
	mu     sync.RWMutex
	closed bool
	events chan Event
}

// NewNotifier creates a notifier with the given buffer size
func NewNotifier(buffer int) *Notifier {
	return &Notifier{events: make(chan Event, buffer)}
}

// Publish delivers ev to the consumer. It blocks while the buffer is full
// and gives up when ctx is done or the notifier is closed.
func (n *Notifier) Publish(ctx context.Context, ev Event) error {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		return nil
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	select {
	case n.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events returns the receive side for the single consumer
func (n *Notifier) Events() <-chan Event {
	return n.events
}

// Close stops accepting events and closes the channel
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.closed {
		n.closed = true
		close(n.events)
	}
}
