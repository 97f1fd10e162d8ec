// Package stage publishes HUD stage transitions as a sequenced in-memory
// feed the frontend reads incrementally.
package stage

import (
	"sync"
	"time"

	"push-to-type/internal/domain"
)

// Event is one sequenced stage transition consumed by UI subscribers.
type Event struct {
	Seq       int64        `json:"seq"`
	Timestamp time.Time    `json:"timestamp"`
	Stage     domain.Stage `json:"stage"`
	Role      domain.Role  `json:"role,omitempty"`
	Message   string       `json:"message,omitempty"`
}

// Bus stores recent stage events and provides incremental reads.
type Bus struct {
	mu        sync.RWMutex
	nextSeq   int64
	maxEvents int
	events    []Event

	current domain.Stage
}

// NewBus creates a bounded in-memory stage feed starting at idle.
func NewBus(maxEvents int) *Bus {
	if maxEvents <= 0 {
		maxEvents = 500
	}

	return &Bus{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
		current:   domain.StageIdle,
	}
}

// Publish appends one transition and assigns sequence and timestamp.
func (b *Bus) Publish(event Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	b.current = event.Stage

	b.events = append(b.events, event)
	if len(b.events) > b.maxEvents {
		trim := len(b.events) - b.maxEvents
		b.events = append([]Event(nil), b.events[trim:]...)
	}

	return event
}

// Current returns the most recently published stage.
func (b *Bus) Current() domain.Stage {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current
}

// Since returns events with sequence strictly greater than seq.
func (b *Bus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.events) == 0 {
		return nil
	}

	out := make([]Event, 0, len(b.events))
	for _, event := range b.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}
