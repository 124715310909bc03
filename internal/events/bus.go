// Package events reports pipeline progress to observers: the CLI progress
// printer, the SSE endpoint and tests. Publishing never blocks the pipeline;
// slow subscribers lose their oldest queued events.
package events

import (
	"sync"
	"sync/atomic"
	"time"
)

// Event is implemented by every pipeline event.
type Event interface {
	EventType() string
	Timestamp() time.Time
	RunID() string
}

// BaseEvent carries the fields shared by all events.
type BaseEvent struct {
	Type string    `json:"type"`
	Time time.Time `json:"timestamp"`
	Run  string    `json:"run_id"`
}

func (e BaseEvent) EventType() string    { return e.Type }
func (e BaseEvent) Timestamp() time.Time { return e.Time }
func (e BaseEvent) RunID() string        { return e.Run }

// NewBaseEvent stamps an event of eventType for runID.
func NewBaseEvent(eventType, runID string) BaseEvent {
	return BaseEvent{Type: eventType, Time: time.Now(), Run: runID}
}

type subscription struct {
	ch    chan Event
	run   string          // empty matches every run
	types map[string]bool // empty matches every type
}

func newSubscription(size int, run string, types []string) *subscription {
	s := &subscription{ch: make(chan Event, size), run: run}
	if len(types) > 0 {
		s.types = make(map[string]bool, len(types))
		for _, t := range types {
			s.types[t] = true
		}
	}
	return s
}

func (s *subscription) matches(e Event) bool {
	if s.run != "" && e.RunID() != s.run {
		return false
	}
	return len(s.types) == 0 || s.types[e.EventType()]
}

// offer delivers e without blocking. When the buffer is full the oldest
// queued event is discarded to make room; it returns how many events were
// lost.
func (s *subscription) offer(e Event) int64 {
	select {
	case s.ch <- e:
		return 0
	default:
	}
	var lost int64
	select {
	case <-s.ch:
		lost++
	default:
	}
	select {
	case s.ch <- e:
	default:
		lost++
	}
	return lost
}

// EventBus fans pipeline events out to subscribers.
type EventBus struct {
	mu         sync.RWMutex
	subs       []*subscription
	bufferSize int
	dropped    int64
	closed     bool
}

// New creates a bus whose subscriptions buffer bufferSize events.
func New(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &EventBus{bufferSize: bufferSize}
}

// Subscribe returns a channel receiving events of the given types, or of
// every type when none are given. Slow readers lose the oldest events.
func (eb *EventBus) Subscribe(types ...string) <-chan Event {
	return eb.SubscribeRun("", types...)
}

// SubscribeRun is Subscribe restricted to the events of one run. An empty
// runID matches every run.
func (eb *EventBus) SubscribeRun(runID string, types ...string) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	sub := newSubscription(eb.bufferSize, runID, types)
	if eb.closed {
		close(sub.ch)
		return sub.ch
	}
	eb.subs = append(eb.subs, sub)
	return sub.ch
}

// Unsubscribe removes the subscription behind ch and closes it.
func (eb *EventBus) Unsubscribe(ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	kept := eb.subs[:0]
	for _, s := range eb.subs {
		if s.ch == ch {
			close(s.ch)
			continue
		}
		kept = append(kept, s)
	}
	eb.subs = kept
}

// Publish delivers e to matching subscribers without blocking.
func (eb *EventBus) Publish(e Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}
	for _, s := range eb.subs {
		if !s.matches(e) {
			continue
		}
		if lost := s.offer(e); lost > 0 {
			atomic.AddInt64(&eb.dropped, lost)
		}
	}
}

// DroppedCount returns how many events slow subscribers have lost.
func (eb *EventBus) DroppedCount() int64 {
	return atomic.LoadInt64(&eb.dropped)
}

// Close closes every subscription. Later publishes are ignored and later
// subscriptions are returned already closed.
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}
	eb.closed = true
	for _, s := range eb.subs {
		close(s.ch)
	}
	eb.subs = nil
}
