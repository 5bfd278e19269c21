// Package events provides the in-process event bus connecting backgrounds,
// the cortex loop, hooks, and the gateway.
package events

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Type classifies an event.
type Type string

const (
	// Perception / detection events published by backgrounds.
	EventPersonDetected Type = "person.detected"
	EventInputSample    Type = "input.sample"

	// Cortex decision cycle.
	EventActionDecided    Type = "action.decided"
	EventActionDispatched Type = "action.dispatched"
	EventConversationTurn Type = "conversation.turn"

	// Mode lifecycle.
	EventModeSwitched Type = "mode.switched"

	// Daemon lifecycle.
	EventRuntimeStarted Type = "runtime.started"
	EventRuntimeStopped Type = "runtime.stopped"
)

// Source identifies the component that emitted an event.
type Source string

const (
	SourceCortex     Source = "cortex"
	SourceBackground Source = "background"
	SourceSimulator  Source = "simulator"
	SourceGateway    Source = "gateway"
	SourceHook       Source = "hook"
	SourceRuntime    Source = "runtime"
)

// Event is one occurrence on the bus.
type Event struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Source    Source         `json:"source"`
	Payload   map[string]any `json:"payload,omitempty"`
}

var eventIDCounter uint64

// New creates an event stamped with the current time.
func New(t Type, source Source, payload map[string]any) Event {
	seq := atomic.AddUint64(&eventIDCounter, 1)
	return Event{
		ID:        fmt.Sprintf("%d-%d", time.Now().UnixNano(), seq),
		Type:      t,
		Timestamp: time.Now(),
		Source:    source,
		Payload:   payload,
	}
}

// Subscriber receives events.
type Subscriber func(Event)

type subscription struct {
	types   []Type
	handler Subscriber
}

// Bus is an in-memory event bus. Publish never blocks the caller; slow
// subscribers drop events rather than stall the runtime.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[int]*subscription
	nextID      int
	eventCh     chan Event
	history     *ring
	closed      bool
	done        chan struct{}
}

// NewBus creates a bus with the given buffer size.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	b := &Bus{
		subscribers: make(map[int]*subscription),
		eventCh:     make(chan Event, bufferSize),
		history:     newRing(bufferSize),
		done:        make(chan struct{}),
	}
	go b.dispatch()
	return b
}

func (b *Bus) dispatch() {
	for {
		select {
		case e := <-b.eventCh:
			b.notify(e)
		case <-b.done:
			return
		}
	}
}

func (b *Bus) notify(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers {
		if sub.matches(e) {
			go sub.handler(e)
		}
	}
}

func (s *subscription) matches(e Event) bool {
	if len(s.types) == 0 {
		return true
	}
	for _, t := range s.types {
		if t == e.Type {
			return true
		}
	}
	return false
}

// Publish sends an event. Every published event is recorded in history;
// subscriber delivery is non-blocking and drops when the buffer is full or
// the bus is closed.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return
	}

	b.history.add(e)

	select {
	case b.eventCh <- e:
	default:
	}
}

// Subscribe registers a handler for the given event types (all types when
// none are given). Returns an unsubscribe function.
func (b *Bus) Subscribe(handler Subscriber, types ...Type) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subscribers[id] = &subscription{types: types, handler: handler}

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subscribers, id)
	}
}

// SubscribeChan returns a buffered channel of events. Events are dropped
// for a full channel.
func (b *Bus) SubscribeChan(bufSize int, types ...Type) (<-chan Event, func()) {
	ch := make(chan Event, bufSize)

	unsubscribe := b.Subscribe(func(e Event) {
		select {
		case ch <- e:
		default:
		}
	}, types...)

	return ch, func() {
		unsubscribe()
		close(ch)
	}
}

// History returns up to limit recent events, oldest first.
func (b *Bus) History(limit int) []Event {
	return b.history.get(limit)
}

// Close shuts the bus down. Further publishes are no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.done)
}

// ring is a fixed-size circular buffer of recent events.
type ring struct {
	mu     sync.RWMutex
	events []Event
	pos    int
	count  int
}

func newRing(size int) *ring {
	return &ring{events: make([]Event, size)}
}

func (r *ring) add(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[r.pos] = e
	r.pos = (r.pos + 1) % len(r.events)
	if r.count < len(r.events) {
		r.count++
	}
}

func (r *ring) get(n int) []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if n > r.count {
		n = r.count
	}
	if n <= 0 {
		return nil
	}

	out := make([]Event, n)
	start := (r.pos - n + len(r.events)) % len(r.events)
	for i := 0; i < n; i++ {
		out[i] = r.events[(start+i)%len(r.events)]
	}
	return out
}
