package fleet

import (
	"sync"
	"time"

	"github.com/julien6387/supvisors/pkg/logging"
)

// EventKind identifies the payload carried by an Event.
type EventKind int

const (
	EventAddressStateChanged EventKind = iota
	EventProcessStateChanged
	EventApplicationStateChanged
	EventConflictDetected
	EventConflictResolved
)

// Event is published on the internal bus whenever Context mutates an
// entity, so the FSM and any observer (CLI, shell) can react without
// polling the model.
type Event struct {
	Kind      EventKind
	Address   string
	Namespec  string
	Payload   interface{}
	Timestamp time.Time
}

// EventBus is a non-blocking fan-out publisher. Subscribers that are not
// keeping up with the bus are skipped rather than allowed to stall the
// publisher.
type EventBus struct {
	mu          sync.RWMutex
	subscribers []chan<- Event
}

// NewEventBus creates an empty event bus.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers a new subscriber channel and returns it. The caller
// owns draining the channel; a buffered channel is recommended.
func (b *EventBus) Subscribe(buffer int) <-chan Event {
	ch := make(chan Event, buffer)
	b.mu.Lock()
	b.subscribers = append(b.subscribers, ch)
	b.mu.Unlock()
	return ch
}

// Publish delivers an event to every subscriber, skipping any that would
// block.
func (b *EventBus) Publish(evt Event) {
	b.mu.RLock()
	subscribers := make([]chan<- Event, len(b.subscribers))
	copy(subscribers, b.subscribers)
	b.mu.RUnlock()

	for _, subscriber := range subscribers {
		select {
		case subscriber <- evt:
		default:
			logging.Warn("EventBus", "subscriber blocked, skipping event kind %d for %s", evt.Kind, evt.Namespec)
		}
	}
}
