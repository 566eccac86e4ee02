package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Handler receives events. Handlers run on the emitting goroutine and must not block.
type Handler func(event *Event)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is a synchronous in-process publish/subscribe hub keyed by event type.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]subscription
	nextID      uint64
	log         zerolog.Logger
}

// NewBus creates a new event bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		subscribers: make(map[EventType][]subscription),
		log:         log.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe registers a handler for one event type.
// The returned function removes the subscription and is safe to call more than once.
func (b *Bus) Subscribe(eventType EventType, handler Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subscribers[eventType] = append(b.subscribers[eventType], subscription{id: id, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(eventType, id) })
	}
}

// SubscribeAll registers a handler for every known event type.
func (b *Bus) SubscribeAll(handler Handler) func() {
	cancels := make([]func(), 0, len(AllTypes))
	for _, eventType := range AllTypes {
		cancels = append(cancels, b.Subscribe(eventType, handler))
	}
	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}

func (b *Bus) unsubscribe(eventType EventType, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[eventType]
	for i, s := range subs {
		if s.id == id {
			b.subscribers[eventType] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subscribers[eventType]) == 0 {
		delete(b.subscribers, eventType)
	}
}

// SubscriberCount returns the number of handlers registered for a type.
func (b *Bus) SubscriberCount(eventType EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[eventType])
}

// Emit publishes an event to every handler of its type.
func (b *Bus) Emit(eventType EventType, module string, data map[string]interface{}) {
	event := &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
		Module:    module,
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subscribers[eventType]))
	for _, s := range b.subscribers[eventType] {
		handlers = append(handlers, s.handler)
	}
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.dispatch(handler, event)
	}
}

func (b *Bus) dispatch(handler Handler, event *Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Interface("panic", r).
				Str("event_type", string(event.Type)).
				Msg("Event handler panicked")
		}
	}()
	handler(event)
}
