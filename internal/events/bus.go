// Package events provides an in-process pub/sub bus for pipeline
// activity. The serve layer streams bus events to websocket clients.
package events

import (
	"sync"
	"time"
)

// BusEvent is anything publishable on the bus.
type BusEvent interface {
	EventType() string
	EventTime() time.Time
}

// OperationEvent describes one completed pipeline operation.
type OperationEvent struct {
	Type      string    `json:"type"`
	Operation string    `json:"operation"`
	CharsIn   int       `json:"chars_in"`
	ChunksOut int       `json:"chunks_out"`
	At        time.Time `json:"at"`
}

// NewOperationEvent builds an OperationEvent stamped with the current time.
func NewOperationEvent(eventType, operation string, charsIn, chunksOut int) *OperationEvent {
	return &OperationEvent{
		Type:      eventType,
		Operation: operation,
		CharsIn:   charsIn,
		ChunksOut: chunksOut,
		At:        time.Now(),
	}
}

func (e *OperationEvent) EventType() string    { return e.Type }
func (e *OperationEvent) EventTime() time.Time { return e.At }

// Handler receives published events.
type Handler func(BusEvent)

// UnsubscribeFunc removes a subscription when called.
type UnsubscribeFunc func()

// EventBus fans events out to type-scoped and catch-all subscribers.
// Handlers run on the publisher's goroutine, gated by a semaphore so a
// slow handler cannot monopolize dispatch.
type EventBus struct {
	mu         sync.RWMutex
	nextID     int
	byType     map[string]map[int]Handler
	all        map[int]Handler
	handlerSem chan struct{}
}

// NewEventBus creates a bus allowing up to maxConcurrent handler calls
// in flight.
func NewEventBus(maxConcurrent int) *EventBus {
	if maxConcurrent < 1 {
		maxConcurrent = 16
	}
	return &EventBus{
		byType:     make(map[string]map[int]Handler),
		all:        make(map[int]Handler),
		handlerSem: make(chan struct{}, maxConcurrent),
	}
}

// Subscribe registers a handler for one event type.
func (b *EventBus) Subscribe(eventType string, h Handler) UnsubscribeFunc {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	if b.byType[eventType] == nil {
		b.byType[eventType] = make(map[int]Handler)
	}
	b.byType[eventType][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.byType[eventType], id)
	}
}

// SubscribeAll registers a handler for every event type.
func (b *EventBus) SubscribeAll(h Handler) UnsubscribeFunc {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.all[id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.all, id)
	}
}

// Publish delivers ev to every matching subscriber. Blocks while the
// semaphore is exhausted.
func (b *EventBus) Publish(ev BusEvent) {
	if ev == nil {
		return
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.all)+len(b.byType[ev.EventType()]))
	for _, h := range b.byType[ev.EventType()] {
		handlers = append(handlers, h)
	}
	for _, h := range b.all {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.handlerSem <- struct{}{}
		h(ev)
		<-b.handlerSem
	}
}

// DefaultBus is the process-wide bus.
var DefaultBus = NewEventBus(16)
