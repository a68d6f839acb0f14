package events

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Emitter decouples request handlers from event delivery. Completed
// operations are queued and published to the bus from a single worker
// goroutine, so a slow websocket subscriber can never stall a request.
// When the queue is full the event is dropped and counted instead.
type Emitter struct {
	bus *EventBus
	ch  chan *OperationEvent

	dropped atomic.Int64

	startOnce sync.Once
}

// NewEmitter creates an emitter publishing into bus. A nil bus means
// DefaultBus.
func NewEmitter(bus *EventBus, buffer int) *Emitter {
	if bus == nil {
		bus = DefaultBus
	}
	if buffer < 1 {
		buffer = 256
	}
	return &Emitter{
		bus: bus,
		ch:  make(chan *OperationEvent, buffer),
	}
}

// Start launches the worker. Idempotent; Operation calls it lazily.
func (e *Emitter) Start() {
	e.startOnce.Do(func() {
		go func() {
			for ev := range e.ch {
				e.bus.Publish(ev)
			}
		}()
	})
}

// Operation queues a completion event for one pipeline operation. The
// event type is the operation name with a "_complete" suffix, which is
// what websocket consumers subscribe to. Never blocks.
func (e *Emitter) Operation(op string, charsIn, chunksOut int) {
	e.Start()
	select {
	case e.ch <- NewOperationEvent(op+"_complete", op, charsIn, chunksOut):
	default:
		n := e.dropped.Add(1)
		// First drop and every 1000th after, to keep the log quiet under
		// sustained backpressure.
		if n == 1 || n%1000 == 0 {
			slog.Debug("operation event dropped", "operation", op, "dropped_total", n)
		}
	}
}

// Dropped returns the number of events lost to a full queue.
func (e *Emitter) Dropped() int64 {
	return e.dropped.Load()
}
