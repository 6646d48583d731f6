package events

import (
	"context"
	"log"
	"sync"
)

// Sink consumes dispatched events. Errors are logged, never propagated.
type Sink interface {
	Name() string
	Handle(ctx context.Context, event Event) error
}

// Dispatcher fans events out to registered sinks from a single
// goroutine. Delivery is best-effort: a full buffer drops the event and
// a failing sink does not stop the others.
type Dispatcher struct {
	sinks  []Sink
	queue  chan Event
	done   chan struct{}
	closed sync.Once

	mu      sync.RWMutex
	closing bool
}

func NewDispatcher(sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		sinks: sinks,
		queue: make(chan Event, 256),
		done:  make(chan struct{}),
	}
}

func (d *Dispatcher) Run() {
	for event := range d.queue {
		ctx := context.Background()
		for _, sink := range d.sinks {
			if err := sink.Handle(ctx, event); err != nil {
				log.Printf("event sink %s failed on %s: %v", sink.Name(), event.Type, err)
			}
		}
	}
	close(d.done)
}

// Dispatch queues events without blocking the caller. Events arriving during
// shutdown are dropped; a request in flight while Close runs must not panic
// on the closed queue.
func (d *Dispatcher) Dispatch(events ...Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closing {
		for _, event := range events {
			log.Printf("dispatcher closing, dropping %s for workspace %s", event.Type, event.WorkspaceID)
		}
		return
	}
	for _, event := range events {
		select {
		case d.queue <- event:
		default:
			log.Printf("event queue full, dropping %s for workspace %s", event.Type, event.WorkspaceID)
		}
	}
}

// Close stops the run loop after draining queued events.
func (d *Dispatcher) Close() {
	d.closed.Do(func() {
		d.mu.Lock()
		d.closing = true
		d.mu.Unlock()
		close(d.queue)
	})
	<-d.done
}
