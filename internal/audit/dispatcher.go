package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// defaultBufferSize mirrors the engine's audit default so a zero-value
// buffer size still behaves sensibly when the dispatcher is built
// directly.
const defaultBufferSize = 1024

// Config controls how account-lifecycle events are buffered between the
// engine and the sink. A disabled config yields a nil *Dispatcher;
// every method tolerates a nil receiver so call sites need no guards.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// Dispatcher decouples account flows from sink latency. Emit hands the
// event to a buffered channel and a single goroutine drains it into the
// sink; with DropIfFull set, a full buffer sheds the event and counts
// it instead of stalling a login or registration.
type Dispatcher struct {
	sink       Sink
	dropIfFull bool

	events chan Event
	quit   chan struct{}
	drain  sync.WaitGroup

	dropped atomic.Uint64
	closing atomic.Bool
	once    sync.Once
}

// NewDispatcher starts the forwarding goroutine. It returns nil when
// auditing is disabled.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	size := cfg.BufferSize
	if size <= 0 {
		size = defaultBufferSize
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		events:     make(chan Event, size),
		quit:       make(chan struct{}),
	}

	d.drain.Add(1)
	go d.forward()

	return d
}

func (d *Dispatcher) forward() {
	defer d.drain.Done()

	for {
		select {
		case event := <-d.events:
			d.sink.Emit(context.Background(), event)
		case <-d.quit:
			// Deliver whatever Emit enqueued before Close.
			for {
				select {
				case event := <-d.events:
					d.sink.Emit(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

// Emit enqueues an event. After Close it is a no-op. Without DropIfFull
// a full buffer blocks until space frees up, the context ends, or the
// dispatcher shuts down.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closing.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.dropIfFull {
		select {
		case d.events <- event:
		case <-d.quit:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.events <- event:
	case <-ctx.Done():
	case <-d.quit:
	}
}

// Close stops the dispatcher after draining buffered events. It is safe
// to call more than once.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.once.Do(func() {
		d.closing.Store(true)
		close(d.quit)
		d.drain.Wait()
	})
}

// Dropped reports how many events were shed because the buffer was full.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
