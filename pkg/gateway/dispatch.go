package gateway

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/concordhq/concord-go/pkg/events"
	"github.com/concordhq/concord-go/pkg/state"
)

// dispatcher is the single consumer of the internal event queue. The queue
// is unbounded and order-preserving: callbacks run sequentially in exactly
// the order frames were read off the socket, and a failing callback never
// stops the loop.
type dispatcher struct {
	handler events.Handler
	ectx    *events.Context
	cache   *state.Cache
	log     *slog.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []*events.Event
	closed bool

	done chan struct{}
}

func newDispatcher(handler events.Handler, ectx *events.Context, cache *state.Cache, log *slog.Logger) *dispatcher {
	d := &dispatcher{
		handler: handler,
		ectx:    ectx,
		cache:   cache,
		log:     log,
		done:    make(chan struct{}),
	}
	d.cond = sync.NewCond(&d.mu)
	return d
}

// push enqueues one event. Safe to call from the read loop at any time;
// events pushed after close are dropped.
func (d *dispatcher) push(ev *events.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.queue = append(d.queue, ev)
	d.cond.Signal()
}

// run consumes the queue until close; remaining events are drained first.
func (d *dispatcher) run() {
	defer close(d.done)
	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.closed {
			d.cond.Wait()
		}
		if len(d.queue) == 0 && d.closed {
			d.mu.Unlock()
			return
		}
		ev := d.queue[0]
		d.queue[0] = nil
		d.queue = d.queue[1:]
		d.mu.Unlock()

		d.deliver(ev)
	}
}

// deliver invokes one callback, folding the event into the state cache
// first and converting panics into Error callbacks.
func (d *dispatcher) deliver(ev *events.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("gateway: handler panic", "event", ev.Name, "panic", r)
			d.reportError(fmt.Errorf("handler for %s panicked: %v", ev.Name, r))
		}
	}()
	if d.cache != nil {
		d.cache.Apply(ev)
	}
	ev.Deliver(d.handler, d.ectx)
}

// reportError forwards an error to the application's Error callback, itself
// guarded so a panicking error handler cannot kill the loop.
func (d *dispatcher) reportError(err error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("gateway: error callback panicked", "panic", r)
		}
	}()
	d.handler.Error(d.ectx, err)
}

// close stops the consumer after the queue drains and waits for it.
func (d *dispatcher) close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.closed = true
	d.cond.Broadcast()
	d.mu.Unlock()
	<-d.done
}
