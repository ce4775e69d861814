package gateway

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/concordhq/concord-go/pkg/events"
)

// recorder collects callback invocations in order.
type recorder struct {
	events.NopHandler
	mu       sync.Mutex
	contents []string
	errs     []error
}

func (r *recorder) MessageCreate(_ *events.Context, e *events.MessageCreate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contents = append(r.contents, e.Content)
}

func (r *recorder) Error(_ *events.Context, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder) snapshot() ([]string, []error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.contents...), append([]error(nil), r.errs...)
}

func parseEvent(t *testing.T, tag, payload string) *events.Event {
	t.Helper()
	ev, ok := events.NewRouter(slog.Default()).Parse(tag, json.RawMessage(payload))
	if !ok {
		t.Fatalf("parse %s failed", tag)
	}
	return ev
}

func TestDispatcherPreservesOrder(t *testing.T) {
	h := &recorder{}
	d := newDispatcher(h, &events.Context{}, nil, slog.Default())

	const n = 200
	for i := 0; i < n; i++ {
		payload := fmt.Sprintf(`{"id":"m%d","channel_id":"c","content":"msg-%04d"}`, i, i)
		d.push(parseEvent(t, "MESSAGE_CREATE", payload))
	}

	go d.run()
	d.close() // drains the queue before stopping

	got, _ := h.snapshot()
	if len(got) != n {
		t.Fatalf("delivered %d events, want %d", len(got), n)
	}
	for i, c := range got {
		if want := fmt.Sprintf("msg-%04d", i); c != want {
			t.Fatalf("event %d = %q, want %q (order violated)", i, c, want)
		}
	}
}

type panicky struct {
	events.NopHandler
	mu   sync.Mutex
	seen []string
	errs []error
}

func (p *panicky) MessageCreate(_ *events.Context, e *events.MessageCreate) {
	p.mu.Lock()
	p.seen = append(p.seen, e.Content)
	p.mu.Unlock()
	if e.Content == "bad" {
		panic("handler exploded")
	}
}

func (p *panicky) Error(_ *events.Context, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs = append(p.errs, err)
}

func TestDispatcherIsolatesHandlerPanic(t *testing.T) {
	h := &panicky{}
	d := newDispatcher(h, &events.Context{}, nil, slog.Default())

	d.push(parseEvent(t, "MESSAGE_CREATE", `{"id":"1","channel_id":"c","content":"ok"}`))
	d.push(parseEvent(t, "MESSAGE_CREATE", `{"id":"2","channel_id":"c","content":"bad"}`))
	d.push(parseEvent(t, "MESSAGE_CREATE", `{"id":"3","channel_id":"c","content":"after"}`))

	go d.run()
	d.close()

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.seen) != 3 {
		t.Fatalf("panic stopped the loop: delivered %v", h.seen)
	}
	if len(h.errs) != 1 {
		t.Fatalf("got %d error callbacks, want 1", len(h.errs))
	}
}

func TestDispatcherPushAfterCloseDropped(t *testing.T) {
	h := &recorder{}
	d := newDispatcher(h, &events.Context{}, nil, slog.Default())
	go d.run()
	d.close()

	d.push(parseEvent(t, "MESSAGE_CREATE", `{"id":"1","channel_id":"c","content":"late"}`))
	time.Sleep(20 * time.Millisecond)
	got, _ := h.snapshot()
	if len(got) != 0 {
		t.Errorf("late push should be dropped, delivered %v", got)
	}
}

func TestTrackSequenceMonotonic(t *testing.T) {
	s := &Session{}
	for _, seq := range []int64{1, 5, 3, 5, 0, 7, 2} {
		s.trackSequence(seq)
	}
	if got := s.Sequence(); got != 7 {
		t.Errorf("sequence = %d, want 7", got)
	}
}
