package events

import (
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

var errTest = errors.New("boom")

type capture struct {
	NopHandler
	readies  []*Ready
	messages []*MessageCreate
	unknowns []string
	errs     []error
}

func (c *capture) Ready(_ *Context, e *Ready)                 { c.readies = append(c.readies, e) }
func (c *capture) MessageCreate(_ *Context, e *MessageCreate) { c.messages = append(c.messages, e) }
func (c *capture) Unknown(_ *Context, name string, _ json.RawMessage) {
	c.unknowns = append(c.unknowns, name)
}
func (c *capture) Error(_ *Context, err error) { c.errs = append(c.errs, err) }

func TestRouterParsesKnownEvent(t *testing.T) {
	r := NewRouter(slog.Default())

	raw := json.RawMessage(`{"id":"1","channel_id":"2","content":"hello"}`)
	ev, ok := r.Parse("MESSAGE_CREATE", raw)
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	if ev.Name != EventMessageCreate {
		t.Errorf("name = %q, want %q", ev.Name, EventMessageCreate)
	}

	h := &capture{}
	ev.Deliver(h, &Context{})
	if len(h.messages) != 1 {
		t.Fatalf("got %d message callbacks, want 1", len(h.messages))
	}
	if h.messages[0].Content != "hello" {
		t.Errorf("content = %q, want hello", h.messages[0].Content)
	}
}

func TestRouterTagNormalization(t *testing.T) {
	r := NewRouter(nil)
	for _, tag := range []string{"ready", "READY", "Ready"} {
		if _, ok := r.Parse(tag, json.RawMessage(`{"session_id":"s"}`)); !ok {
			t.Errorf("tag %q should match the ready parser", tag)
		}
	}
}

func TestRouterUnknownTag(t *testing.T) {
	r := NewRouter(nil)
	ev, ok := r.Parse("SOME_FUTURE_EVENT", json.RawMessage(`{}`))
	if ok || ev != nil {
		t.Fatalf("unknown tag should yield no event, got %+v", ev)
	}
	if r.Known("some_future_event") {
		t.Error("Known should be false for unregistered tag")
	}
}

func TestRouterMalformedPayloadDropped(t *testing.T) {
	r := NewRouter(nil)
	if ev, ok := r.Parse("MESSAGE_CREATE", json.RawMessage(`{"id":17}`)); ok {
		t.Fatalf("malformed payload should be dropped, got %+v", ev)
	}
}

func TestUnknownEventFallback(t *testing.T) {
	raw := json.RawMessage(`{"experimental":true}`)
	ev := NewUnknown("lab_event", raw)

	h := &capture{}
	ev.Deliver(h, &Context{})
	if len(h.unknowns) != 1 || h.unknowns[0] != "lab_event" {
		t.Fatalf("unknown callback not invoked: %v", h.unknowns)
	}
}

func TestConnectionErrorEvent(t *testing.T) {
	ev := NewConnectionError(errTest)
	h := &capture{}
	ev.Deliver(h, &Context{})
	if len(h.errs) != 1 || h.errs[0] != errTest {
		t.Fatalf("error callback not invoked: %v", h.errs)
	}
}
