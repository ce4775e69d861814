package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// Event is a decoded dispatch frame ready for delivery: the normalized event
// name, the typed payload, and the bound callback invocation.
type Event struct {
	Name    string
	Payload any

	deliver func(h Handler, c *Context)
}

// Deliver invokes the matching Handler method for this event.
func (e *Event) Deliver(h Handler, c *Context) {
	e.deliver(h, c)
}

// Router maps dispatch event-type tags to payload parsers. Parsing is a pure
// decode step: no I/O, no connection state.
type Router struct {
	parsers map[string]func(raw json.RawMessage) (*Event, error)
	log     *slog.Logger
}

// NewRouter builds a router with every event this library understands
// registered.
func NewRouter(log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	r := &Router{
		parsers: make(map[string]func(json.RawMessage) (*Event, error)),
		log:     log,
	}

	register(r, EventReady, Handler.Ready)
	register(r, EventResumed, Handler.Resumed)
	register(r, EventMessageCreate, Handler.MessageCreate)
	register(r, EventMessageUpdate, Handler.MessageUpdate)
	register(r, EventMessageDelete, Handler.MessageDelete)
	register(r, EventGuildCreate, Handler.GuildCreate)
	register(r, EventGuildUpdate, Handler.GuildUpdate)
	register(r, EventGuildDelete, Handler.GuildDelete)
	register(r, EventChannelCreate, Handler.ChannelCreate)
	register(r, EventChannelUpdate, Handler.ChannelUpdate)
	register(r, EventChannelDelete, Handler.ChannelDelete)
	register(r, EventGuildMemberAdd, Handler.GuildMemberAdd)
	register(r, EventGuildMemberRemove, Handler.GuildMemberRemove)
	register(r, EventGuildBanAdd, Handler.GuildBanAdd)
	register(r, EventAuditLogEntryCreate, Handler.AuditLogEntryCreate)
	register(r, EventTypingStart, Handler.TypingStart)

	return r
}

// register binds an event name to a typed payload and its Handler method.
func register[T any](r *Router, name string, method func(Handler, *Context, *T)) {
	r.parsers[name] = func(raw json.RawMessage) (*Event, error) {
		payload := new(T)
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, payload); err != nil {
				return nil, fmt.Errorf("decode %s: %w", name, err)
			}
		}
		return &Event{
			Name:    name,
			Payload: payload,
			deliver: func(h Handler, c *Context) { method(h, c, payload) },
		}, nil
	}
}

// Parse decodes one dispatch frame. The tag is matched case-insensitively.
// An unknown tag or a payload that fails to decode yields (nil, false) and a
// log line; neither is fatal to the connection.
func (r *Router) Parse(eventType string, raw json.RawMessage) (*Event, bool) {
	name := strings.ToLower(eventType)
	parse, ok := r.parsers[name]
	if !ok {
		r.log.Debug("events: no parser for event type", "type", name)
		return nil, false
	}
	ev, err := parse(raw)
	if err != nil {
		r.log.Warn("events: dropping malformed payload", "type", name, "error", err)
		return nil, false
	}
	return ev, true
}

// NewUnknown wraps an unmatched dispatch frame so it can ride the normal
// queue and reach the catch-all Unknown callback in arrival order.
func NewUnknown(name string, raw json.RawMessage) *Event {
	return &Event{
		Name:    name,
		Payload: raw,
		deliver: func(h Handler, c *Context) { h.Unknown(c, name, raw) },
	}
}

// NewConnectionError wraps a connection-level error so it reaches the Error
// callback in order with the events delivered before it.
func NewConnectionError(err error) *Event {
	return &Event{
		Name:    "error",
		Payload: err,
		deliver: func(h Handler, c *Context) { h.Error(c, err) },
	}
}

// Known reports whether the router has a parser for the given tag.
func (r *Router) Known(eventType string) bool {
	_, ok := r.parsers[strings.ToLower(eventType)]
	return ok
}
