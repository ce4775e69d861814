package events

import (
	"context"
	"encoding/json"

	"github.com/concordhq/concord-go/pkg/rest"
	"github.com/concordhq/concord-go/pkg/types"
)

// Context is the ambient state handed to every callback: the REST client for
// follow-up calls and the bot's own identity. It is shared across callbacks
// and must be treated as read-only.
type Context struct {
	Rest *rest.Client
	Self *types.User
}

// Reply posts content to the given channel. Convenience for the common
// respond-to-event case.
func (c *Context) Reply(ctx context.Context, channelID types.Snowflake, content string) (*types.Message, error) {
	return c.Rest.CreateMessage(ctx, channelID, rest.MessageSend{Content: content})
}

// Ready confirms a fresh session: the bot's identity and the guilds it is in
// (possibly still unavailable and filled in by later GuildCreate events).
type Ready struct {
	Version   int           `json:"v"`
	User      *types.User   `json:"user"`
	SessionID string        `json:"session_id"`
	Shard     *[2]int       `json:"shard,omitempty"`
	Guilds    []types.Guild `json:"guilds,omitempty"`
}

// Resumed confirms a successful session resume; missed dispatch events are
// replayed before it.
type Resumed struct{}

// MessageCreate is a new chat message.
type MessageCreate struct {
	types.Message
}

// MessageUpdate is an edit to an existing message. Only changed fields are
// guaranteed to be populated.
type MessageUpdate struct {
	types.Message
}

// MessageDelete identifies a deleted message; the content is gone.
type MessageDelete struct {
	ID        types.Snowflake `json:"id"`
	ChannelID types.Snowflake `json:"channel_id"`
	GuildID   types.Snowflake `json:"guild_id,omitempty"`
}

// GuildCreate fires when a guild becomes available: on startup for each
// guild in Ready, and when the bot is added to a new guild.
type GuildCreate struct {
	types.Guild
}

// GuildUpdate carries the new state of a modified guild.
type GuildUpdate struct {
	types.Guild
}

// GuildDelete fires when a guild becomes unavailable or the bot is removed.
type GuildDelete struct {
	ID          types.Snowflake `json:"id"`
	Unavailable bool            `json:"unavailable,omitempty"`
}

// ChannelCreate carries a newly created channel.
type ChannelCreate struct {
	types.Channel
}

// ChannelUpdate carries the new state of a modified channel.
type ChannelUpdate struct {
	types.Channel
}

// ChannelDelete carries the final state of a deleted channel.
type ChannelDelete struct {
	types.Channel
}

// GuildMemberAdd fires when a user joins a guild.
type GuildMemberAdd struct {
	types.GuildMember
}

// GuildMemberRemove fires when a user leaves or is removed from a guild.
type GuildMemberRemove struct {
	GuildID types.Snowflake `json:"guild_id"`
	User    *types.User     `json:"user"`
}

// GuildBanAdd fires when a user is banned from a guild.
type GuildBanAdd struct {
	GuildID types.Snowflake `json:"guild_id"`
	User    *types.User     `json:"user"`
}

// AuditLogEntryCreate fires for each new moderation audit entry.
type AuditLogEntryCreate struct {
	types.AuditLogEntry
}

// TypingStart fires when a user starts typing in a channel.
type TypingStart struct {
	ChannelID types.Snowflake `json:"channel_id"`
	GuildID   types.Snowflake `json:"guild_id,omitempty"`
	UserID    types.Snowflake `json:"user_id"`
	Timestamp int64           `json:"timestamp"`
}

// Handler is the application callback surface: one method per event, called
// sequentially in frame-arrival order. Embed NopHandler to implement only
// the events you care about.
//
// Error receives callback panics/errors and connection-level errors worth
// surfacing; it must not block for long, since dispatch is sequential.
type Handler interface {
	Ready(c *Context, e *Ready)
	Resumed(c *Context, e *Resumed)
	MessageCreate(c *Context, e *MessageCreate)
	MessageUpdate(c *Context, e *MessageUpdate)
	MessageDelete(c *Context, e *MessageDelete)
	GuildCreate(c *Context, e *GuildCreate)
	GuildUpdate(c *Context, e *GuildUpdate)
	GuildDelete(c *Context, e *GuildDelete)
	ChannelCreate(c *Context, e *ChannelCreate)
	ChannelUpdate(c *Context, e *ChannelUpdate)
	ChannelDelete(c *Context, e *ChannelDelete)
	GuildMemberAdd(c *Context, e *GuildMemberAdd)
	GuildMemberRemove(c *Context, e *GuildMemberRemove)
	GuildBanAdd(c *Context, e *GuildBanAdd)
	AuditLogEntryCreate(c *Context, e *AuditLogEntryCreate)
	TypingStart(c *Context, e *TypingStart)

	// Unknown receives dispatch events with no registered parser.
	Unknown(c *Context, name string, raw json.RawMessage)

	// Error receives failures from callbacks and the connection layer.
	Error(c *Context, err error)
}

// NopHandler implements Handler with no-ops for every method.
type NopHandler struct{}

var _ Handler = NopHandler{}

func (NopHandler) Ready(*Context, *Ready) {}
func (NopHandler) Resumed(*Context, *Resumed) {}
func (NopHandler) MessageCreate(*Context, *MessageCreate) {}
func (NopHandler) MessageUpdate(*Context, *MessageUpdate) {}
func (NopHandler) MessageDelete(*Context, *MessageDelete) {}
func (NopHandler) GuildCreate(*Context, *GuildCreate) {}
func (NopHandler) GuildUpdate(*Context, *GuildUpdate) {}
func (NopHandler) GuildDelete(*Context, *GuildDelete) {}
func (NopHandler) ChannelCreate(*Context, *ChannelCreate) {}
func (NopHandler) ChannelUpdate(*Context, *ChannelUpdate) {}
func (NopHandler) ChannelDelete(*Context, *ChannelDelete) {}
func (NopHandler) GuildMemberAdd(*Context, *GuildMemberAdd) {}
func (NopHandler) GuildMemberRemove(*Context, *GuildMemberRemove) {}
func (NopHandler) GuildBanAdd(*Context, *GuildBanAdd) {}
func (NopHandler) AuditLogEntryCreate(*Context, *AuditLogEntryCreate) {}
func (NopHandler) TypingStart(*Context, *TypingStart) {}
func (NopHandler) Unknown(*Context, string, json.RawMessage) {}
func (NopHandler) Error(*Context, error) {}
