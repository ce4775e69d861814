// Package types defines the Concord platform data model shared by the REST
// and gateway layers. Structs mirror the wire JSON; enumerations that the
// platform extends over time are kept open so unrecognized numeric values
// survive a decode/encode round trip.
package types

import (
	"fmt"
	"time"
)

// Snowflake is a platform entity ID: a uint64 rendered as a decimal string
// on the wire.
type Snowflake string

// IsZero reports whether the ID is unset.
func (s Snowflake) IsZero() bool { return s == "" }

// User is a platform account, bot or human.
type User struct {
	ID            Snowflake `json:"id"`
	Username      string    `json:"username"`
	Discriminator string    `json:"discriminator,omitempty"`
	GlobalName    string    `json:"global_name,omitempty"`
	Bot           bool      `json:"bot,omitempty"`
	Avatar        string    `json:"avatar,omitempty"`
}

// Mention returns the chat mention markup for the user.
func (u *User) Mention() string { return fmt.Sprintf("<@%s>", u.ID) }

// Guild is a server: the top-level grouping of channels and members.
type Guild struct {
	ID          Snowflake `json:"id"`
	Name        string    `json:"name"`
	Icon        string    `json:"icon,omitempty"`
	OwnerID     Snowflake `json:"owner_id,omitempty"`
	MemberCount int       `json:"member_count,omitempty"`
	Channels    []Channel `json:"channels,omitempty"`
	Unavailable bool      `json:"unavailable,omitempty"`
}

// GuildMember is a user's membership record within one guild.
type GuildMember struct {
	GuildID  Snowflake   `json:"guild_id,omitempty"`
	User     *User       `json:"user,omitempty"`
	Nick     string      `json:"nick,omitempty"`
	Roles    []Snowflake `json:"roles,omitempty"`
	JoinedAt time.Time   `json:"joined_at,omitempty"`
}

// ChannelType is an open enum: unknown values are carried through unchanged.
type ChannelType int

const (
	ChannelTypeGuildText     ChannelType = 0
	ChannelTypeDM            ChannelType = 1
	ChannelTypeGuildVoice    ChannelType = 2
	ChannelTypeGroupDM       ChannelType = 3
	ChannelTypeGuildCategory ChannelType = 4
	ChannelTypeGuildNews     ChannelType = 5
	ChannelTypeThread        ChannelType = 11
)

// Known reports whether t is a channel type this library recognizes.
func (t ChannelType) Known() bool {
	switch t {
	case ChannelTypeGuildText, ChannelTypeDM, ChannelTypeGuildVoice,
		ChannelTypeGroupDM, ChannelTypeGuildCategory, ChannelTypeGuildNews,
		ChannelTypeThread:
		return true
	}
	return false
}

// Channel is a text, voice, DM, or category channel.
type Channel struct {
	ID       Snowflake   `json:"id"`
	GuildID  Snowflake   `json:"guild_id,omitempty"`
	Type     ChannelType `json:"type"`
	Name     string      `json:"name,omitempty"`
	Topic    string      `json:"topic,omitempty"`
	ParentID Snowflake   `json:"parent_id,omitempty"`
	Position int         `json:"position,omitempty"`
	NSFW     bool        `json:"nsfw,omitempty"`
}

// Mention returns the chat mention markup for the channel.
func (c *Channel) Mention() string { return fmt.Sprintf("<#%s>", c.ID) }

// Attachment is a file attached to a message.
type Attachment struct {
	ID          Snowflake `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type,omitempty"`
	Size        int       `json:"size"`
	URL         string    `json:"url"`
}

// Embed is rich embedded content on a message. Only the fields the client
// reads or writes are modeled.
type Embed struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Color       int    `json:"color,omitempty"`
}

// Emoji is a reaction or custom guild emoji. A custom emoji has an ID; a
// unicode emoji has only a name.
type Emoji struct {
	ID       Snowflake `json:"id,omitempty"`
	Name     string    `json:"name"`
	Animated bool      `json:"animated,omitempty"`
}

// APIName returns the emoji in the form the REST API expects in reaction
// endpoints: "name:id" for custom emoji, the raw name otherwise.
func (e *Emoji) APIName() string {
	if e.ID != "" {
		return e.Name + ":" + string(e.ID)
	}
	return e.Name
}

// Message is a chat message in a channel.
type Message struct {
	ID          Snowflake    `json:"id"`
	ChannelID   Snowflake    `json:"channel_id"`
	GuildID     Snowflake    `json:"guild_id,omitempty"`
	Author      *User        `json:"author,omitempty"`
	Member      *GuildMember `json:"member,omitempty"`
	Content     string       `json:"content"`
	Timestamp   time.Time    `json:"timestamp,omitempty"`
	EditedAt    *time.Time   `json:"edited_timestamp,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Embeds      []Embed      `json:"embeds,omitempty"`
	Mentions    []User       `json:"mentions,omitempty"`
	Pinned      bool         `json:"pinned,omitempty"`
}

// AuditLogAction is an open enum of moderation/audit actions.
type AuditLogAction int

const (
	AuditActionGuildUpdate   AuditLogAction = 1
	AuditActionChannelCreate AuditLogAction = 10
	AuditActionChannelUpdate AuditLogAction = 11
	AuditActionChannelDelete AuditLogAction = 12
	AuditActionMemberKick    AuditLogAction = 20
	AuditActionMemberBanAdd  AuditLogAction = 22
	AuditActionMessageDelete AuditLogAction = 72
)

// AuditLogEntry is one recorded moderation action.
type AuditLogEntry struct {
	ID         Snowflake      `json:"id"`
	GuildID    Snowflake      `json:"guild_id,omitempty"`
	ActionType AuditLogAction `json:"action_type"`
	UserID     Snowflake      `json:"user_id,omitempty"`
	TargetID   Snowflake      `json:"target_id,omitempty"`
	Reason     string         `json:"reason,omitempty"`
}

// AuditLog is the REST audit log response.
type AuditLog struct {
	Entries []AuditLogEntry `json:"audit_log_entries"`
	Users   []User          `json:"users,omitempty"`
}
