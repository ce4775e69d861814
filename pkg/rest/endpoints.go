package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/concordhq/concord-go/pkg/types"
)

// GatewayInfo is the bootstrap response telling a bot where to open its
// gateway connection and how many shards the platform recommends.
type GatewayInfo struct {
	URL    string `json:"url"`
	Shards int    `json:"shards"`
}

// GatewayBot fetches the gateway WebSocket URL and recommended shard count
// for the authenticated bot.
func (c *Client) GatewayBot(ctx context.Context) (*GatewayInfo, error) {
	var info GatewayInfo
	if err := c.do(ctx, http.MethodGet, "/gateway/bot", nil, &info); err != nil {
		return nil, fmt.Errorf("gateway bootstrap: %w", err)
	}
	if info.URL == "" {
		return nil, fmt.Errorf("gateway bootstrap: empty url in response")
	}
	return &info, nil
}

// CurrentUser fetches the identity of the authenticated bot account.
func (c *Client) CurrentUser(ctx context.Context) (*types.User, error) {
	var u types.User
	if err := c.do(ctx, http.MethodGet, "/users/@me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// --- Channels ---

// Channel fetches a channel by ID.
func (c *Client) Channel(ctx context.Context, id types.Snowflake) (*types.Channel, error) {
	var ch types.Channel
	if err := c.do(ctx, http.MethodGet, "/channels/"+string(id), nil, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

// ChannelEdit holds the mutable channel fields for ModifyChannel and
// CreateGuildChannel. Nil pointers are omitted from the request.
type ChannelEdit struct {
	Name     string             `json:"name,omitempty"`
	Type     *types.ChannelType `json:"type,omitempty"`
	Topic    *string            `json:"topic,omitempty"`
	Position *int               `json:"position,omitempty"`
	ParentID *types.Snowflake   `json:"parent_id,omitempty"`
	NSFW     *bool              `json:"nsfw,omitempty"`
}

// ModifyChannel patches a channel and returns the updated record.
func (c *Client) ModifyChannel(ctx context.Context, id types.Snowflake, edit ChannelEdit) (*types.Channel, error) {
	var ch types.Channel
	if err := c.do(ctx, http.MethodPatch, "/channels/"+string(id), edit, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

// DeleteChannel deletes (or, for DMs, closes) a channel.
func (c *Client) DeleteChannel(ctx context.Context, id types.Snowflake) error {
	return c.do(ctx, http.MethodDelete, "/channels/"+string(id), nil, nil)
}

// GuildChannels lists a guild's channels.
func (c *Client) GuildChannels(ctx context.Context, guildID types.Snowflake) ([]types.Channel, error) {
	var chs []types.Channel
	if err := c.do(ctx, http.MethodGet, "/guilds/"+string(guildID)+"/channels", nil, &chs); err != nil {
		return nil, err
	}
	return chs, nil
}

// CreateGuildChannel creates a channel in a guild.
func (c *Client) CreateGuildChannel(ctx context.Context, guildID types.Snowflake, edit ChannelEdit) (*types.Channel, error) {
	var ch types.Channel
	if err := c.do(ctx, http.MethodPost, "/guilds/"+string(guildID)+"/channels", edit, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

// --- Messages ---

// MessageSend is the CreateMessage request body.
type MessageSend struct {
	Content string        `json:"content,omitempty"`
	Embeds  []types.Embed `json:"embeds,omitempty"`
	// Reference replies to another message in the same channel.
	Reference *types.Snowflake `json:"message_reference,omitempty"`
}

// CreateMessage posts a message to a channel.
func (c *Client) CreateMessage(ctx context.Context, channelID types.Snowflake, send MessageSend) (*types.Message, error) {
	var m types.Message
	if err := c.do(ctx, http.MethodPost, "/channels/"+string(channelID)+"/messages", send, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Message fetches a single message.
func (c *Client) Message(ctx context.Context, channelID, messageID types.Snowflake) (*types.Message, error) {
	var m types.Message
	if err := c.do(ctx, http.MethodGet, "/channels/"+string(channelID)+"/messages/"+string(messageID), nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ChannelMessages lists up to limit recent messages, newest first. limit <= 0
// uses the server default.
func (c *Client) ChannelMessages(ctx context.Context, channelID types.Snowflake, limit int) ([]types.Message, error) {
	path := "/channels/" + string(channelID) + "/messages"
	if limit > 0 {
		path += "?limit=" + url.QueryEscape(fmt.Sprint(limit))
	}
	var msgs []types.Message
	if err := c.do(ctx, http.MethodGet, path, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// EditMessage replaces the content of an existing message.
func (c *Client) EditMessage(ctx context.Context, channelID, messageID types.Snowflake, send MessageSend) (*types.Message, error) {
	var m types.Message
	if err := c.do(ctx, http.MethodPatch, "/channels/"+string(channelID)+"/messages/"+string(messageID), send, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// DeleteMessage deletes a message.
func (c *Client) DeleteMessage(ctx context.Context, channelID, messageID types.Snowflake) error {
	return c.do(ctx, http.MethodDelete, "/channels/"+string(channelID)+"/messages/"+string(messageID), nil, nil)
}

// CreateReaction adds the bot's reaction to a message.
func (c *Client) CreateReaction(ctx context.Context, channelID, messageID types.Snowflake, emoji types.Emoji) error {
	path := fmt.Sprintf("/channels/%s/messages/%s/reactions/%s/@me",
		channelID, messageID, url.PathEscape(emoji.APIName()))
	return c.do(ctx, http.MethodPut, path, nil, nil)
}

// --- Guilds ---

// Guild fetches a guild by ID.
func (c *Client) Guild(ctx context.Context, id types.Snowflake) (*types.Guild, error) {
	var g types.Guild
	if err := c.do(ctx, http.MethodGet, "/guilds/"+string(id), nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// GuildMembers lists up to limit members of a guild.
func (c *Client) GuildMembers(ctx context.Context, guildID types.Snowflake, limit int) ([]types.GuildMember, error) {
	path := "/guilds/" + string(guildID) + "/members"
	if limit > 0 {
		path += "?limit=" + url.QueryEscape(fmt.Sprint(limit))
	}
	var members []types.GuildMember
	if err := c.do(ctx, http.MethodGet, path, nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// GuildAuditLog fetches recent audit log entries for a guild.
func (c *Client) GuildAuditLog(ctx context.Context, guildID types.Snowflake) (*types.AuditLog, error) {
	var log types.AuditLog
	if err := c.do(ctx, http.MethodGet, "/guilds/"+string(guildID)+"/audit-logs", nil, &log); err != nil {
		return nil, err
	}
	return &log, nil
}
