// Package events turns raw gateway dispatch frames into typed events and
// defines the callback surface applications implement to receive them.
package events

// Dispatch event-type tags, normalized to lower case. The router lowercases
// incoming tags before lookup, so the wire casing does not matter.
const (
	EventReady               = "ready"
	EventResumed             = "resumed"
	EventMessageCreate       = "message_create"
	EventMessageUpdate       = "message_update"
	EventMessageDelete       = "message_delete"
	EventGuildCreate         = "guild_create"
	EventGuildUpdate         = "guild_update"
	EventGuildDelete         = "guild_delete"
	EventChannelCreate       = "channel_create"
	EventChannelUpdate       = "channel_update"
	EventChannelDelete       = "channel_delete"
	EventGuildMemberAdd      = "guild_member_add"
	EventGuildMemberRemove   = "guild_member_remove"
	EventGuildBanAdd         = "guild_ban_add"
	EventAuditLogEntryCreate = "guild_audit_log_entry_create"
	EventTypingStart         = "typing_start"
)
