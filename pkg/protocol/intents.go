package protocol

// Intents is the event-category bitmask declared at IDENTIFY time. The
// gateway only delivers dispatch events for categories the client asked for.
type Intents int64

const (
	IntentGuilds Intents = 1 << iota
	IntentGuildMembers
	IntentGuildModeration
	IntentGuildEmojis
	IntentGuildVoiceStates
	IntentGuildPresences
	IntentGuildMessages
	IntentGuildMessageReactions
	IntentGuildMessageTyping
	IntentDirectMessages
	IntentDirectMessageReactions
	IntentDirectMessageTyping
	IntentMessageContent
)

// IntentsDefault covers the guild, message, and moderation streams a typical
// bot needs without the privileged member/presence streams.
const IntentsDefault = IntentGuilds |
	IntentGuildModeration |
	IntentGuildMessages |
	IntentGuildMessageReactions |
	IntentDirectMessages

// IntentsAll enables every category, privileged ones included.
const IntentsAll = IntentMessageContent<<1 - 1

// Has reports whether every bit of want is set.
func (i Intents) Has(want Intents) bool { return i&want == want }
