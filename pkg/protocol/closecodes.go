package protocol

// Gateway close codes sent by the server when it drops a connection.
const (
	CloseUnknownError         = 4000
	CloseUnknownOpcode        = 4001
	CloseDecodeError          = 4002
	CloseNotAuthenticated     = 4003
	CloseAuthenticationFailed = 4004
	CloseAlreadyAuthenticated = 4005
	CloseInvalidSequence      = 4007
	CloseRateLimited          = 4008
	CloseSessionTimedOut      = 4009

	// Non-resumable family: the server will never accept a RESUME or a
	// plain retry for these; the client must stop and surface the error.
	CloseShardingInvalid   = 9001
	CloseIntentsDisallowed = 9005
)

// CloseAction tells the connection supervisor what a close code means for
// the session and the retry loop.
type CloseAction int

const (
	// ActionResume: keep the session if one is held and reconnect.
	ActionResume CloseAction = iota

	// ActionReidentify: drop the session, reconnect with a fresh IDENTIFY.
	ActionReidentify

	// ActionStop: drop the session and disable reconnection.
	ActionStop
)

func (a CloseAction) String() string {
	switch a {
	case ActionResume:
		return "resume"
	case ActionReidentify:
		return "reidentify"
	case ActionStop:
		return "stop"
	}
	return "unknown"
}

// ClassifyClose maps a close code to the supervisor action. Codes this
// library does not recognize are treated as resumable: the server side adds
// codes over time and a generic drop must not strand the client.
func ClassifyClose(code int) CloseAction {
	switch code {
	case CloseAuthenticationFailed:
		return ActionReidentify
	case CloseShardingInvalid, CloseIntentsDisallowed:
		return ActionStop
	}
	return ActionResume
}
