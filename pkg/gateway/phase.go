package gateway

// Phase is the connection lifecycle state. Transitions are driven only by
// the Session; the router and dispatcher never touch it.
type Phase int

const (
	PhaseDisconnected Phase = iota
	PhaseConnecting
	PhaseAwaitingHello
	PhaseAuthenticating
	PhaseReady
	PhaseClosing
)

func (p Phase) String() string {
	switch p {
	case PhaseDisconnected:
		return "disconnected"
	case PhaseConnecting:
		return "connecting"
	case PhaseAwaitingHello:
		return "awaiting_hello"
	case PhaseAuthenticating:
		return "authenticating"
	case PhaseReady:
		return "ready"
	case PhaseClosing:
		return "closing"
	}
	return "unknown"
}
