// Package protocol defines the wire format for the Concord gateway
// WebSocket protocol. This package is importable by alternative transports
// and test harnesses.
package protocol

import "encoding/json"

// Gateway opcodes.
const (
	OpDispatch       = 0  // server → client: an application event
	OpHeartbeat      = 1  // bidirectional: liveness ping carrying last sequence
	OpIdentify       = 2  // client → server: new-session handshake
	OpResume         = 6  // client → server: resume an existing session
	OpReconnect      = 7  // server → client: close and reconnect elsewhere
	OpInvalidSession = 9  // server → client: session rejected
	OpHello          = 10 // server → client: first frame, heartbeat interval
	OpHeartbeatACK   = 11 // server → client: heartbeat acknowledgment
)

// Frame is the wire unit: every gateway message is one of these.
// D is left raw so dispatch payloads can be decoded per event type.
type Frame struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d,omitempty"`
	S  int64           `json:"s,omitempty"`
	T  string          `json:"t,omitempty"`
}

// Hello is the OpHello payload.
type Hello struct {
	HeartbeatInterval int `json:"heartbeat_interval"` // milliseconds
}

// Properties identifies the client build in the IDENTIFY handshake.
type Properties struct {
	OS         string `json:"os"`
	ClientName string `json:"client_name"`
	Device     string `json:"device"`
}

// Identify is the OpIdentify payload for a fresh session.
type Identify struct {
	Token      string     `json:"token"`
	Intents    Intents    `json:"intents"`
	Shard      *[2]int    `json:"shard,omitempty"` // [index, count]
	Properties Properties `json:"properties"`
}

// Resume is the OpResume payload for re-attaching to an existing session.
type Resume struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	Seq       int64  `json:"seq"`
}

// Ready is the dispatch payload confirming a new session. User is left raw
// so the protocol layer stays free of the data model.
type Ready struct {
	Version   int             `json:"v"`
	SessionID string          `json:"session_id"`
	Shard     *[2]int         `json:"shard,omitempty"`
	User      json.RawMessage `json:"user,omitempty"`
}

// NewHeartbeat builds a heartbeat frame carrying the last seen sequence.
func NewHeartbeat(seq int64) (*Frame, error) {
	return newFrame(OpHeartbeat, seq)
}

// NewIdentify builds an IDENTIFY frame.
func NewIdentify(p Identify) (*Frame, error) {
	return newFrame(OpIdentify, p)
}

// NewResume builds a RESUME frame.
func NewResume(p Resume) (*Frame, error) {
	return newFrame(OpResume, p)
}

func newFrame(op int, d any) (*Frame, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return &Frame{Op: op, D: raw}, nil
}
