// Package token builds the authorization string presented to the platform
// on both the REST and gateway surfaces.
package token

import (
	"errors"
	"strings"
)

const botPrefix = "Bot "

// ErrEmptyToken is returned when a provider is constructed without a token.
var ErrEmptyToken = errors.New("token: empty token")

// Provider yields the Authorization header value for outgoing requests and
// the token field of the gateway handshake.
type Provider interface {
	Authorization() string
}

type static struct {
	value string
}

// Static returns a Provider for a fixed bot token. The "Bot " prefix is
// added when missing so callers can pass the raw token from the developer
// portal as-is.
func Static(tok string) (Provider, error) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return nil, ErrEmptyToken
	}
	if !strings.HasPrefix(tok, botPrefix) {
		tok = botPrefix + tok
	}
	return &static{value: tok}, nil
}

func (s *static) Authorization() string { return s.value }
