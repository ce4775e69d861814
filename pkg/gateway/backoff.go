package gateway

import "time"

const (
	backoffBase = 5 * time.Second
	backoffMax  = 40 * time.Second

	// The first doubling happens after this many consecutive failures.
	backoffFlatAttempts = 3
)

// backoff produces the reconnect wait sequence 5, 5, 5, 10, 20, 40, 40, …
// A successful handshake resets it.
type backoff struct {
	base     time.Duration
	max      time.Duration
	failures int
	cur      time.Duration
}

func newBackoff(base, max time.Duration) *backoff {
	if base <= 0 {
		base = backoffBase
	}
	if max <= 0 {
		max = backoffMax
	}
	return &backoff{base: base, max: max}
}

// next records one more consecutive failure and returns how long to wait
// before the next attempt.
func (b *backoff) next() time.Duration {
	b.failures++
	if b.failures <= backoffFlatAttempts {
		b.cur = b.base
	} else {
		b.cur *= 2
		if b.cur > b.max {
			b.cur = b.max
		}
	}
	return b.cur
}

func (b *backoff) reset() {
	b.failures = 0
	b.cur = 0
}
