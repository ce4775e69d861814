package gateway

import (
	"testing"
	"time"
)

func TestBackoffSequence(t *testing.T) {
	b := newBackoff(5*time.Second, 40*time.Second)

	want := []time.Duration{
		5 * time.Second,
		5 * time.Second,
		5 * time.Second,
		10 * time.Second,
		20 * time.Second,
		40 * time.Second,
		40 * time.Second,
		40 * time.Second,
	}
	for i, w := range want {
		if got := b.next(); got != w {
			t.Fatalf("failure %d: wait = %v, want %v", i+1, got, w)
		}
	}
}

func TestBackoffResetRestartsSequence(t *testing.T) {
	b := newBackoff(5*time.Second, 40*time.Second)
	for i := 0; i < 6; i++ {
		b.next()
	}
	b.reset()
	if got := b.next(); got != 5*time.Second {
		t.Errorf("after reset wait = %v, want 5s", got)
	}
}

func TestBackoffDefaults(t *testing.T) {
	b := newBackoff(0, 0)
	if b.base != backoffBase || b.max != backoffMax {
		t.Errorf("defaults = %v/%v, want %v/%v", b.base, b.max, backoffBase, backoffMax)
	}
}
