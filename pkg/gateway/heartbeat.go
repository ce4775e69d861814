package gateway

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/concordhq/concord-go/pkg/protocol"
)

// staleAckWarn is how overdue an acknowledgment must be before the
// heartbeat task logs a warning. A missing ack is deliberately not treated
// as fatal: a broken socket surfaces through the read loop's transport
// error.
const staleAckWarn = 60 * time.Second

// heartbeat is the per-attempt liveness sender. Its lifetime is bounded to
// one socket generation: each attempt halts the previous task before
// creating the next one, so at most one sender exists per connection.
type heartbeat struct {
	interval time.Duration

	mu        sync.Mutex
	lastSent  time.Time
	lastAck   time.Time
	sentCount int
	latency   time.Duration

	started  atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func newHeartbeat(interval time.Duration) *heartbeat {
	return &heartbeat{
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// run sends a heartbeat every interval until stopped. The first beat fires
// one full interval after the task starts. If a cycle fires while another
// writer holds the socket, the beat is skipped rather than queued.
func (s *Session) runHeartbeat(hb *heartbeat) {
	defer close(hb.done)

	ticker := time.NewTicker(hb.interval)
	defer ticker.Stop()

	for {
		select {
		case <-hb.stop:
			return
		case <-ticker.C:
		}

		hb.warnIfStale(s)

		frame, err := protocol.NewHeartbeat(s.Sequence())
		if err != nil {
			s.log.Error("gateway: encode heartbeat", "error", err)
			continue
		}

		if !s.writeMu.TryLock() {
			// Another writer holds the socket; try again next cycle.
			s.log.Debug("gateway: heartbeat skipped, write contention")
			continue
		}
		err = s.writeFrameLocked(frame)
		s.writeMu.Unlock()

		if err != nil {
			// The task never reconnects on its own: it drops the socket and
			// lets the read loop observe the dead connection.
			s.log.Warn("gateway: heartbeat write failed", "error", err)
			s.closeConn()
			return
		}

		hb.mu.Lock()
		hb.lastSent = time.Now()
		hb.sentCount++
		hb.mu.Unlock()
	}
}

func (hb *heartbeat) warnIfStale(s *Session) {
	hb.mu.Lock()
	sent := hb.lastSent
	ack := hb.lastAck
	count := hb.sentCount
	hb.mu.Unlock()

	if count == 0 || !ack.Before(sent) {
		return
	}
	if overdue := time.Since(sent); overdue > staleAckWarn {
		s.log.Warn("gateway: heartbeat ack overdue", "overdue", overdue, "last_ack", ack)
	}
}

// recordAck is called by the read loop on HEARTBEAT_ACK.
func (hb *heartbeat) recordAck(now time.Time) {
	hb.mu.Lock()
	defer hb.mu.Unlock()
	hb.lastAck = now
	if !hb.lastSent.IsZero() {
		hb.latency = now.Sub(hb.lastSent)
	}
}

// halt stops the sender and waits for it to exit. Safe on a task that was
// created during the handshake but never started.
func (hb *heartbeat) halt() {
	hb.stopOnce.Do(func() { close(hb.stop) })
	if hb.started.Load() {
		<-hb.done
	}
}

func (hb *heartbeat) lastLatency() time.Duration {
	hb.mu.Lock()
	defer hb.mu.Unlock()
	return hb.latency
}
