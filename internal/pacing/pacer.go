package pacing

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Pacer enforces a minimum interval between successive calls. It is shared
// by everything that talks to the same rate-sensitive resource; the mutex is
// held through the sleep so concurrent callers are released one per interval.
// Waits are not cancellable mid-sleep.
type Pacer struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	interval time.Duration
	last     time.Time
}

// New creates a pacer on the real clock.
func New(interval time.Duration) *Pacer {
	return NewWithClock(interval, clockwork.NewRealClock())
}

// NewWithClock creates a pacer on the given clock.
func NewWithClock(interval time.Duration, clock clockwork.Clock) *Pacer {
	return &Pacer{clock: clock, interval: interval}
}

// Wait blocks until at least the configured interval has passed since the
// previous Wait returned. The first call never blocks.
func (p *Pacer) Wait() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.interval <= 0 {
		p.last = p.clock.Now()
		return
	}
	if !p.last.IsZero() {
		if remaining := p.interval - p.clock.Since(p.last); remaining > 0 {
			p.clock.Sleep(remaining)
		}
	}
	p.last = p.clock.Now()
}

// Interval reports the configured minimum interval.
func (p *Pacer) Interval() time.Duration {
	return p.interval
}
