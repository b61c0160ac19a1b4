// Package ticker drives the once-per-second redraw of the interactive face.
package ticker

import (
	"time"

	"github.com/five82/sunface/internal/looper"
)

// DefaultPeriod is the interactive tick cadence.
const DefaultPeriod = time.Second

// Ticker is a cooperative timer. Each fire invokes the callback and then
// posts the next fire one period later. All methods must be called on the
// scheduler's owning context.
type Ticker struct {
	sched    looper.Scheduler
	period   time.Duration
	callback func()

	pending    *looper.Timer
	generation uint64
	running    bool
}

// New builds a stopped ticker. A non-positive period uses DefaultPeriod.
func New(sched looper.Scheduler, period time.Duration, callback func()) *Ticker {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Ticker{sched: sched, period: period, callback: callback}
}

// Start cancels any pending fire and schedules one immediately.
func (t *Ticker) Start() {
	t.cancelPending()
	t.running = true
	t.schedule(0)
}

// Stop cancels the pending fire. No callback runs after Stop returns.
func (t *Ticker) Stop() {
	t.cancelPending()
	t.running = false
}

// Running reports whether the ticker is active.
func (t *Ticker) Running() bool {
	return t.running
}

// Period returns the configured cadence.
func (t *Ticker) Period() time.Duration {
	return t.period
}

func (t *Ticker) cancelPending() {
	t.generation++
	t.pending.Cancel()
	t.pending = nil
}

func (t *Ticker) schedule(delay time.Duration) {
	gen := t.generation
	t.pending = t.sched.PostDelayed(delay, func() {
		if gen != t.generation || !t.running {
			return
		}
		t.pending = nil
		if t.callback != nil {
			t.callback()
		}
		// The callback may have stopped or restarted the ticker.
		if gen == t.generation && t.running {
			t.schedule(t.period)
		}
	})
}
