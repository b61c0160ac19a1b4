package app

import (
	"time"

	"github.com/five82/sunface/internal/looper"
)

// minuteTicker delivers a callback at every wall-clock minute boundary,
// standing in for the host's time-tick broadcast. All methods run on the
// scheduler.
type minuteTicker struct {
	sched   looper.Scheduler
	now     func() time.Time
	fn      func()
	pending *looper.Timer
}

func startMinuteTicker(sched looper.Scheduler, now func() time.Time, fn func()) *minuteTicker {
	m := &minuteTicker{sched: sched, now: now, fn: fn}
	m.schedule()
	return m
}

func (m *minuteTicker) schedule() {
	m.pending = m.sched.PostDelayed(untilNextMinute(m.now()), func() {
		m.fn()
		m.schedule()
	})
}

func (m *minuteTicker) stop() {
	if m.pending != nil {
		m.pending.Cancel()
		m.pending = nil
	}
}

func untilNextMinute(t time.Time) time.Duration {
	next := t.Truncate(time.Minute).Add(time.Minute)
	return next.Sub(t)
}
