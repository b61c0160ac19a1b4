package looper

import (
	"sort"
	"time"
)

// Manual is a deterministic Scheduler driven by a virtual clock. It is not
// safe for concurrent use and is meant for tests and offline rendering.
type Manual struct {
	now   time.Time
	seq   int
	tasks []manualTask
}

type manualTask struct {
	due   time.Time
	seq   int
	fn    func()
	timer *Timer
}

var _ Scheduler = (*Manual)(nil)

// NewManual starts the virtual clock at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the virtual time.
func (m *Manual) Now() time.Time {
	return m.now
}

// Post queues fn at the current virtual time.
func (m *Manual) Post(fn func()) {
	m.schedule(0, fn, nil)
}

// PostDelayed queues fn d after the current virtual time.
func (m *Manual) PostDelayed(d time.Duration, fn func()) *Timer {
	t := &Timer{}
	m.schedule(d, fn, t)
	return t
}

func (m *Manual) schedule(d time.Duration, fn func(), t *Timer) {
	if fn == nil {
		return
	}
	m.seq++
	m.tasks = append(m.tasks, manualTask{due: m.now.Add(d), seq: m.seq, fn: fn, timer: t})
}

// Pending counts queued tasks that have not been cancelled.
func (m *Manual) Pending() int {
	n := 0
	for _, task := range m.tasks {
		if !task.timer.Cancelled() {
			n++
		}
	}
	return n
}

// Drain runs everything due at the current virtual time.
func (m *Manual) Drain() {
	m.Advance(0)
}

// Advance moves the clock forward by d, running due tasks in order. Tasks
// scheduled while advancing run too when they fall inside the window.
func (m *Manual) Advance(d time.Duration) {
	target := m.now.Add(d)
	for {
		next, ok := m.popDue(target)
		if !ok {
			break
		}
		if next.due.After(m.now) {
			m.now = next.due
		}
		if next.timer.Cancelled() {
			continue
		}
		next.fn()
	}
	m.now = target
}

func (m *Manual) popDue(target time.Time) (manualTask, bool) {
	if len(m.tasks) == 0 {
		return manualTask{}, false
	}
	sort.SliceStable(m.tasks, func(i, j int) bool {
		if m.tasks[i].due.Equal(m.tasks[j].due) {
			return m.tasks[i].seq < m.tasks[j].seq
		}
		return m.tasks[i].due.Before(m.tasks[j].due)
	})
	first := m.tasks[0]
	if first.due.After(target) {
		return manualTask{}, false
	}
	m.tasks = m.tasks[1:]
	return first, true
}
