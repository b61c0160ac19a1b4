// Package looper provides the single execution context that owns the render
// engine and the settings store. Work from other goroutines is marshalled
// onto it with Post.
package looper

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler queues work onto an owning context.
type Scheduler interface {
	// Post runs fn on the owning context after already queued work.
	Post(fn func())
	// PostDelayed runs fn on the owning context after d unless cancelled.
	PostDelayed(d time.Duration, fn func()) *Timer
}

// Timer is a handle to delayed work.
type Timer struct {
	cancelled atomic.Bool
	stop      func() bool
}

// Cancel prevents the work from running. Once Cancel returns on the owning
// context the work will not run.
func (t *Timer) Cancel() {
	if t == nil {
		return
	}
	t.cancelled.Store(true)
	if t.stop != nil {
		t.stop()
	}
}

// Cancelled reports whether Cancel was called.
func (t *Timer) Cancelled() bool {
	return t != nil && t.cancelled.Load()
}

// Loop is a goroutine-backed Scheduler. Tasks run one at a time in Post
// order on the goroutine that calls Run.
type Loop struct {
	mu      sync.Mutex
	pending []func()
	closed  bool
	wake    chan struct{}
	done    chan struct{}
}

var _ Scheduler = (*Loop)(nil)

// New returns a loop that is idle until Run is called.
func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Post queues fn. Calls after the loop stopped are dropped.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// PostDelayed queues fn after d.
func (l *Loop) PostDelayed(d time.Duration, fn func()) *Timer {
	t := &Timer{}
	timer := time.AfterFunc(d, func() {
		l.Post(func() {
			if !t.cancelled.Load() {
				fn()
			}
		})
	})
	t.stop = timer.Stop
	return t
}

// Call runs fn on the loop and waits for it to finish.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	l.Post(func() {
		defer close(finished)
		fn()
	})
	select {
	case <-finished:
		return nil
	case <-l.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Run executes queued work until ctx is cancelled. Pending work is dropped
// on exit.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			l.mu.Lock()
			l.closed = true
			l.pending = nil
			l.mu.Unlock()
			return ctx.Err()
		case <-l.wake:
		}

		for {
			l.mu.Lock()
			if len(l.pending) == 0 {
				l.mu.Unlock()
				break
			}
			batch := l.pending
			l.pending = nil
			l.mu.Unlock()

			for _, fn := range batch {
				if ctx.Err() != nil {
					break
				}
				fn()
			}
		}
	}
}
