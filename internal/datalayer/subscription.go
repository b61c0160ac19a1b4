package datalayer

import (
	"context"
	"iter"
	"sync"
)

// Subscription is an unbounded, restartable sequence of remote records.
// Deliveries queue while nobody reads. A reader that stops ranging over All
// can call All again and continue where it left off.
type Subscription struct {
	mu      sync.Mutex
	queue   []Record
	notify  chan struct{}
	done    chan struct{}
	closed  bool
	onClose func()
}

func newSubscription(onClose func()) *Subscription {
	return &Subscription{notify: make(chan struct{}, 1), done: make(chan struct{}), onClose: onClose}
}

func (s *Subscription) deliver(rec Record) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, rec.Clone())
	s.mu.Unlock()
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Next blocks until a record arrives, ctx is done or the subscription closes.
func (s *Subscription) Next(ctx context.Context) (Record, error) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			rec := s.queue[0]
			s.queue[0] = Record{}
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return rec, nil
		}
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return Record{}, ErrClosed
		}

		select {
		case <-ctx.Done():
			return Record{}, ctx.Err()
		case <-s.done:
		case <-s.notify:
		}
	}
}

// All yields records until ctx is done or the subscription closes.
func (s *Subscription) All(ctx context.Context) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for {
			rec, err := s.Next(ctx)
			if err != nil {
				return
			}
			if !yield(rec) {
				return
			}
		}
	}
}

// Close ends the subscription. Queued records are discarded.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.queue = nil
	onClose := s.onClose
	close(s.done)
	s.mu.Unlock()
	if onClose != nil {
		onClose()
	}
}
