package state

import (
	"sort"
	"sync"
	"time"

	"github.com/five82/sunface/internal/datalayer"
)

// Listener observes changes to one path.
type Listener func(datalayer.Record)

// Store is the last-known-value cache of synchronized records, one per path.
type Store struct {
	mu        sync.RWMutex
	records   map[string]datalayer.Record
	listeners map[string][]*listenerEntry
	clock     func() time.Time

	// Notifications are queued per path and drained by whichever caller
	// enqueued first, so each path sees changes in order.
	qmu      sync.Mutex
	queues   map[string][]datalayer.Record
	draining map[string]bool
}

type listenerEntry struct {
	fn Listener
}

// NewStore returns an empty store stamping local writes with clock. A nil
// clock selects time.Now.
func NewStore(clock func() time.Time) *Store {
	if clock == nil {
		clock = time.Now
	}
	return &Store{
		records:   make(map[string]datalayer.Record),
		listeners: make(map[string][]*listenerEntry),
		clock:     clock,
		queues:    make(map[string][]datalayer.Record),
		draining:  make(map[string]bool),
	}
}

// Get returns a copy of the record under path.
func (s *Store) Get(path string) (datalayer.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[path]
	if !ok {
		return datalayer.Record{}, false
	}
	return rec.Clone(), true
}

// Put records a local write under path, stamped now, and notifies listeners.
func (s *Store) Put(path string, payload *datalayer.Payload) datalayer.Record {
	rec := datalayer.Record{Path: path, Payload: payload.Clone(), Timestamp: s.clock()}
	s.mu.Lock()
	s.records[path] = rec
	drain := s.enqueue(rec)
	s.mu.Unlock()
	if drain {
		s.drain(path)
	}
	return rec.Clone()
}

// ApplyRemote merges a delivered record. A record older than the stored one
// is ignored. An identical redelivery is ignored too. It reports whether the
// store changed.
func (s *Store) ApplyRemote(rec datalayer.Record) bool {
	s.mu.Lock()
	current, ok := s.records[rec.Path]
	if ok {
		if rec.Timestamp.Before(current.Timestamp) {
			s.mu.Unlock()
			return false
		}
		if rec.Timestamp.Equal(current.Timestamp) && rec.Payload.Equal(current.Payload) {
			s.mu.Unlock()
			return false
		}
	}
	stored := rec.Clone()
	s.records[rec.Path] = stored
	drain := s.enqueue(stored)
	s.mu.Unlock()
	if drain {
		s.drain(rec.Path)
	}
	return true
}

// Paths lists stored paths in lexical order.
func (s *Store) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.records))
	for p := range s.records {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Subscribe registers fn for changes under path and returns a function that
// removes it.
func (s *Store) Subscribe(path string, fn Listener) (unsubscribe func()) {
	entry := &listenerEntry{fn: fn}
	s.mu.Lock()
	s.listeners[path] = append(s.listeners[path], entry)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			entries := s.listeners[path]
			for i, e := range entries {
				if e == entry {
					s.listeners[path] = append(entries[:i:i], entries[i+1:]...)
					break
				}
			}
		})
	}
}

// enqueue queues rec for its listeners. It must be called with mu held, in
// the same critical section as the write, so notifications follow write
// order. It reports whether the caller must drain the queue.
func (s *Store) enqueue(rec datalayer.Record) bool {
	s.qmu.Lock()
	defer s.qmu.Unlock()
	s.queues[rec.Path] = append(s.queues[rec.Path], rec)
	if s.draining[rec.Path] {
		return false
	}
	s.draining[rec.Path] = true
	return true
}

// drain delivers queued records for path until the queue is empty. It runs
// without mu held.
func (s *Store) drain(path string) {
	for {
		s.qmu.Lock()
		queue := s.queues[path]
		if len(queue) == 0 {
			delete(s.queues, path)
			delete(s.draining, path)
			s.qmu.Unlock()
			return
		}
		next := queue[0]
		s.queues[path] = queue[1:]
		s.qmu.Unlock()

		s.mu.RLock()
		entries := append([]*listenerEntry(nil), s.listeners[path]...)
		s.mu.RUnlock()
		for _, e := range entries {
			e.fn(next.Clone())
		}
	}
}
