package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/sunface/internal/datalayer"
)

// Status is the latest view of the data layer link shown by the UI.
type Status struct {
	Connection          datalayer.ConnectionState
	LastUpdated         time.Time
	LastSync            time.Time // last record applied from a peer
	LastError           error
	ConsecutiveFailures int // connect attempts failed in a row
	Applied             int
	Dropped             int
}

// IsOffline returns true when connecting has failed more than once in a row.
func (s Status) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Tracker coordinates concurrent updates to the link status.
type Tracker struct {
	mu     sync.RWMutex
	status Status
}

// Update records a connection state change. When err is non-nil the failure
// counter grows and the error is kept for display.
func (t *Tracker) Update(conn datalayer.ConnectionState, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status.Connection = conn
	t.status.LastUpdated = time.Now()
	if err != nil {
		t.status.LastError = err
		t.status.ConsecutiveFailures++
		return
	}
	if conn == datalayer.Connected {
		t.status.LastError = nil
		t.status.ConsecutiveFailures = 0
	}
}

// RecordApplied counts a peer record that changed the store.
func (t *Tracker) RecordApplied() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Applied++
	t.status.LastSync = time.Now()
}

// RecordDropped counts a record rejected as malformed.
func (t *Tracker) RecordDropped(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Dropped++
	if err != nil {
		t.status.LastError = err
	}
}

// Status returns a copy of the current status.
func (t *Tracker) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := t.status
	if t.status.LastError != nil {
		snap.LastError = fmt.Errorf("%w", t.status.LastError)
	}
	return snap
}
