// Package state holds the settings cache and link status shared between the
// sync service, the render engine and the UI.
//
// # Store
//
// Store keeps exactly one record per logical path. Local writes go through
// Put, which stamps the record with the store clock. Records delivered by a
// peer go through ApplyRemote, which merges by timestamp:
//
//	stored  incoming  result
//	t=10    t=9       ignored, returns false
//	t=10    t=10      replaced unless the payload is identical
//	t=10    t=11      replaced
//
// Records are cloned on the way in and on the way out, so callers never share
// a payload with the store.
//
// # Notifications
//
// Subscribe registers a listener for a single path. Listeners run on the
// goroutine that changed the store, without any store lock held, which lets
// a listener read or write the store. Changes to the same path are delivered
// in the order they were made, including writes made from inside a listener:
// those are queued behind the delivery in progress.
//
// In the display binary every write happens on the looper goroutine, so
// listeners also run there and may touch the render engine directly.
//
// # Tracker
//
// Tracker mirrors the data layer connection for display: current state, the
// last error, consecutive connect failures and counters of applied and
// dropped records. Status returns a copy.
package state
