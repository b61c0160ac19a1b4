package datalayer

import (
	"context"
	"errors"
	"time"
)

// Logical paths exchanged between devices.
const (
	PathWatchFaceConfig = "/watch_face_config"
	PathWeather         = "/weather"
)

const (
	// DefaultConnectTimeout bounds how long Publish waits for a connection in
	// progress.
	DefaultConnectTimeout = 30 * time.Second
	// DefaultAssetTimeout bounds FetchAsset.
	DefaultAssetTimeout = time.Second
)

var (
	// ErrUnreachable reports a publish attempted without a connection.
	ErrUnreachable = errors.New("transport unavailable")
	// ErrConnectTimeout reports a connection that did not come up in time.
	ErrConnectTimeout = errors.New("connect timeout")
	// ErrMalformedPayload reports a payload missing a required key or
	// carrying undecodable bytes.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrAssetUnavailable reports an asset that could not be fetched in time.
	ErrAssetUnavailable = errors.New("asset unavailable")
	// ErrClosed is returned by a subscription whose channel was closed.
	ErrClosed = errors.New("channel closed")
)

// ConnectionState tracks a channel's link.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
)

func (s ConnectionState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Channel is the cross-device data layer.
type Channel interface {
	// Connect blocks until connected or ctx is done.
	Connect(ctx context.Context) error
	// Disconnect is safe to call at any time.
	Disconnect()
	State() ConnectionState
	// Publish replaces the record under path for every node.
	Publish(ctx context.Context, path string, payload *Payload) error
	// Subscribe returns a stream of remote changes that survives reconnects.
	Subscribe(ctx context.Context) *Subscription
	// FetchCurrent returns the latest retained record under path.
	FetchCurrent(ctx context.Context, path string) (Record, bool, error)
	PutAsset(ctx context.Context, data []byte) (AssetRef, error)
	FetchAsset(ctx context.Context, ref AssetRef) ([]byte, error)
}
