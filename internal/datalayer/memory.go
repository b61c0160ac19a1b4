package datalayer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var errNoBlob = errors.New("no such blob")

// Hub is an in-process data layer shared by MemoryChannel nodes. It keeps
// only the latest record per path and content-addressed asset blobs.
type Hub struct {
	mu           sync.Mutex
	records      map[string]Record
	assets       map[string][]byte
	nodes        map[string]*MemoryChannel
	clock        func() time.Time
	assetLatency time.Duration
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{
		records: make(map[string]Record),
		assets:  make(map[string][]byte),
		nodes:   make(map[string]*MemoryChannel),
		clock:   time.Now,
	}
}

// SetClock replaces the clock used to stamp published records.
func (h *Hub) SetClock(clock func() time.Time) {
	h.mu.Lock()
	h.clock = clock
	h.mu.Unlock()
}

// SetAssetLatency delays every asset fetch by d.
func (h *Hub) SetAssetLatency(d time.Duration) {
	h.mu.Lock()
	h.assetLatency = d
	h.mu.Unlock()
}

// Record returns the retained record under path.
func (h *Hub) Record(path string) (Record, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rec, ok := h.records[path]
	if !ok {
		return Record{}, false
	}
	return rec.Clone(), true
}

func (h *Hub) publish(from string, path string, payload *Payload) Record {
	h.mu.Lock()
	rec := Record{Path: path, Payload: payload.Clone(), Timestamp: h.clock(), Origin: from}
	h.records[path] = rec
	peers := make([]*MemoryChannel, 0, len(h.nodes))
	for id, node := range h.nodes {
		if id != from {
			peers = append(peers, node)
		}
	}
	h.mu.Unlock()

	for _, peer := range peers {
		peer.receive(rec)
	}
	return rec
}

// MemoryOption configures a MemoryChannel.
type MemoryOption func(*MemoryChannel)

// WithNodeID sets the node id. A random id is used otherwise.
func WithNodeID(id string) MemoryOption {
	return func(c *MemoryChannel) { c.id = id }
}

// WithConnectTimeout bounds how long Publish waits during Connecting.
func WithConnectTimeout(d time.Duration) MemoryOption {
	return func(c *MemoryChannel) {
		if d > 0 {
			c.connectTimeout = d
		}
	}
}

// WithAssetTimeout bounds FetchAsset.
func WithAssetTimeout(d time.Duration) MemoryOption {
	return func(c *MemoryChannel) {
		if d > 0 {
			c.assetTimeout = d
		}
	}
}

// WithConnectGate makes Connect wait for gate to close before it completes.
// It simulates a slow or stuck link.
func WithConnectGate(gate <-chan struct{}) MemoryOption {
	return func(c *MemoryChannel) { c.gate = gate }
}

// MemoryChannel is one node attached to a Hub.
type MemoryChannel struct {
	hub            *Hub
	id             string
	connectTimeout time.Duration
	assetTimeout   time.Duration
	gate           <-chan struct{}
	cache          *AssetCache

	mu      sync.Mutex
	state   ConnectionState
	changed chan struct{}
	subs    map[*Subscription]struct{}
}

// NewMemoryChannel attaches a new disconnected node to hub.
func NewMemoryChannel(hub *Hub, opts ...MemoryOption) *MemoryChannel {
	c := &MemoryChannel{
		hub:            hub,
		id:             uuid.NewString(),
		connectTimeout: DefaultConnectTimeout,
		assetTimeout:   DefaultAssetTimeout,
		cache:          NewAssetCache(0, 0),
		changed:        make(chan struct{}),
		subs:           make(map[*Subscription]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the node id.
func (c *MemoryChannel) ID() string { return c.id }

func (c *MemoryChannel) setState(s ConnectionState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == s {
		return
	}
	c.state = s
	close(c.changed)
	c.changed = make(chan struct{})
}

// State returns the current link state.
func (c *MemoryChannel) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect joins the hub. With a connect gate it stays Connecting until the
// gate closes or ctx is done.
func (c *MemoryChannel) Connect(ctx context.Context) error {
	if c.State() == Connected {
		return nil
	}
	c.setState(Connecting)
	if c.gate != nil {
		select {
		case <-c.gate:
		case <-ctx.Done():
			c.setState(Disconnected)
			return fmt.Errorf("%w: %v", ErrConnectTimeout, ctx.Err())
		}
	}
	c.hub.mu.Lock()
	c.hub.nodes[c.id] = c
	c.hub.mu.Unlock()
	c.setState(Connected)
	return nil
}

// Disconnect leaves the hub. Subscriptions stay open and resume on the next
// Connect; records published meanwhile are not replayed.
func (c *MemoryChannel) Disconnect() {
	c.hub.mu.Lock()
	delete(c.hub.nodes, c.id)
	c.hub.mu.Unlock()
	c.setState(Disconnected)
}

// Close disconnects and ends every subscription.
func (c *MemoryChannel) Close() {
	c.Disconnect()
	c.mu.Lock()
	subs := make([]*Subscription, 0, len(c.subs))
	for s := range c.subs {
		subs = append(subs, s)
	}
	c.mu.Unlock()
	for _, s := range subs {
		s.Close()
	}
}

func (c *MemoryChannel) receive(rec Record) {
	c.mu.Lock()
	subs := make([]*Subscription, 0, len(c.subs))
	for s := range c.subs {
		subs = append(subs, s)
	}
	c.mu.Unlock()
	for _, s := range subs {
		s.deliver(rec)
	}
}

// waitConnected returns nil once connected. It fails fast when disconnected
// and gives up after the connect timeout while connecting.
func (c *MemoryChannel) waitConnected(ctx context.Context) error {
	return awaitConnected(ctx, c.connectTimeout, func() (ConnectionState, <-chan struct{}) {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.state, c.changed
	})
}

// Publish stores payload under path and fans it out to connected peers.
func (c *MemoryChannel) Publish(ctx context.Context, path string, payload *Payload) error {
	if err := c.waitConnected(ctx); err != nil {
		return fmt.Errorf("publish %s: %w", path, err)
	}
	c.hub.publish(c.id, path, payload)
	return nil
}

// Subscribe registers a stream of records published by other nodes. The
// subscription is released when ctx is done.
func (c *MemoryChannel) Subscribe(ctx context.Context) *Subscription {
	var sub *Subscription
	sub = newSubscription(func() {
		c.mu.Lock()
		delete(c.subs, sub)
		c.mu.Unlock()
	})
	c.mu.Lock()
	c.subs[sub] = struct{}{}
	c.mu.Unlock()
	context.AfterFunc(ctx, sub.Close)
	return sub
}

// FetchCurrent reads the retained record under path.
func (c *MemoryChannel) FetchCurrent(ctx context.Context, path string) (Record, bool, error) {
	if err := c.waitConnected(ctx); err != nil {
		return Record{}, false, fmt.Errorf("fetch %s: %w", path, err)
	}
	rec, ok := c.hub.Record(path)
	return rec, ok, nil
}

// PutAsset stores data in the hub and returns its handle.
func (c *MemoryChannel) PutAsset(ctx context.Context, data []byte) (AssetRef, error) {
	if err := c.waitConnected(ctx); err != nil {
		return AssetRef{}, fmt.Errorf("put asset: %w", err)
	}
	ref := DigestOf(data)
	c.hub.mu.Lock()
	c.hub.assets[ref.Digest] = append([]byte(nil), data...)
	c.hub.mu.Unlock()
	c.cache.Add(ref, data)
	return ref, nil
}

// FetchAsset resolves ref within the asset timeout.
func (c *MemoryChannel) FetchAsset(ctx context.Context, ref AssetRef) ([]byte, error) {
	return fetchBounded(ctx, c.assetTimeout, c.cache, ref, func(ctx context.Context) ([]byte, error) {
		if c.State() != Connected {
			return nil, ErrUnreachable
		}
		c.hub.mu.Lock()
		data, ok := c.hub.assets[ref.Digest]
		latency := c.hub.assetLatency
		c.hub.mu.Unlock()
		if latency > 0 {
			timer := time.NewTimer(latency)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		if !ok {
			return nil, errNoBlob
		}
		return append([]byte(nil), data...), nil
	})
}

func awaitConnected(ctx context.Context, timeout time.Duration, snapshot func() (ConnectionState, <-chan struct{})) error {
	var deadline <-chan time.Time
	for {
		state, changed := snapshot()
		switch state {
		case Connected:
			return nil
		case Disconnected:
			return ErrUnreachable
		}
		if deadline == nil {
			timer := time.NewTimer(timeout)
			defer timer.Stop()
			deadline = timer.C
		}
		select {
		case <-changed:
		case <-deadline:
			return ErrConnectTimeout
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrConnectTimeout, ctx.Err())
		}
	}
}
