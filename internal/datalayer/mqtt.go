package datalayer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const (
	// DefaultTopicPrefix roots every topic the channel uses.
	DefaultTopicPrefix = "sunface"

	assetSegment = "/assets/"
	qosAtLeast   = 1
	quiesceMS    = 250
	// retainedWait bounds how long FetchCurrent waits for a retained message.
	retainedWait = 750 * time.Millisecond
)

// MQTTOptions configure an MQTTChannel.
type MQTTOptions struct {
	Broker         string // e.g. tcp://localhost:1883
	TopicPrefix    string
	ClientID       string
	ConnectTimeout time.Duration
	AssetTimeout   time.Duration
	Logger         *slog.Logger

	// NewClient builds the paho client. Defaults to mqtt.NewClient.
	NewClient func(*mqtt.ClientOptions) mqtt.Client
}

// MQTTChannel carries records as retained JSON messages on an MQTT broker.
// Each path maps to one topic so the broker keeps exactly the latest record.
type MQTTChannel struct {
	client         mqtt.Client
	prefix         string
	id             string
	connectTimeout time.Duration
	assetTimeout   time.Duration
	cache          *AssetCache
	logger         *slog.Logger

	mu      sync.Mutex
	state   ConnectionState
	changed chan struct{}
	subs    map[*Subscription]struct{}
}

// NewMQTTChannel creates a disconnected channel.
func NewMQTTChannel(opts MQTTOptions) *MQTTChannel {
	prefix := strings.TrimRight(strings.TrimSpace(opts.TopicPrefix), "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	id := strings.TrimSpace(opts.ClientID)
	if id == "" {
		id = "sunface-" + uuid.NewString()
	}
	connectTimeout := opts.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	assetTimeout := opts.AssetTimeout
	if assetTimeout <= 0 {
		assetTimeout = DefaultAssetTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &MQTTChannel{
		prefix:         prefix,
		id:             id,
		connectTimeout: connectTimeout,
		assetTimeout:   assetTimeout,
		cache:          NewAssetCache(0, 0),
		logger:         logger.With("component", "mqtt", "client_id", id),
		changed:        make(chan struct{}),
		subs:           make(map[*Subscription]struct{}),
	}

	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(id).
		SetAutoReconnect(true).
		SetConnectRetry(false).
		SetConnectTimeout(connectTimeout).
		SetOrderMatters(true).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(c.onConnectionLost).
		SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
			c.setState(Connecting)
		})

	newClient := opts.NewClient
	if newClient == nil {
		newClient = mqtt.NewClient
	}
	c.client = newClient(clientOpts)
	return c
}

// ID returns the MQTT client id, also used as the record origin.
func (c *MQTTChannel) ID() string { return c.id }

func (c *MQTTChannel) setState(s ConnectionState) {
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
func (c *MQTTChannel) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *MQTTChannel) recordTopic(path string) string {
	return c.prefix + "/" + strings.TrimLeft(path, "/")
}

func (c *MQTTChannel) assetTopic(ref AssetRef) string {
	return c.prefix + assetSegment + ref.Digest
}

func (c *MQTTChannel) pathOf(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, c.prefix)
	if !ok || !strings.HasPrefix(rest, "/") || strings.HasPrefix(rest, assetSegment) {
		return "", false
	}
	return rest, true
}

func (c *MQTTChannel) onConnect(client mqtt.Client) {
	token := client.Subscribe(c.prefix+"/#", qosAtLeast, c.onMessage)
	go func() {
		if !token.WaitTimeout(c.connectTimeout) || token.Error() != nil {
			c.logger.Warn("subscribe failed", "error", token.Error())
		}
	}()
	c.setState(Connected)
	c.logger.Info("connected")
}

func (c *MQTTChannel) onConnectionLost(_ mqtt.Client, err error) {
	c.setState(Connecting)
	c.logger.Warn("connection lost", "error", err)
}

func (c *MQTTChannel) onMessage(_ mqtt.Client, msg mqtt.Message) {
	path, ok := c.pathOf(msg.Topic())
	if !ok {
		return
	}
	rec, err := decodeRecord(path, msg.Payload())
	if err != nil {
		c.logger.Warn("dropping undecodable record", "topic", msg.Topic(), "error", err)
		return
	}
	if rec.Origin == c.id {
		return
	}
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

// Connect opens the broker connection. It returns ErrConnectTimeout when
// ctx ends first.
func (c *MQTTChannel) Connect(ctx context.Context) error {
	if c.State() == Connected {
		return nil
	}
	c.setState(Connecting)
	token := c.client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		c.client.Disconnect(0)
		c.setState(Disconnected)
		return fmt.Errorf("%w: %v", ErrConnectTimeout, ctx.Err())
	}
	if err := token.Error(); err != nil {
		c.setState(Disconnected)
		return fmt.Errorf("connect: %w: %v", ErrUnreachable, err)
	}
	c.setState(Connected)
	return nil
}

// Disconnect closes the broker connection and stops auto reconnect.
func (c *MQTTChannel) Disconnect() {
	if c.State() != Disconnected {
		c.client.Disconnect(quiesceMS)
	}
	c.setState(Disconnected)
}

func (c *MQTTChannel) waitConnected(ctx context.Context) error {
	return awaitConnected(ctx, c.connectTimeout, func() (ConnectionState, <-chan struct{}) {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.state, c.changed
	})
}

// Publish writes payload as a retained record under path.
func (c *MQTTChannel) Publish(ctx context.Context, path string, payload *Payload) error {
	if err := c.waitConnected(ctx); err != nil {
		return fmt.Errorf("publish %s: %w", path, err)
	}
	body, err := json.Marshal(Record{Path: path, Payload: payload, Timestamp: time.Now().UTC(), Origin: c.id})
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	token := c.client.Publish(c.recordTopic(path), qosAtLeast, true, body)
	return c.await(ctx, token, "publish "+path)
}

func (c *MQTTChannel) await(ctx context.Context, token mqtt.Token, what string) error {
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", what, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%s: %w: %v", what, ErrUnreachable, err)
	}
	return nil
}

// Subscribe registers a stream of records published by other clients. It
// keeps receiving across automatic reconnects.
func (c *MQTTChannel) Subscribe(ctx context.Context) *Subscription {
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

// retained subscribes to topic and returns the first message, if any arrives
// within the wait window.
func (c *MQTTChannel) retained(ctx context.Context, topic string, wait time.Duration) ([]byte, bool, error) {
	got := make(chan []byte, 1)
	token := c.client.Subscribe(topic, qosAtLeast, func(_ mqtt.Client, msg mqtt.Message) {
		select {
		case got <- append([]byte(nil), msg.Payload()...):
		default:
		}
	})
	if err := c.await(ctx, token, "subscribe "+topic); err != nil {
		return nil, false, err
	}
	defer c.client.Unsubscribe(topic)

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case body := <-got:
		return body, true, nil
	case <-timer.C:
		return nil, false, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// FetchCurrent reads the retained record under path.
func (c *MQTTChannel) FetchCurrent(ctx context.Context, path string) (Record, bool, error) {
	if err := c.waitConnected(ctx); err != nil {
		return Record{}, false, fmt.Errorf("fetch %s: %w", path, err)
	}
	body, ok, err := c.retained(ctx, c.recordTopic(path), retainedWait)
	if err != nil || !ok {
		return Record{}, false, err
	}
	rec, err := decodeRecord(path, body)
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// PutAsset publishes data as a retained blob and returns its handle.
func (c *MQTTChannel) PutAsset(ctx context.Context, data []byte) (AssetRef, error) {
	if err := c.waitConnected(ctx); err != nil {
		return AssetRef{}, fmt.Errorf("put asset: %w", err)
	}
	ref := DigestOf(data)
	token := c.client.Publish(c.assetTopic(ref), qosAtLeast, true, data)
	if err := c.await(ctx, token, "put asset"); err != nil {
		return AssetRef{}, err
	}
	c.cache.Add(ref, data)
	return ref, nil
}

// FetchAsset resolves ref within the asset timeout.
func (c *MQTTChannel) FetchAsset(ctx context.Context, ref AssetRef) ([]byte, error) {
	return fetchBounded(ctx, c.assetTimeout, c.cache, ref, func(ctx context.Context) ([]byte, error) {
		if c.State() != Connected {
			return nil, ErrUnreachable
		}
		body, ok, err := c.retained(ctx, c.assetTopic(ref), c.assetTimeout)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errNoBlob
		}
		return body, nil
	})
}

func decodeRecord(path string, body []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return Record{}, fmt.Errorf("decode %s: %w: %v", path, ErrMalformedPayload, err)
	}
	if rec.Payload == nil {
		return Record{}, fmt.Errorf("decode %s: %w: no payload", path, ErrMalformedPayload)
	}
	rec.Path = path
	return rec, nil
}
