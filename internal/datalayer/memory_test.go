package datalayer

import (
	"context"
	"errors"
	"testing"
	"time"
)

func colours(bg, fg string) *Payload {
	return NewPayload().
		PutString("KEY_BACKGROUND_COLOUR", bg).
		PutString("KEY_DATE_TIME_COLOUR", fg)
}

func connected(t *testing.T, hub *Hub, opts ...MemoryOption) *MemoryChannel {
	t.Helper()
	c := NewMemoryChannel(hub, opts...)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestMemoryChannel_PublishDeliversToPeers(t *testing.T) {
	hub := NewHub()
	phone := connected(t, hub, WithNodeID("phone"))
	watch := connected(t, hub, WithNodeID("watch"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sub := watch.Subscribe(ctx)
	self := phone.Subscribe(ctx)

	if err := phone.Publish(ctx, PathWatchFaceConfig, colours("#000000", "#FFFFFF")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	rec, err := sub.Next(ctx)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if rec.Path != PathWatchFaceConfig || rec.Origin != "phone" {
		t.Fatalf("record = %+v, want %s from phone", rec, PathWatchFaceConfig)
	}
	if bg, _ := rec.Payload.String("KEY_BACKGROUND_COLOUR"); bg != "#000000" {
		t.Fatalf("background = %q, want #000000", bg)
	}

	short, cancelShort := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancelShort()
	if _, err := self.Next(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("publisher received its own record: err = %v", err)
	}
}

func TestMemoryChannel_PublishDisconnectedIsUnreachable(t *testing.T) {
	hub := NewHub()
	c := NewMemoryChannel(hub)

	err := c.Publish(context.Background(), PathWatchFaceConfig, colours("#000000", "#FFFFFF"))
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("Publish() error = %v, want ErrUnreachable", err)
	}
	if _, ok := hub.Record(PathWatchFaceConfig); ok {
		t.Fatalf("hub retained a record from a failed publish")
	}

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := c.Publish(context.Background(), PathWatchFaceConfig, colours("#000000", "#FFFFFF")); err != nil {
		t.Fatalf("Publish() after connect error = %v", err)
	}
}

func TestMemoryChannel_PublishWhileConnectingTimesOut(t *testing.T) {
	gate := make(chan struct{})
	c := NewMemoryChannel(NewHub(), WithConnectGate(gate), WithConnectTimeout(30*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = c.Connect(ctx) }()

	deadline := time.Now().Add(time.Second)
	for c.State() != Connecting {
		if time.Now().After(deadline) {
			t.Fatalf("State() = %v, want connecting", c.State())
		}
		time.Sleep(time.Millisecond)
	}

	start := time.Now()
	err := c.Publish(context.Background(), PathWeather, NewPayload().PutInt("weather_id", 800))
	if !errors.Is(err, ErrConnectTimeout) {
		t.Fatalf("Publish() error = %v, want ErrConnectTimeout", err)
	}
	if waited := time.Since(start); waited < 25*time.Millisecond {
		t.Fatalf("Publish() returned after %v, want it to wait for the timeout", waited)
	}
}

func TestMemoryChannel_PublishWaitsForConnectingToFinish(t *testing.T) {
	gate := make(chan struct{})
	c := NewMemoryChannel(NewHub(), WithConnectGate(gate))
	t.Cleanup(c.Close)

	go func() { _ = c.Connect(context.Background()) }()
	for c.State() != Connecting {
		time.Sleep(time.Millisecond)
	}
	time.AfterFunc(10*time.Millisecond, func() { close(gate) })

	if err := c.Publish(context.Background(), PathWeather, NewPayload().PutInt("weather_id", 800)); err != nil {
		t.Fatalf("Publish() error = %v, want success once connected", err)
	}
}

func TestMemoryChannel_ResumeWithoutGapReplay(t *testing.T) {
	hub := NewHub()
	phone := connected(t, hub, WithNodeID("phone"))
	watch := connected(t, hub, WithNodeID("watch"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sub := watch.Subscribe(ctx)

	watch.Disconnect()
	if err := phone.Publish(ctx, PathWatchFaceConfig, colours("#111111", "#222222")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := watch.Connect(ctx); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	rec, ok, err := watch.FetchCurrent(ctx, PathWatchFaceConfig)
	if err != nil || !ok {
		t.Fatalf("FetchCurrent() = %v, %v, want retained record", ok, err)
	}
	if bg, _ := rec.Payload.String("KEY_BACKGROUND_COLOUR"); bg != "#111111" {
		t.Fatalf("fetched background = %q, want #111111", bg)
	}

	if err := phone.Publish(ctx, PathWatchFaceConfig, colours("#333333", "#444444")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	next, err := sub.Next(ctx)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if bg, _ := next.Payload.String("KEY_BACKGROUND_COLOUR"); bg != "#333333" {
		t.Fatalf("first record after reconnect = %q, want #333333 (no gap replay)", bg)
	}
}

func TestSubscription_AllIsRestartable(t *testing.T) {
	hub := NewHub()
	phone := connected(t, hub)
	watch := connected(t, hub)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sub := watch.Subscribe(ctx)

	for _, id := range []int64{1, 2, 3} {
		if err := phone.Publish(ctx, PathWeather, NewPayload().PutInt("weather_id", id)); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}

	var got []int64
	for rec := range sub.All(ctx) {
		id, _ := rec.Payload.Int("weather_id")
		got = append(got, id)
		if len(got) == 1 {
			break
		}
	}
	for rec := range sub.All(ctx) {
		id, _ := rec.Payload.Int("weather_id")
		got = append(got, id)
		if len(got) == 3 {
			break
		}
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("ids = %v, want [1 2 3]", got)
	}
}

func TestSubscription_ClosedByContext(t *testing.T) {
	c := connected(t, NewHub())
	ctx, cancel := context.WithCancel(context.Background())
	sub := c.Subscribe(ctx)
	cancel()

	wait, stop := context.WithTimeout(context.Background(), time.Second)
	defer stop()
	if _, err := sub.Next(wait); !errors.Is(err, ErrClosed) {
		t.Fatalf("Next() error = %v, want ErrClosed", err)
	}
}

func TestMemoryChannel_Assets(t *testing.T) {
	hub := NewHub()
	phone := connected(t, hub)
	watch := connected(t, hub, WithAssetTimeout(20*time.Millisecond))
	ctx := context.Background()

	icon := []byte{0x89, 'P', 'N', 'G'}
	ref, err := phone.PutAsset(ctx, icon)
	if err != nil {
		t.Fatalf("PutAsset() error = %v", err)
	}
	if ref != DigestOf(icon) {
		t.Fatalf("ref = %v, want content digest", ref)
	}

	data, err := watch.FetchAsset(ctx, ref)
	if err != nil || string(data) != string(icon) {
		t.Fatalf("FetchAsset() = %v, %v, want icon bytes", data, err)
	}

	if _, err := watch.FetchAsset(ctx, DigestOf([]byte("missing"))); !errors.Is(err, ErrAssetUnavailable) {
		t.Fatalf("FetchAsset(missing) error = %v, want ErrAssetUnavailable", err)
	}
}

func TestMemoryChannel_AssetTimeout(t *testing.T) {
	hub := NewHub()
	phone := connected(t, hub)
	watch := connected(t, hub, WithAssetTimeout(20*time.Millisecond))
	ref, err := phone.PutAsset(context.Background(), []byte("icon"))
	if err != nil {
		t.Fatalf("PutAsset() error = %v", err)
	}
	hub.SetAssetLatency(time.Second)

	start := time.Now()
	_, err = watch.FetchAsset(context.Background(), ref)
	if !errors.Is(err, ErrAssetUnavailable) {
		t.Fatalf("FetchAsset() error = %v, want ErrAssetUnavailable", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("FetchAsset() took %v, want bounded by the asset timeout", elapsed)
	}
}

func TestMemoryChannel_AssetCacheServesRepeatFetch(t *testing.T) {
	hub := NewHub()
	phone := connected(t, hub)
	watch := connected(t, hub)
	ref, _ := phone.PutAsset(context.Background(), []byte("icon"))

	if _, err := watch.FetchAsset(context.Background(), ref); err != nil {
		t.Fatalf("FetchAsset() error = %v", err)
	}
	watch.Disconnect()
	data, err := watch.FetchAsset(context.Background(), ref)
	if err != nil || string(data) != "icon" {
		t.Fatalf("cached FetchAsset() = %q, %v, want icon from cache", data, err)
	}
}
