package app

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/five82/sunface/internal/config"
	"github.com/five82/sunface/internal/datalayer"
	"github.com/five82/sunface/internal/engine"
	"github.com/five82/sunface/internal/palette"
	"github.com/five82/sunface/internal/prefs"
	"github.com/five82/sunface/internal/settings"
)

func paintOf(t *testing.T, d *display) engine.Paint {
	t.Helper()
	var p engine.Paint
	if err := d.loop.Call(context.Background(), func() { p = d.engine.Paint() }); err != nil {
		t.Fatalf("loop.Call: %v", err)
	}
	return p
}

func TestDisplay_RestoresPrefsThenFollowsPeer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prefsPath := filepath.Join(t.TempDir(), "face.toml")
	restored := palette.ColorConfiguration{Background: palette.MustParseHex("#202020"), DateTime: palette.MustParseHex("#00FF00")}

	hub := datalayer.NewHub()
	d, err := startDisplay(ctx, displayConfig{
		channel:        datalayer.NewMemoryChannel(hub),
		initial:        prefs.FromColors("Slate", restored),
		prefsPath:      prefsPath,
		connectTimeout: time.Second,
		backoffBase:    time.Millisecond,
		linkPoll:       time.Millisecond,
		supervise:      true,
		logger:         discardLogger(),
	})
	if err != nil {
		t.Fatalf("startDisplay: %v", err)
	}
	defer d.close()

	if got := paintOf(t, d); got.Background != restored.Background || got.Text != restored.DateTime {
		t.Fatalf("paint = %+v, want restored %v", got, restored)
	}
	waitFor(t, "display connected", func() bool { return d.tracker.Status().Connection == datalayer.Connected })

	primary := datalayer.NewMemoryChannel(hub)
	if err := primary.Connect(ctx); err != nil {
		t.Fatalf("primary Connect: %v", err)
	}
	chosen := palette.ColorConfiguration{Background: palette.MustParseHex("#000080"), DateTime: palette.White}
	if err := primary.Publish(ctx, datalayer.PathWatchFaceConfig, settings.EncodeColors(chosen)); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	waitFor(t, "peer colours on the face", func() bool {
		p := paintOf(t, d)
		return p.Background == chosen.Background && p.Text == chosen.DateTime
	})
	waitFor(t, "prefs saved", func() bool {
		saved, _ := prefs.Load(prefsPath)
		return saved.Colors() == chosen
	})
	if saved, _ := prefs.Load(prefsPath); saved.Theme == "" {
		t.Fatalf("saved prefs lost the theme")
	}
	if got := d.tracker.Status().Applied; got < 1 {
		t.Fatalf("Applied = %d, want at least 1", got)
	}
}

func TestDisplay_SnapshotPicksUpRetainedConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hub := datalayer.NewHub()
	primary := datalayer.NewMemoryChannel(hub)
	if err := primary.Connect(ctx); err != nil {
		t.Fatalf("primary Connect: %v", err)
	}
	red := palette.ColorConfiguration{Background: palette.MustParseHex("#FF0000"), DateTime: palette.White}
	if err := primary.Publish(ctx, datalayer.PathWatchFaceConfig, settings.EncodeColors(red)); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	d, err := startDisplay(ctx, displayConfig{
		channel:   datalayer.NewMemoryChannel(hub),
		initial:   prefs.Defaults(),
		prefsPath: filepath.Join(t.TempDir(), "face.toml"),
		logger:    discardLogger(),
	})
	if err != nil {
		t.Fatalf("startDisplay: %v", err)
	}
	defer d.close()

	out := filepath.Join(t.TempDir(), "face.png")
	if err := d.snapshot(ctx, out, image.Pt(64, 48), time.Second); err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	file, err := os.Open(out)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer file.Close()
	img, err := png.Decode(file)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if got := img.Bounds(); got != image.Rect(0, 0, 64, 48) {
		t.Fatalf("bounds = %v, want 64x48", got)
	}
	r, g, b, _ := img.At(0, 0).RGBA()
	if r>>8 != 0xFF || g>>8 != 0 || b>>8 != 0 {
		t.Fatalf("corner = %02x%02x%02x, want ff0000", r>>8, g>>8, b>>8)
	}
}

func TestNewChannel_SelectsTransport(t *testing.T) {
	cfg := config.Default()
	if _, ok := NewChannel(cfg, discardLogger()).(*datalayer.MemoryChannel); !ok {
		t.Fatalf("NewChannel without broker is not a memory channel")
	}
	cfg.Broker = "tcp://127.0.0.1:1883"
	if _, ok := NewChannel(cfg, discardLogger()).(*datalayer.MQTTChannel); !ok {
		t.Fatalf("NewChannel with broker is not an MQTT channel")
	}
}
