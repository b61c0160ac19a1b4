package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/sunface/internal/config"
	"github.com/five82/sunface/internal/datalayer"
	"github.com/five82/sunface/internal/engine"
	"github.com/five82/sunface/internal/face"
	"github.com/five82/sunface/internal/logging"
	"github.com/five82/sunface/internal/looper"
	"github.com/five82/sunface/internal/prefs"
	"github.com/five82/sunface/internal/settings"
	"github.com/five82/sunface/internal/state"
	"github.com/five82/sunface/internal/ui"
)

// Options configure the sunface display.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/sunface/face.toml

	// Snapshot, when set, renders one frame to this PNG path and exits
	// instead of starting the UI.
	Snapshot     string
	SnapshotSize image.Point // zero uses 320x320
}

const shutdownTimeout = 2 * time.Second

var defaultSnapshotSize = image.Pt(320, 320)

// Run boots the display until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closer, err := openLogger(cfg, opts.Snapshot != "")
	if err != nil {
		return err
	}
	defer closer.Close()

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs, _ := prefs.Load(prefsPath)

	if !cfg.UsesBroker() {
		logger.Info("no broker configured; syncing over the in-process hub only")
	}
	channel := NewChannel(cfg, logger)

	d, err := startDisplay(ctx, displayConfig{
		channel:        channel,
		initial:        userPrefs,
		prefsPath:      prefsPath,
		connectTimeout: cfg.ConnectTimeout,
		timeSize:       cfg.TimeSize,
		dateSize:       cfg.DateSize,
		supervise:      opts.Snapshot == "",
		logger:         logger,
	})
	if err != nil {
		return err
	}
	defer d.close()

	if opts.Snapshot != "" {
		return d.snapshot(ctx, opts.Snapshot, opts.SnapshotSize, cfg.ConnectTimeout)
	}

	program := ui.NewProgram(ui.Options{
		Context:   ctx,
		Surface:   loopSurface{loop: d.loop, engine: d.engine},
		Status:    d.tracker.Status,
		LogPath:   cfg.LogPath("sunface"),
		PrefsPath: prefsPath,
		ThemeName: userPrefs.Theme,
	})
	go d.forwardRedraws(ctx, program)

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

// NewChannel builds the data layer channel described by cfg: MQTT when a
// broker is configured, otherwise a node on a private in-process hub.
func NewChannel(cfg config.Config, logger *slog.Logger) datalayer.Channel {
	if cfg.UsesBroker() {
		return datalayer.NewMQTTChannel(datalayer.MQTTOptions{
			Broker:         cfg.Broker,
			TopicPrefix:    cfg.TopicPrefix,
			ClientID:       cfg.ClientID,
			ConnectTimeout: cfg.ConnectTimeout,
			AssetTimeout:   cfg.AssetTimeout,
			Logger:         logger,
		})
	}
	opts := []datalayer.MemoryOption{
		datalayer.WithConnectTimeout(cfg.ConnectTimeout),
		datalayer.WithAssetTimeout(cfg.AssetTimeout),
	}
	if cfg.ClientID != "" {
		opts = append(opts, datalayer.WithNodeID(cfg.ClientID))
	}
	return datalayer.NewMemoryChannel(datalayer.NewHub(), opts...)
}

// openLogger writes JSON logs to the configured file because the UI owns
// the terminal. Snapshot runs log to stderr.
func openLogger(cfg config.Config, toStderr bool) (*slog.Logger, io.Closer, error) {
	logCfg := logging.Config{Level: logging.Level(cfg.LogLevel), Format: logging.Format(cfg.LogFormat)}
	if toStderr {
		logCfg.Output = os.Stderr
		logCfg.Format = logging.FormatText
		return logging.New(logCfg), closerFunc(func() error { return nil }), nil
	}
	logger, closer, err := logging.Setup(cfg.LogPath("sunface"), logCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("setup logging: %w", err)
	}
	return logger, closer, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

type displayConfig struct {
	channel        datalayer.Channel
	initial        prefs.Prefs
	prefsPath      string
	connectTimeout time.Duration
	backoffBase    time.Duration
	linkPoll       time.Duration
	timeSize       int
	dateSize       int
	supervise      bool
	logger         *slog.Logger
}

// display is the running display role: one loop owning the engine and the
// settings store, plus the goroutines that feed it.
type display struct {
	loop     *looper.Loop
	stopLoop context.CancelFunc
	engine   *engine.Engine
	service  *settings.Service
	tracker  *state.Tracker
	channel  datalayer.Channel
	minute   *minuteTicker
	redraw   chan struct{}
	logger   *slog.Logger
}

func startDisplay(ctx context.Context, cfg displayConfig) (*display, error) {
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	loopCtx, stopLoop := context.WithCancel(context.Background())
	d := &display{
		loop:     looper.New(),
		stopLoop: stopLoop,
		tracker:  &state.Tracker{},
		channel:  cfg.channel,
		redraw:   make(chan struct{}, 1),
		logger:   logger.With("component", "app"),
	}
	go func() { _ = d.loop.Run(loopCtx) }()

	saver := newPrefsSaver(cfg.prefsPath, d.logger)
	err := d.loop.Call(ctx, func() {
		d.engine = engine.New(d.loop, engine.Options{
			OnInvalidate: d.requestRedraw,
			TimeSize:     cfg.timeSize,
			DateSize:     cfg.dateSize,
			Logger:       logger,
		})
		d.service = settings.New(settings.Options{
			Role:      settings.RoleDisplay,
			Channel:   cfg.channel,
			Scheduler: d.loop,
			Sink:      d.engine,
			Tracker:   d.tracker,
			Logger:    logger,
		})
		d.service.Seed(cfg.initial.Colors())
		d.service.Store().Subscribe(datalayer.PathWatchFaceConfig, func(datalayer.Record) {
			saver.offer(d.service.Colors())
		})
		d.engine.HandleVisibility(true)
		d.minute = startMinuteTicker(d.loop, time.Now, d.engine.HandleTimeTick)
	})
	if err != nil {
		stopLoop()
		return nil, fmt.Errorf("start display: %w", err)
	}

	go saver.run(ctx)
	go func() { _ = d.service.Run(ctx) }()
	if cfg.supervise {
		sup := &supervisor{
			channel:        cfg.channel,
			tracker:        d.tracker,
			resync:         d.service.Resync,
			connectTimeout: cfg.connectTimeout,
			backoffBase:    cfg.backoffBase,
			linkPoll:       cfg.linkPoll,
			logger:         logger.With("component", "supervisor"),
		}
		go sup.run(ctx)
	}
	return d, nil
}

// requestRedraw runs on the loop and never blocks.
func (d *display) requestRedraw() {
	select {
	case d.redraw <- struct{}{}:
	default:
	}
}

func (d *display) forwardRedraws(ctx context.Context, program *tea.Program) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.redraw:
			program.Send(ui.InvalidateMsg{})
		}
	}
}

func (d *display) snapshot(ctx context.Context, path string, size image.Point, connectTimeout time.Duration) error {
	if size.X <= 0 || size.Y <= 0 {
		size = defaultSnapshotSize
	}
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	err := d.channel.Connect(connectCtx)
	cancel()
	if err != nil {
		d.logger.Warn("snapshot without peer settings", "error", err)
	} else if err := d.service.Resync(ctx); err != nil {
		d.logger.Warn("resync failed", "error", err)
	}

	var frame face.Frame
	if err := d.loop.Call(ctx, func() { frame = d.engine.Draw(image.Rectangle{Max: size}) }); err != nil {
		return fmt.Errorf("draw snapshot: %w", err)
	}
	if err := writeSnapshot(path, frame); err != nil {
		return err
	}
	d.logger.Info("snapshot written", "path", path)
	return nil
}

func (d *display) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = d.loop.Call(ctx, func() {
		d.minute.stop()
		d.engine.Destroy()
		d.service.Close()
	})
	d.channel.Disconnect()
	d.stopLoop()
}
