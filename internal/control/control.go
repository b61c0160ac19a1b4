package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/five82/sunface/internal/datalayer"
	"github.com/five82/sunface/internal/looper"
	"github.com/five82/sunface/internal/palette"
	"github.com/five82/sunface/internal/settings"
	"github.com/five82/sunface/internal/weather"
)

const closeTimeout = time.Second

// Options configure a Controller.
type Options struct {
	Channel        datalayer.Channel
	Refresher      weather.Refresher // asked for fresh data when the display sees new weather
	ConnectTimeout time.Duration     // zero uses datalayer.DefaultConnectTimeout
	Logger         *slog.Logger
}

// Controller drives the settings link from the primary device.
type Controller struct {
	loop     *looper.Loop
	stopLoop context.CancelFunc
	service  *settings.Service
	channel  datalayer.Channel
	logger   *slog.Logger
}

// Open connects the channel and pulls the retained settings.
func Open(ctx context.Context, opts Options) (*Controller, error) {
	if opts.Channel == nil {
		return nil, errors.New("control: channel is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = datalayer.DefaultConnectTimeout
	}

	loop := looper.New()
	loopCtx, stopLoop := context.WithCancel(context.Background())
	go func() { _ = loop.Run(loopCtx) }()

	c := &Controller{
		loop:     loop,
		stopLoop: stopLoop,
		channel:  opts.Channel,
		logger:   logger.With("component", "control"),
	}
	if err := loop.Call(ctx, func() {
		c.service = settings.New(settings.Options{
			Role:      settings.RolePrimary,
			Channel:   opts.Channel,
			Scheduler: loop,
			Refresher: opts.Refresher,
			Logger:    logger,
		})
	}); err != nil {
		stopLoop()
		return nil, err
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := opts.Channel.Connect(connectCtx); err != nil {
		c.service.Tracker().Update(opts.Channel.State(), err)
		c.Close()
		return nil, fmt.Errorf("connect: %w", err)
	}
	c.service.Tracker().Update(datalayer.Connected, nil)

	if err := c.service.Resync(ctx); err != nil {
		c.logger.Warn("resync incomplete", "error", err)
	}
	return c, nil
}

// Current returns the colours the link last agreed on.
func (c *Controller) Current(ctx context.Context) (palette.ColorConfiguration, error) {
	var cfg palette.ColorConfiguration
	err := c.loop.Call(ctx, func() { cfg = c.service.Colors() })
	return cfg, err
}

// SetColors publishes cfg to every display.
func (c *Controller) SetColors(ctx context.Context, cfg palette.ColorConfiguration) error {
	return c.service.SetColors(ctx, cfg)
}

// PushWeather reads the current summary from src and publishes it.
func (c *Controller) PushWeather(ctx context.Context, src weather.Source) (weather.Snapshot, error) {
	snap, err := src.FetchCurrent(ctx)
	if err != nil {
		return weather.Snapshot{}, fmt.Errorf("fetch weather: %w", err)
	}
	if err := c.service.PublishWeather(ctx, snap); err != nil {
		return weather.Snapshot{}, err
	}
	return snap, nil
}

// Listen reports the known records, then every change, until ctx is done.
// fn runs on the controller's loop and must not block.
func (c *Controller) Listen(ctx context.Context, fn func(datalayer.Record)) error {
	var unsubscribe []func()
	if err := c.loop.Call(ctx, func() {
		store := c.service.Store()
		for _, path := range store.Paths() {
			if rec, ok := store.Get(path); ok {
				fn(rec)
			}
		}
		for _, path := range []string{datalayer.PathWatchFaceConfig, datalayer.PathWeather} {
			unsubscribe = append(unsubscribe, store.Subscribe(path, fn))
		}
	}); err != nil {
		return err
	}
	defer c.loop.Post(func() {
		for _, fn := range unsubscribe {
			fn()
		}
	})
	return c.service.Run(ctx)
}

// Close disconnects the channel and stops the loop.
func (c *Controller) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	_ = c.loop.Call(ctx, c.service.Close)
	c.channel.Disconnect()
	c.stopLoop()
	<-c.loop.Done()
}
