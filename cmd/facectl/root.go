package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/five82/sunface/internal/app"
	"github.com/five82/sunface/internal/config"
	"github.com/five82/sunface/internal/control"
	"github.com/five82/sunface/internal/logging"
	"github.com/five82/sunface/internal/weather"
)

// rootOptions holds the persistent flags.
type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "facectl",
		Short: "Control sunface displays from the primary device",
		Long: `facectl edits the settings shared with every sunface display.

It publishes colour configurations, follows a colour file as it changes,
pushes the current weather summary and prints what the displays receive.
A broker must be configured; the in-process hub cannot reach other devices.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file path (default: ~/.config/sunface/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newColorsCmd(opts))
	rootCmd.AddCommand(newWeatherCmd(opts))
	rootCmd.AddCommand(newListenCmd(opts))

	return rootCmd
}

// session is one connected controller with its configuration.
type session struct {
	cfg        config.Config
	logger     *slog.Logger
	controller *control.Controller
}

func (o *rootOptions) load() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	level := logging.Level(cfg.LogLevel)
	if o.verbose {
		level = logging.LevelDebug
	}
	logger := logging.New(logging.Config{Level: level, Format: logging.FormatText, Output: os.Stderr})
	if !cfg.UsesBroker() {
		return config.Config{}, nil, errors.New("no broker configured; set broker in the config file")
	}
	return cfg, logger, nil
}

// open connects to the broker. refresher may be nil.
func (o *rootOptions) open(ctx context.Context, refresher weather.Refresher) (*session, error) {
	cfg, logger, err := o.load()
	if err != nil {
		return nil, err
	}
	controller, err := control.Open(ctx, control.Options{
		Channel:        app.NewChannel(cfg, logger),
		Refresher:      refresher,
		ConnectTimeout: cfg.ConnectTimeout,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, logger: logger, controller: controller}, nil
}

func (s *session) Close() {
	s.controller.Close()
}
