package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/sunface/internal/palette"
)

// DefaultDebounce is how long a colour file must stay quiet before it is read.
const DefaultDebounce = 100 * time.Millisecond

// ReadColorFile parses a TOML file with background and date_time hex
// colours. The display's face.toml is accepted as is. Missing keys keep the
// value from base.
func ReadColorFile(path string, base palette.ColorConfiguration) (palette.ColorConfiguration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read colours: %w", err)
	}
	var raw struct {
		Background string `toml:"background"`
		DateTime   string `toml:"date_time"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return base, fmt.Errorf("parse colours: %w", err)
	}
	if strings.TrimSpace(raw.Background) == "" && strings.TrimSpace(raw.DateTime) == "" {
		return base, fmt.Errorf("parse colours: %s sets neither background nor date_time", path)
	}

	cfg := base
	if v := strings.TrimSpace(raw.Background); v != "" {
		if cfg.Background, err = palette.ParseHex(v); err != nil {
			return base, fmt.Errorf("parse colours: background: %w", err)
		}
	}
	if v := strings.TrimSpace(raw.DateTime); v != "" {
		if cfg.DateTime, err = palette.ParseHex(v); err != nil {
			return base, fmt.Errorf("parse colours: date_time: %w", err)
		}
	}
	return cfg, nil
}

// WatchOptions configure WatchColors.
type WatchOptions struct {
	Base     palette.ColorConfiguration
	Debounce time.Duration
	Apply    func(context.Context, palette.ColorConfiguration) error
	Logger   *slog.Logger
}

// WatchColors applies the colours in path now and again each time the file
// settles after a change. Unreadable or invalid contents are logged and
// skipped. It blocks until ctx is done.
func WatchColors(ctx context.Context, path string, opts WatchOptions) error {
	if opts.Apply == nil {
		return errors.New("watch colours: apply is required")
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "colour-watch", "path", path)

	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch colours: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch colours: %w", err)
	}
	defer fsw.Close()
	// Editors often replace the file, so watch its directory.
	if err := fsw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch colours: %w", err)
	}

	last := opts.Base
	applied := false
	apply := func() {
		cfg, err := ReadColorFile(target, last)
		if err != nil {
			logger.Warn("skipping colour file", "error", err)
			return
		}
		if applied && cfg == last {
			return
		}
		if err := opts.Apply(ctx, cfg); err != nil {
			logger.Error("apply colours failed", "error", err)
			return
		}
		last, applied = cfg, true
		logger.Info("colours applied", "background", cfg.Background.Hex(), "date_time", cfg.DateTime.Hex())
	}

	if _, err := os.Stat(target); err == nil {
		apply()
	} else {
		logger.Info("waiting for colour file")
	}

	settle := time.NewTimer(debounce)
	settle.Stop()
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return ctx.Err()
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			settle.Reset(debounce)
		case err, ok := <-fsw.Errors:
			if !ok {
				return ctx.Err()
			}
			logger.Warn("watcher error", "error", err)
		case <-settle.C:
			apply()
		}
	}
}
