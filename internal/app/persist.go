package app

import (
	"context"
	"log/slog"

	"github.com/five82/sunface/internal/palette"
	"github.com/five82/sunface/internal/prefs"
)

// prefsSaver writes the latest applied colours off the loop. Offers made
// while a write is in flight collapse to the newest one.
type prefsSaver struct {
	path    string
	pending chan palette.ColorConfiguration
	logger  *slog.Logger
}

func newPrefsSaver(path string, logger *slog.Logger) *prefsSaver {
	return &prefsSaver{path: path, pending: make(chan palette.ColorConfiguration, 1), logger: logger}
}

// offer queues cfg for saving. It never blocks and must be called from a
// single goroutine.
func (s *prefsSaver) offer(cfg palette.ColorConfiguration) {
	select {
	case s.pending <- cfg:
		return
	default:
	}
	select {
	case <-s.pending:
	default:
	}
	s.pending <- cfg
}

func (s *prefsSaver) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cfg := <-s.pending:
			s.save(cfg)
		}
	}
}

func (s *prefsSaver) save(cfg palette.ColorConfiguration) {
	// Reload so a theme chosen in the UI is kept.
	current, _ := prefs.Load(s.path)
	next := prefs.FromColors(current.Theme, cfg)
	if next == current {
		return
	}
	if err := prefs.Save(s.path, next); err != nil {
		s.logger.Warn("save prefs failed", "error", err)
		return
	}
	s.logger.Debug("prefs saved", "colors", cfg.String())
}
