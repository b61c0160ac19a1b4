package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/five82/sunface/internal/datalayer"
	"github.com/five82/sunface/internal/state"
)

const (
	defaultBackoffBase = 2 * time.Second
	defaultLinkPoll    = 500 * time.Millisecond
	maxBackoff         = 30 * time.Second
)

// calculateBackoff returns the retry delay after failures consecutive
// connect failures: base·2^failures, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	delay := base
	for range failures {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

// supervisor keeps the channel connected and recovers the latest records
// after every (re)connect.
type supervisor struct {
	channel        datalayer.Channel
	tracker        *state.Tracker
	resync         func(context.Context) error
	connectTimeout time.Duration
	backoffBase    time.Duration
	linkPoll       time.Duration
	logger         *slog.Logger
}

func (s *supervisor) run(ctx context.Context) {
	base := s.backoffBase
	if base <= 0 {
		base = defaultBackoffBase
	}
	timeout := s.connectTimeout
	if timeout <= 0 {
		timeout = datalayer.DefaultConnectTimeout
	}

	failures := 0
	for ctx.Err() == nil {
		s.tracker.Update(datalayer.Connecting, nil)
		connectCtx, cancel := context.WithTimeout(ctx, timeout)
		err := s.channel.Connect(connectCtx)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			s.tracker.Update(s.channel.State(), err)
			delay := calculateBackoff(failures, base)
			s.logger.Warn("connect failed", "error", err, "failures", failures, "retry_in", delay)
			if !sleepCtx(ctx, delay) {
				return
			}
			continue
		}

		failures = 0
		s.tracker.Update(datalayer.Connected, nil)
		s.logger.Info("connected")
		s.recover(ctx)
		s.watch(ctx)
	}
}

// watch follows the link until it drops to Disconnected. Automatic
// reconnects by the transport trigger another recovery.
func (s *supervisor) watch(ctx context.Context) {
	poll := s.linkPoll
	if poll <= 0 {
		poll = defaultLinkPoll
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	prev := datalayer.Connected
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		current := s.channel.State()
		if current == prev {
			continue
		}
		s.logger.Info("link changed", "from", prev.String(), "to", current.String())
		s.tracker.Update(current, nil)
		switch current {
		case datalayer.Connected:
			s.recover(ctx)
		case datalayer.Disconnected:
			return
		}
		prev = current
	}
}

func (s *supervisor) recover(ctx context.Context) {
	if s.resync == nil {
		return
	}
	if err := s.resync(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("resync failed", "error", err)
		s.tracker.Update(s.channel.State(), err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
