package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/five82/sunface/internal/datalayer"
	"github.com/five82/sunface/internal/looper"
	"github.com/five82/sunface/internal/palette"
	"github.com/five82/sunface/internal/state"
	"github.com/five82/sunface/internal/weather"
)

// Role selects which side of the link the service plays.
type Role string

const (
	// RoleDisplay renders the face and consumes settings.
	RoleDisplay Role = "display"
	// RolePrimary edits settings and serves weather refresh requests.
	RolePrimary Role = "primary"
)

const refreshTimeout = 10 * time.Second

// Sink receives decoded settings. *engine.Engine satisfies it.
type Sink interface {
	ApplyConfiguration(palette.ColorConfiguration)
	ApplyWeather(weather.Snapshot)
}

// Options configure a Service.
type Options struct {
	Role      Role
	Channel   datalayer.Channel
	Scheduler looper.Scheduler // owner of the store and the sink
	Store     *state.Store     // created when nil
	Sink      Sink
	Refresher weather.Refresher // consulted on RolePrimary
	Tracker   *state.Tracker
	Logger    *slog.Logger
}

// Service keeps the store in step with the channel and pushes decoded
// settings to the sink.
//
// Store mutations and sink calls happen on the scheduler. Blocking channel
// calls (publish, fetch, asset resolution) happen on the caller's goroutine
// and must not be made from the scheduler.
type Service struct {
	role      Role
	channel   datalayer.Channel
	sched     looper.Scheduler
	store     *state.Store
	sink      Sink
	refresher weather.Refresher
	tracker   *state.Tracker
	logger    *slog.Logger

	// icon holds the bytes resolved for the latest weather art, touched only
	// on the scheduler.
	icon struct {
		digest string
		data   []byte
	}
	unsubscribe []func()
}

// New creates a service and wires store notifications to the sink. It must
// be called on the scheduler.
func New(opts Options) *Service {
	role := opts.Role
	if role == "" {
		role = RoleDisplay
	}
	store := opts.Store
	if store == nil {
		store = state.NewStore(nil)
	}
	tracker := opts.Tracker
	if tracker == nil {
		tracker = &state.Tracker{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		role:      role,
		channel:   opts.Channel,
		sched:     opts.Scheduler,
		store:     store,
		sink:      opts.Sink,
		refresher: opts.Refresher,
		tracker:   tracker,
		logger:    logger.With("component", "settings", "role", string(role)),
	}
	s.unsubscribe = append(s.unsubscribe,
		store.Subscribe(datalayer.PathWatchFaceConfig, s.onConfigChanged),
		store.Subscribe(datalayer.PathWeather, s.onWeatherChanged),
	)
	return s
}

// Store exposes the settings cache for read-only use.
func (s *Service) Store() *state.Store { return s.store }

// Tracker exposes the link status.
func (s *Service) Tracker() *state.Tracker { return s.tracker }

// Close detaches the sink from store notifications.
func (s *Service) Close() {
	for _, fn := range s.unsubscribe {
		fn()
	}
	s.unsubscribe = nil
}

// Colors returns the stored colour configuration, or the defaults.
func (s *Service) Colors() palette.ColorConfiguration {
	rec, ok := s.store.Get(datalayer.PathWatchFaceConfig)
	if !ok {
		return palette.Default()
	}
	cfg, _, err := DecodeColors(rec.Payload, palette.Default())
	if err != nil {
		return palette.Default()
	}
	return cfg
}

// Seed installs cfg as the starting configuration, for example colours
// restored from disk. It carries the zero timestamp, so any record from a
// peer replaces it. It must be called on the scheduler.
func (s *Service) Seed(cfg palette.ColorConfiguration) {
	s.store.ApplyRemote(datalayer.Record{Path: datalayer.PathWatchFaceConfig, Payload: EncodeColors(cfg)})
}

// Run consumes remote records until ctx is done. It blocks and should run on
// its own goroutine.
func (s *Service) Run(ctx context.Context) error {
	sub := s.channel.Subscribe(ctx)
	defer sub.Close()
	for rec := range sub.All(ctx) {
		s.deliver(ctx, rec, true)
	}
	return ctx.Err()
}

// deliver resolves any asset off the scheduler, then hands the record over.
// live marks a change event from the subscription; retained records pulled
// by Resync are not live.
func (s *Service) deliver(ctx context.Context, rec datalayer.Record, live bool) {
	icon := s.resolveArt(ctx, rec)
	s.sched.Post(func() { s.handleRecord(rec, icon, live) })
}

func (s *Service) resolveArt(ctx context.Context, rec datalayer.Record) []byte {
	if rec.Path != datalayer.PathWeather {
		return nil
	}
	ref, ok := rec.Payload.Asset(KeyArt)
	if !ok || !ref.Valid() {
		return nil
	}
	data, err := s.channel.FetchAsset(ctx, ref)
	if err != nil {
		s.logger.Debug("weather art unavailable", "error", err)
		return nil
	}
	return data
}

// handleRecord runs on the scheduler.
func (s *Service) handleRecord(rec datalayer.Record, icon []byte, live bool) {
	switch rec.Path {
	case datalayer.PathWatchFaceConfig:
		cfg, fieldErr, err := DecodeColors(rec.Payload, s.Colors())
		if err != nil {
			s.drop(rec, err)
			return
		}
		if fieldErr != nil {
			s.logger.Warn("ignoring invalid colour", "error", fieldErr)
		}
		// Store the normalized configuration so the cache only holds
		// valid colours.
		normalized := datalayer.Record{Path: rec.Path, Payload: EncodeColors(cfg), Timestamp: rec.Timestamp, Origin: rec.Origin}
		if s.store.ApplyRemote(normalized) {
			s.tracker.RecordApplied()
		}

	case datalayer.PathWeather:
		_, art, err := DecodeWeather(rec.Payload)
		if err != nil {
			s.drop(rec, err)
			return
		}
		prev := s.icon
		if len(icon) > 0 && art.Valid() {
			s.icon.digest, s.icon.data = art.Digest, icon
		}
		if !s.store.ApplyRemote(rec) {
			s.icon = prev
			return
		}
		s.tracker.RecordApplied()
		if live && s.role == RolePrimary && s.refresher != nil {
			go s.refresh()
		}

	default:
		s.logger.Debug("ignoring unknown path", "path", rec.Path)
	}
}

func (s *Service) drop(rec datalayer.Record, err error) {
	s.tracker.RecordDropped(err)
	s.logger.Warn("dropping record", "path", rec.Path, "error", err)
}

func (s *Service) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	if err := s.refresher.Refresh(ctx); err != nil {
		s.logger.Warn("weather refresh failed", "error", err)
		return
	}
	s.logger.Info("weather refresh requested")
}

func (s *Service) onConfigChanged(rec datalayer.Record) {
	if s.sink == nil {
		return
	}
	cfg, _, err := DecodeColors(rec.Payload, palette.Default())
	if err != nil {
		return
	}
	s.sink.ApplyConfiguration(cfg)
}

func (s *Service) onWeatherChanged(rec datalayer.Record) {
	if s.sink == nil {
		return
	}
	snap, art, err := DecodeWeather(rec.Payload)
	if err != nil {
		return
	}
	if art.Valid() && art.Digest == s.icon.digest {
		snap.Icon = s.icon.data
	}
	s.sink.ApplyWeather(snap)
}

// SetColors publishes cfg under /watch_face_config and, once the channel
// accepted it, records it locally. On failure the store is unchanged.
func (s *Service) SetColors(ctx context.Context, cfg palette.ColorConfiguration) error {
	payload := EncodeColors(cfg)
	if err := s.channel.Publish(ctx, datalayer.PathWatchFaceConfig, payload); err != nil {
		return fmt.Errorf("set colours: %w", err)
	}
	s.sched.Post(func() { s.store.Put(datalayer.PathWatchFaceConfig, payload) })
	s.logger.Info("colours published", "background", cfg.Background.Hex(), "date_time", cfg.DateTime.Hex())
	return nil
}

// PublishWeather uploads the icon, if any, and publishes the summary. An
// icon upload failure still publishes the summary without art.
func (s *Service) PublishWeather(ctx context.Context, snap weather.Snapshot) error {
	var art datalayer.AssetRef
	if snap.HasIcon() {
		ref, err := s.channel.PutAsset(ctx, snap.Icon)
		if err != nil {
			if errors.Is(err, datalayer.ErrUnreachable) {
				return fmt.Errorf("publish weather: %w", err)
			}
			s.logger.Warn("weather art upload failed", "error", err)
		} else {
			art = ref
		}
	}
	payload := EncodeWeather(snap, art)
	if err := s.channel.Publish(ctx, datalayer.PathWeather, payload); err != nil {
		return fmt.Errorf("publish weather: %w", err)
	}
	if art.Valid() {
		icon := append([]byte(nil), snap.Icon...)
		s.sched.Post(func() { s.icon.digest, s.icon.data = art.Digest, icon })
	}
	s.sched.Post(func() { s.store.Put(datalayer.PathWeather, payload) })
	return nil
}

// Resync fetches the retained record for every known path and applies it as
// if it had just been delivered. Call it after a (re)connect to recover the
// latest values missed during a gap.
func (s *Service) Resync(ctx context.Context) error {
	var errs []error
	for _, path := range []string{datalayer.PathWatchFaceConfig, datalayer.PathWeather} {
		rec, ok, err := s.channel.FetchCurrent(ctx, path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			s.deliver(ctx, rec, false)
		}
	}
	return errors.Join(errs...)
}
