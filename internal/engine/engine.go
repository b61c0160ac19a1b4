package engine

import (
	"image"
	"log/slog"
	"time"

	"github.com/five82/sunface/internal/face"
	"github.com/five82/sunface/internal/looper"
	"github.com/five82/sunface/internal/palette"
	"github.com/five82/sunface/internal/ticker"
	"github.com/five82/sunface/internal/weather"
)

// Options configure an Engine.
type Options struct {
	Clock        func() time.Time // defaults to time.Now
	TickPeriod   time.Duration    // defaults to ticker.DefaultPeriod
	OnInvalidate func()           // host redraw request
	TimeSize     int              // glyph scale of the time line; zero keeps the face default
	DateSize     int              // glyph scale of the date line; zero keeps the face default
	Logger       *slog.Logger
}

// Engine executes Transition effects against the clock face and the tick
// scheduler it owns. Every method must run on the scheduler's context.
type Engine struct {
	state  State
	face   *face.Face
	ticker *ticker.Ticker
	clock  func() time.Time
	logger *slog.Logger

	onInvalidate func()
	invalidated  int
}

// New creates an engine in the initial state.
func New(sched looper.Scheduler, opts Options) *Engine {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		state:        InitialState(),
		face:         face.New(),
		clock:        clock,
		logger:       logger.With("component", "engine"),
		onInvalidate: opts.OnInvalidate,
	}
	if opts.TimeSize > 0 || opts.DateSize > 0 {
		e.face.SetTextSizes(opts.TimeSize, opts.DateSize)
	}
	e.ticker = ticker.New(sched, opts.TickPeriod, func() { e.Dispatch(SecondTick()) })
	return e
}

// Dispatch feeds one event through the state machine.
func (e *Engine) Dispatch(ev Event) {
	next, effects := Transition(e.state, ev)
	if ev.Kind != EventSecondTick {
		e.logger.Debug("transition",
			"event", ev.Kind.String(),
			"visible", next.Visible,
			"mode", next.Mode.String(),
			"effects", len(effects))
	}
	e.state = next
	for _, eff := range effects {
		e.run(eff)
	}
}

func (e *Engine) run(eff Effect) {
	switch eff.Kind {
	case EffectStartTimer:
		e.ticker.Start()
	case EffectStopTimer:
		e.ticker.Stop()
	case EffectRedraw:
		e.invalidated++
		if e.onInvalidate != nil {
			e.onInvalidate()
		}
	case EffectApplyColors:
		e.face.SetColors(eff.Colors)
	case EffectLowPower:
		e.face.SetAntiAlias(!eff.On)
		e.face.SetShowSeconds(!eff.On)
		if eff.On {
			e.face.SetBackground(palette.Black)
			e.face.SetColor(palette.AmbientGray)
		}
	case EffectApplyWeather:
		e.face.SetWeather(eff.Weather)
	}
}

// HandleVisibility reports a host visibility change.
func (e *Engine) HandleVisibility(visible bool) { e.Dispatch(Visibility(visible)) }

// HandleAmbient reports a host ambient mode change.
func (e *Engine) HandleAmbient(on bool) { e.Dispatch(AmbientMode(on)) }

// HandleTimeTick reports the system once-per-minute tick.
func (e *Engine) HandleTimeTick() { e.Dispatch(MinuteTick()) }

// ApplyConfiguration stores cfg and applies it unless ambient.
func (e *Engine) ApplyConfiguration(cfg palette.ColorConfiguration) { e.Dispatch(ConfigUpdated(cfg)) }

// ApplyWeather replaces the weather snapshot shown on the face.
func (e *Engine) ApplyWeather(s weather.Snapshot) { e.Dispatch(WeatherUpdated(s)) }

// Destroy stops the scheduler. Later events are ignored.
func (e *Engine) Destroy() {
	e.Dispatch(Destroy())
	// Stop unconditionally in case the state was already terminal.
	e.ticker.Stop()
}

// Draw renders the face at the engine clock's current time.
func (e *Engine) Draw(bounds image.Rectangle) face.Frame {
	return e.face.Render(e.clock(), bounds)
}

// State returns the current machine state.
func (e *Engine) State() State { return e.state }

// Ticking reports whether the per-second scheduler is running.
func (e *Engine) Ticking() bool { return e.ticker.Running() }

// Invalidations counts redraw requests issued so far.
func (e *Engine) Invalidations() int { return e.invalidated }

// Paint reports the face paint attributes currently in effect.
func (e *Engine) Paint() Paint {
	return Paint{
		Background:  e.face.Background(),
		Text:        e.face.Color(),
		AntiAlias:   e.face.AntiAlias(),
		ShowSeconds: e.face.ShowSeconds(),
	}
}

// Paint is a read-only view of the face attributes.
type Paint struct {
	Background  palette.RGB
	Text        palette.RGB
	AntiAlias   bool
	ShowSeconds bool
}
