package engine

import (
	"github.com/five82/sunface/internal/palette"
	"github.com/five82/sunface/internal/weather"
)

// Mode is the display power mode.
type Mode int

const (
	Interactive Mode = iota
	Ambient
)

func (m Mode) String() string {
	if m == Ambient {
		return "ambient"
	}
	return "interactive"
}

// State is the immutable input of Transition.
type State struct {
	Visible    bool
	Mode       Mode
	Configured palette.ColorConfiguration // latest configuration, applied or deferred
	Weather    *weather.Snapshot
	Destroyed  bool
}

// InitialState is hidden, interactive, default colours and no weather.
func InitialState() State {
	return State{Mode: Interactive, Configured: palette.Default()}
}

// Ticking reports whether the per-second timer should run.
func (s State) Ticking() bool {
	return !s.Destroyed && s.Visible && s.Mode == Interactive
}

// EventKind enumerates inputs from the host and the sync service.
type EventKind int

const (
	EventVisibility EventKind = iota
	EventAmbient
	EventSecondTick
	EventMinuteTick
	EventConfig
	EventWeather
	EventDestroy
)

var eventNames = map[EventKind]string{
	EventVisibility: "visibility",
	EventAmbient:    "ambient",
	EventSecondTick: "second_tick",
	EventMinuteTick: "minute_tick",
	EventConfig:     "config",
	EventWeather:    "weather",
	EventDestroy:    "destroy",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is a tagged transition input.
type Event struct {
	Kind    EventKind
	On      bool // visibility or ambient flag
	Config  palette.ColorConfiguration
	Weather weather.Snapshot
}

func Visibility(visible bool) Event { return Event{Kind: EventVisibility, On: visible} }
func AmbientMode(on bool) Event     { return Event{Kind: EventAmbient, On: on} }
func SecondTick() Event             { return Event{Kind: EventSecondTick} }
func MinuteTick() Event             { return Event{Kind: EventMinuteTick} }
func Destroy() Event                { return Event{Kind: EventDestroy} }

func ConfigUpdated(cfg palette.ColorConfiguration) Event {
	return Event{Kind: EventConfig, Config: cfg}
}

func WeatherUpdated(s weather.Snapshot) Event {
	return Event{Kind: EventWeather, Weather: s}
}

// EffectKind enumerates side effects requested by Transition.
type EffectKind int

const (
	EffectStartTimer EffectKind = iota
	EffectStopTimer
	EffectRedraw
	EffectApplyColors
	EffectLowPower
	EffectApplyWeather
)

// Effect is a command for the executor.
type Effect struct {
	Kind    EffectKind
	On      bool // EffectLowPower
	Colors  palette.ColorConfiguration
	Weather weather.Snapshot
}

// Transition returns the next state and the effects to run, in order.
func Transition(s State, e Event) (State, []Effect) {
	if s.Destroyed {
		return s, nil
	}

	switch e.Kind {
	case EventDestroy:
		s.Destroyed = true
		return s, []Effect{{Kind: EffectStopTimer}}

	case EventVisibility:
		s.Visible = e.On
		return s, []Effect{timerEffect(s)}

	case EventAmbient:
		entering := e.On
		if entering == (s.Mode == Ambient) {
			return s, nil
		}
		if entering {
			s.Mode = Ambient
			return s, []Effect{
				{Kind: EffectStopTimer},
				{Kind: EffectLowPower, On: true},
				{Kind: EffectRedraw},
			}
		}
		s.Mode = Interactive
		effects := []Effect{
			{Kind: EffectLowPower, On: false},
			{Kind: EffectApplyColors, Colors: s.Configured},
			{Kind: EffectRedraw},
		}
		if s.Visible {
			effects = append(effects, Effect{Kind: EffectStartTimer})
		}
		return s, effects

	case EventSecondTick:
		if s.Ticking() {
			return s, []Effect{{Kind: EffectRedraw}}
		}
		return s, nil

	case EventMinuteTick:
		return s, []Effect{{Kind: EffectRedraw}}

	case EventConfig:
		s.Configured = e.Config
		if s.Mode == Ambient {
			return s, nil
		}
		return s, []Effect{
			{Kind: EffectApplyColors, Colors: e.Config},
			{Kind: EffectRedraw},
		}

	case EventWeather:
		snap := e.Weather.Clone()
		s.Weather = &snap
		effects := []Effect{{Kind: EffectApplyWeather, Weather: snap}}
		if s.Mode == Interactive {
			effects = append(effects, Effect{Kind: EffectRedraw})
		}
		return s, effects
	}
	return s, nil
}

func timerEffect(s State) Effect {
	if s.Ticking() {
		return Effect{Kind: EffectStartTimer}
	}
	return Effect{Kind: EffectStopTimer}
}
