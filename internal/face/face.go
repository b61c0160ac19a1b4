package face

import (
	"fmt"
	"image"
	"math"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/five82/sunface/internal/palette"
	"github.com/five82/sunface/internal/weather"
)

const (
	timeFormatSeconds = "%02d.%02d.%02d"
	timeFormatMinutes = "%02d.%02d"
	dateFormat        = "%02d.%02d.%d"

	// lineGap separates the time baseline from the top of the date line.
	lineGap = 10.0

	// weatherDim pulls the weather line this far toward the background.
	weatherDim = 0.35
	// minDimContrast is the lightness gap below which the weather line keeps
	// the full text colour.
	minDimContrast = 0.4
)

// glyphs is the fixed-width face used for all metrics and rasterization.
var glyphs font.Face = basicfont.Face7x13

// Face holds the paint attributes of the digital clock. Attributes are only
// changed through setters and are read back on every Render.
type Face struct {
	background  palette.RGB
	text        palette.RGB
	antiAlias   bool
	showSeconds bool
	timeSize    int
	dateSize    int
	weather     *weather.Snapshot
}

// New returns a face with the default configuration: black background,
// white antialiased text, seconds shown.
func New() *Face {
	def := palette.Default()
	return &Face{
		background:  def.Background,
		text:        def.DateTime,
		antiAlias:   true,
		showSeconds: true,
		timeSize:    1,
		dateSize:    1,
	}
}

// SetBackground sets the fill colour.
func (f *Face) SetBackground(c palette.RGB) { f.background = c }

// SetColor sets the time and date text colour.
func (f *Face) SetColor(c palette.RGB) { f.text = c }

// SetColors applies a full configuration.
func (f *Face) SetColors(cfg palette.ColorConfiguration) {
	f.background = cfg.Background
	f.text = cfg.DateTime
}

// SetAntiAlias toggles antialiased text.
func (f *Face) SetAntiAlias(on bool) { f.antiAlias = on }

// SetShowSeconds toggles the seconds field of the time line.
func (f *Face) SetShowSeconds(on bool) { f.showSeconds = on }

// SetTextSizes sets the integer glyph scale of the time and date lines.
// Values below one are clamped to one.
func (f *Face) SetTextSizes(timeSize, dateSize int) {
	f.timeSize = max(timeSize, 1)
	f.dateSize = max(dateSize, 1)
}

// SetWeather shows a temperature line below the date.
func (f *Face) SetWeather(s weather.Snapshot) {
	snap := s.Clone()
	f.weather = &snap
}

// ClearWeather removes the temperature line.
func (f *Face) ClearWeather() { f.weather = nil }

// Background returns the current fill colour.
func (f *Face) Background() palette.RGB { return f.background }

// Color returns the current text colour.
func (f *Face) Color() palette.RGB { return f.text }

// AntiAlias reports whether text is antialiased.
func (f *Face) AntiAlias() bool { return f.antiAlias }

// ShowSeconds reports whether seconds are rendered.
func (f *Face) ShowSeconds() bool { return f.showSeconds }

// Render lays out the face for now inside bounds. Bounds with no area yield
// an empty frame.
func (f *Face) Render(now time.Time, bounds image.Rectangle) Frame {
	frame := Frame{Bounds: bounds}
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return frame
	}

	frame.Commands = append(frame.Commands, FillRect{Bounds: bounds, Color: f.background})

	centerX := float64(bounds.Min.X+bounds.Max.X) / 2
	centerY := float64(bounds.Min.Y+bounds.Max.Y) / 2

	timeText := FormatTime(now, f.showSeconds)
	timeWidth, timeHeight := measure(timeText, f.timeSize)
	timeY := centerY + timeHeight/2
	frame.Commands = append(frame.Commands, f.textCommand(RoleTime, timeText, centerX-timeWidth/2, timeY, f.timeSize))

	dateText := FormatDate(now)
	dateWidth, dateHeight := measure(dateText, f.dateSize)
	dateY := timeY + dateHeight + lineGap
	frame.Commands = append(frame.Commands, f.textCommand(RoleDate, dateText, centerX-dateWidth/2, dateY, f.dateSize))

	if f.weather != nil {
		summary := f.weather.Summary()
		w, h := measure(summary, f.dateSize)
		y := dateY + h + lineGap
		line := f.textCommand(RoleWeather, summary, centerX-w/2, y, f.dateSize)
		line.Color = f.weatherInk()
		frame.Commands = append(frame.Commands, line)
		if f.weather.HasIcon() {
			frame.Commands = append(frame.Commands, DrawIcon{
				Origin:      image.Pt(int(centerX-w/2-h-4), int(y-h)),
				Size:        int(h),
				ConditionID: f.weather.ConditionID,
				Data:        f.weather.Icon,
			})
		}
	}
	return frame
}

func (f *Face) textCommand(role TextRole, text string, x, y float64, size int) DrawText {
	return DrawText{
		Role:      role,
		Text:      text,
		X:         x,
		Y:         y,
		Color:     f.text,
		AntiAlias: f.antiAlias,
		Size:      size,
	}
}

// weatherInk is the text colour dimmed toward the background, unless the two
// are already too close to stay readable.
func (f *Face) weatherInk() palette.RGB {
	if math.Abs(f.text.Luminance()-f.background.Luminance()) < minDimContrast {
		return f.text
	}
	return f.text.Blend(f.background, weatherDim)
}

// FormatTime renders HH.MM or HH.MM.SS.
func FormatTime(t time.Time, seconds bool) string {
	if seconds {
		return fmt.Sprintf(timeFormatSeconds, t.Hour(), t.Minute(), t.Second())
	}
	return fmt.Sprintf(timeFormatMinutes, t.Hour(), t.Minute())
}

// FormatDate renders DD.MM.YYYY.
func FormatDate(t time.Time) string {
	return fmt.Sprintf(dateFormat, t.Day(), int(t.Month()), t.Year())
}

// measure returns the advance width and glyph bounding-box height of text at
// the given integer scale.
func measure(text string, size int) (width, height float64) {
	bounds, advance := font.BoundString(glyphs, text)
	scale := float64(size)
	width = float64(advance.Ceil()) * scale
	height = float64((bounds.Max.Y - bounds.Min.Y).Ceil()) * scale
	return width, height
}
