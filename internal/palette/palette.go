// Package palette defines the colour values exchanged between devices and
// drawn by the clock face.
package palette

import (
	"errors"
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidColor is returned when a colour string is not #RRGGBB or #RGB.
var ErrInvalidColor = errors.New("invalid colour value")

// RGB is an opaque 24-bit colour.
type RGB struct {
	R, G, B uint8
}

// Named colours used by the face.
var (
	Black       = RGB{0x00, 0x00, 0x00}
	White       = RGB{0xFF, 0xFF, 0xFF}
	AmbientGray = RGB{0x88, 0x88, 0x88}
)

// ParseHex parses "#RRGGBB" (or the "#RGB" shorthand), ignoring case and
// surrounding whitespace.
func ParseHex(value string) (RGB, error) {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "#") {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, value)
	}
	digits := trimmed[1:]
	if len(digits) != 6 && len(digits) != 3 {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, value)
	}
	for _, r := range digits {
		if !isHexDigit(r) {
			return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, value)
		}
	}
	c, err := colorful.Hex(trimmed)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, value)
	}
	r, g, b := c.RGB255()
	return RGB{r, g, b}, nil
}

// MustParseHex is ParseHex for constants known to be valid.
func MustParseHex(value string) RGB {
	c, err := ParseHex(value)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex formats the colour as uppercase "#RRGGBB".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// String implements fmt.Stringer.
func (c RGB) String() string {
	return c.Hex()
}

// Luminance returns the perceptual lightness in [0,1].
func (c RGB) Luminance() float64 {
	l, _, _ := c.colorful().Lab()
	return l
}

// Blend mixes c towards other by t in [0,1] in Lab space.
func (c RGB) Blend(other RGB, t float64) RGB {
	if t <= 0 {
		return c
	}
	if t >= 1 {
		return other
	}
	r, g, b := c.colorful().BlendLab(other.colorful(), t).Clamped().RGB255()
	return RGB{r, g, b}
}

func (c RGB) colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// ColorConfiguration is the user-selected look of the face.
type ColorConfiguration struct {
	Background RGB
	DateTime   RGB
}

// Default returns black background with white text.
func Default() ColorConfiguration {
	return ColorConfiguration{Background: Black, DateTime: White}
}

// String implements fmt.Stringer.
func (c ColorConfiguration) String() string {
	return fmt.Sprintf("background=%s datetime=%s", c.Background.Hex(), c.DateTime.Hex())
}
