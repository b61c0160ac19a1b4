package face

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/five82/sunface/internal/palette"
)

// TextRole identifies which line a DrawText belongs to.
type TextRole int

const (
	RoleTime TextRole = iota
	RoleDate
	RoleWeather
)

// Command is a single drawing instruction emitted by Render.
type Command interface {
	isCommand()
}

// FillRect fills Bounds with Color.
type FillRect struct {
	Bounds image.Rectangle
	Color  palette.RGB
}

// DrawText draws Text with its baseline-left corner at (X, Y).
type DrawText struct {
	Role      TextRole
	Text      string
	X, Y      float64
	Color     palette.RGB
	AntiAlias bool
	Size      int
}

// DrawIcon asks the host to draw a decoded weather icon. Rasterization of
// icon data is left to the host.
type DrawIcon struct {
	Origin      image.Point
	Size        int
	ConditionID int
	Data        []byte
}

func (FillRect) isCommand() {}
func (DrawText) isCommand() {}
func (DrawIcon) isCommand() {}

// Frame is the output of one Render call.
type Frame struct {
	Bounds   image.Rectangle
	Commands []Command
}

// Empty reports whether the frame draws nothing.
func (f Frame) Empty() bool {
	return len(f.Commands) == 0
}

// Text returns the text of the first command with the given role.
func (f Frame) Text(role TextRole) (DrawText, bool) {
	for _, cmd := range f.Commands {
		if t, ok := cmd.(DrawText); ok && t.Role == role {
			return t, true
		}
	}
	return DrawText{}, false
}

// Raster paints the frame into an RGBA image of Bounds. Icons are skipped.
func (f Frame) Raster() *image.RGBA {
	dst := image.NewRGBA(f.Bounds)
	for _, cmd := range f.Commands {
		switch c := cmd.(type) {
		case FillRect:
			draw.Draw(dst, c.Bounds.Intersect(f.Bounds), image.NewUniform(rgba(c.Color)), image.Point{}, draw.Src)
		case DrawText:
			drawText(dst, c)
		}
	}
	return dst
}

// drawText renders the glyph mask at scale one and blits it scaled by Size.
func drawText(dst *image.RGBA, c DrawText) {
	if c.Text == "" {
		return
	}
	bounds, advance := font.BoundString(glyphs, c.Text)
	ascent := (-bounds.Min.Y).Ceil()
	w := advance.Ceil()
	h := (bounds.Max.Y - bounds.Min.Y).Ceil()
	if w <= 0 || h <= 0 {
		return
	}

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	drawer := font.Drawer{
		Dst:  mask,
		Src:  image.Opaque,
		Face: glyphs,
		Dot:  fixed.P(0, ascent),
	}
	drawer.DrawString(c.Text)

	size := max(c.Size, 1)
	left := int(math.Round(c.X))
	top := int(math.Round(c.Y)) - ascent*size
	ink := rgba(c.Color)
	clip := dst.Bounds()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if mask.AlphaAt(x, y).A == 0 {
				continue
			}
			block := image.Rect(left+x*size, top+y*size, left+(x+1)*size, top+(y+1)*size).Intersect(clip)
			if block.Empty() {
				continue
			}
			draw.Draw(dst, block, image.NewUniform(ink), image.Point{}, draw.Src)
		}
	}
}

func rgba(c palette.RGB) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xFF}
}
