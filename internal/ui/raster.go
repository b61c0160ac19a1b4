package ui

import (
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// upperHalf paints the top pixel in the foreground and the bottom pixel in
// the background, so one cell carries two rows of pixels.
const upperHalf = "▀"

// cellRun is a horizontal span of cells sharing the same pixel pair.
type cellRun struct {
	top, bottom color.RGBA
	n           int
}

// pixelBounds returns the pixel rectangle backing a cols×rows cell grid.
func pixelBounds(cols, rows int) image.Rectangle {
	if cols <= 0 || rows <= 0 {
		return image.Rectangle{}
	}
	return image.Rect(0, 0, cols, rows*2)
}

// rowRuns groups the cells of text row r into runs of identical colours.
func rowRuns(img *image.RGBA, r int) []cellRun {
	b := img.Bounds()
	top, bottom := b.Min.Y+2*r, b.Min.Y+2*r+1
	var runs []cellRun
	for x := b.Min.X; x < b.Max.X; x++ {
		t := img.RGBAAt(x, top)
		u := img.RGBAAt(x, bottom)
		if n := len(runs); n > 0 && runs[n-1].top == t && runs[n-1].bottom == u {
			runs[n-1].n++
			continue
		}
		runs = append(runs, cellRun{top: t, bottom: u, n: 1})
	}
	return runs
}

// renderRaster turns a raster of height 2×rows into rows lines of half-block
// cells.
func renderRaster(img *image.RGBA, rows int) []string {
	lines := make([]string, 0, rows)
	for r := range rows {
		var b strings.Builder
		for _, run := range rowRuns(img, r) {
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(hexOf(run.top))).
				Background(lipgloss.Color(hexOf(run.bottom)))
			b.WriteString(style.Render(strings.Repeat(upperHalf, run.n)))
		}
		lines = append(lines, b.String())
	}
	return lines
}

func hexOf(c color.RGBA) string {
	const digits = "0123456789abcdef"
	return string([]byte{'#',
		digits[c.R>>4], digits[c.R&0xF],
		digits[c.G>>4], digits[c.G&0xF],
		digits[c.B>>4], digits[c.B&0xF],
	})
}
