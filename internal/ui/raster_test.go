package ui

import (
	"image"
	"image/color"
	"strings"
	"testing"
)

func TestRowRuns_GroupsIdenticalCells(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	black := color.RGBA{A: 0xFF}
	white := color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	for x := range 4 {
		img.SetRGBA(x, 0, black)
		img.SetRGBA(x, 1, black)
	}
	img.SetRGBA(2, 0, white)

	runs := rowRuns(img, 0)
	if len(runs) != 3 {
		t.Fatalf("runs = %d, want 3", len(runs))
	}
	if runs[0].n != 2 || runs[1].n != 1 || runs[2].n != 1 {
		t.Fatalf("run widths = %d/%d/%d, want 2/1/1", runs[0].n, runs[1].n, runs[2].n)
	}
	if runs[1].top != white || runs[1].bottom != black {
		t.Fatalf("run[1] = %+v, want white over black", runs[1])
	}
}

func TestRenderRaster_OneCellPerColumn(t *testing.T) {
	img := image.NewRGBA(pixelBounds(6, 3))
	lines := renderRaster(img, 3)
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
	for i, line := range lines {
		if got := strings.Count(line, upperHalf); got != 6 {
			t.Fatalf("line %d has %d cells, want 6", i, got)
		}
	}
}

func TestPixelBounds(t *testing.T) {
	if got := pixelBounds(10, 4); got != image.Rect(0, 0, 10, 8) {
		t.Fatalf("pixelBounds = %v, want 10x8", got)
	}
	if !pixelBounds(0, 4).Empty() {
		t.Fatalf("pixelBounds with zero columns is not empty")
	}
}

func TestHexOf(t *testing.T) {
	if got := hexOf(color.RGBA{R: 0x0A, G: 0xBC, B: 0xFF, A: 0xFF}); got != "#0abcff" {
		t.Fatalf("hexOf = %q, want %q", got, "#0abcff")
	}
}
