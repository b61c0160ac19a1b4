package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BgStyle renders text segments over one background colour. Lipgloss resets
// between styled segments and would otherwise leave gaps in the background.
// See: https://github.com/charmbracelet/lipgloss/discussions/78
type BgStyle struct {
	bg    lipgloss.Color
	space string
}

// NewBgStyle creates a new background style helper for the given color.
func NewBgStyle(bgColor string) BgStyle {
	bg := lipgloss.Color(bgColor)
	return BgStyle{
		bg:    bg,
		space: lipgloss.NewStyle().Background(bg).Render(" "),
	}
}

// Render renders text with a style, keeping the background under spaces.
func (b BgStyle) Render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	wordStyle := style.Background(b.bg)
	if !strings.Contains(text, " ") {
		return wordStyle.Render(text)
	}
	words := strings.Split(text, " ")
	for i, w := range words {
		if w != "" {
			words[i] = wordStyle.Render(w)
		}
	}
	return strings.Join(words, b.space)
}

// Spaces returns n styled spaces.
func (b BgStyle) Spaces(n int) string {
	return lipgloss.NewStyle().Background(b.bg).Render(strings.Repeat(" ", n))
}

// FillLine pads rendered content to width with the background color.
func (b BgStyle) FillLine(content string, width int) string {
	return lipgloss.NewStyle().Background(b.bg).Width(width).Render(content)
}
