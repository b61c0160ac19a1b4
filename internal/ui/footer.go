package ui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/sunface/internal/datalayer"
	"github.com/five82/sunface/internal/state"
)

// linkLabel names the link state shown in the footer badge.
func linkLabel(s state.Status) string {
	if s.IsOffline() {
		return "offline"
	}
	return s.Connection.String()
}

// classifyLinkError returns a short description of the last sync error.
func classifyLinkError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, datalayer.ErrConnectTimeout):
		return "TIMEOUT"
	case errors.Is(err, datalayer.ErrUnreachable):
		return "UNREACHABLE"
	case errors.Is(err, datalayer.ErrMalformedPayload):
		return "BAD RECORD"
	case errors.Is(err, datalayer.ErrAssetUnavailable):
		return "NO ART"
	default:
		return "ERROR"
	}
}

// renderFooter renders the status line below the face.
func (m Model) renderFooter() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)

	label := linkLabel(m.status)
	parts := []string{
		bg.Render("sunface", styles.Logo),
		styles.LinkStyle(label).Render(strings.ToUpper(label)),
	}
	if m.ambient {
		parts = append(parts, bg.Render("AMBIENT", styles.AccentText))
	}
	if !m.visible {
		parts = append(parts, bg.Render("HIDDEN", styles.FaintText))
	}
	if !m.status.LastSync.IsZero() {
		parts = append(parts, bg.Render("synced "+m.status.LastSync.Format("15:04:05"), styles.MutedText))
	}
	if kind := classifyLinkError(m.status.LastError); kind != "" {
		parts = append(parts, bg.Render(kind, styles.DangerText))
	}
	if m.status.Dropped > 0 {
		parts = append(parts, bg.Render("dropped "+strconv.Itoa(m.status.Dropped), styles.WarningText))
	}

	line := strings.Join(parts, sep)
	if n := len(m.logs); n > 0 {
		entry := m.logs[n-1]
		room := m.width - lipgloss.Width(line) - 6
		if text := truncate(entry.String(), room); text != "" {
			line += sep + bg.Render(text, styles.FaintText)
		}
	}
	return styles.Footer.Width(m.width).Render(line)
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}
