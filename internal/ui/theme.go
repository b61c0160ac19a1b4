package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colours of the chrome around the face. The face itself
// is always drawn in its configured colours.
type Theme struct {
	Name string

	Background string // Outside the face
	Surface    string // Footer and help bar

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string

	// LinkColors maps a link label (see linkLabel) to its badge colour.
	LinkColors map[string]string
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Background: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Background)),

		Text: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Text)),

		MutedText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)),

		FaintText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Faint)),

		AccentText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)),

		WarningText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)),

		DangerText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Danger)).
			Bold(true),

		Footer: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Muted)).
			Padding(0, 1),

		Logo: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)).
			Bold(true),

		linkColors: t.LinkColors,
		background: t.Background,
		muted:      t.Muted,
	}
}

// Styles contains pre-built Lipgloss styles for the theme.
type Styles struct {
	Background lipgloss.Style

	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style

	Footer lipgloss.Style
	Logo   lipgloss.Style

	linkColors map[string]string
	background string
	muted      string
}

// LinkStyle returns the badge style for a link label.
func (s Styles) LinkStyle(label string) lipgloss.Style {
	color := s.linkColors[label]
	if color == "" {
		color = s.muted
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.background)).
		Background(lipgloss.Color(color)).
		Padding(0, 1)
}

// WithBackground returns a copy of Styles with all text styles having the specified background.
func (s Styles) WithBackground(bgColor string) Styles {
	bg := lipgloss.Color(bgColor)
	out := s
	out.Background = s.Background.Background(bg)
	out.Text = s.Text.Background(bg)
	out.MutedText = s.MutedText.Background(bg)
	out.FaintText = s.FaintText.Background(bg)
	out.AccentText = s.AccentText.Background(bg)
	out.WarningText = s.WarningText.Background(bg)
	out.DangerText = s.DangerText.Background(bg)
	out.Footer = s.Footer.Background(bg)
	out.Logo = s.Logo.Background(bg)
	return out
}

var themes = map[string]Theme{
	"Nightfox": nightfoxTheme(),
	"Kanagawa": kanagawaTheme(),
	"Slate":    slateTheme(),
}

var themeOrder = []string{"Nightfox", "Kanagawa", "Slate"}

// GetTheme returns a theme by name.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return nightfoxTheme()
}

// NextTheme returns the next theme name in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns available theme names.
func ThemeNames() []string {
	return themeOrder
}

func nightfoxTheme() Theme {
	// Nightfox palette: https://github.com/EdenEast/nightfox.nvim
	return Theme{
		Name:       "Nightfox",
		Background: "#131a24", // bg0
		Surface:    "#192330", // bg1
		Text:       "#cdcecf", // fg1
		Muted:      "#738091", // comment
		Faint:      "#71839b", // fg3
		Accent:     "#719cd6", // blue
		Success:    "#81b29a", // green
		Warning:    "#dbc074", // yellow
		Danger:     "#c94f6d", // red
		LinkColors: map[string]string{
			"connected":    "#81b29a", // green
			"connecting":   "#63cdcf", // cyan
			"disconnected": "#738091", // comment
			"offline":      "#c94f6d", // red
		},
	}
}

func kanagawaTheme() Theme {
	// Kanagawa palette: https://github.com/rebelot/kanagawa.nvim
	return Theme{
		Name:       "Kanagawa",
		Background: "#16161D", // sumiInk0
		Surface:    "#1F1F28", // sumiInk3
		Text:       "#DCD7BA", // fujiWhite
		Muted:      "#C8C093", // oldWhite
		Faint:      "#727169", // fujiGray
		Accent:     "#7E9CD8", // crystalBlue
		Success:    "#98BB6C", // springGreen
		Warning:    "#E6C384", // carpYellow
		Danger:     "#E46876", // waveRed
		LinkColors: map[string]string{
			"connected":    "#98BB6C", // springGreen
			"connecting":   "#7FB4CA", // springBlue
			"disconnected": "#727169", // fujiGray
			"offline":      "#E46876", // waveRed
		},
	}
}

func slateTheme() Theme {
	// Tailwind CSS Slate/Sky palette: https://tailwindcss.com/docs/colors
	return Theme{
		Name:       "Slate",
		Background: "#020617", // slate-950
		Surface:    "#0f172a", // slate-900
		Text:       "#f1f5f9", // slate-100
		Muted:      "#94a3b8", // slate-400
		Faint:      "#64748b", // slate-500
		Accent:     "#38bdf8", // sky-400
		Success:    "#22c55e", // green-500
		Warning:    "#f59e0b", // amber-500
		Danger:     "#ef4444", // red-500
		LinkColors: map[string]string{
			"connected":    "#16a34a", // green-600
			"connecting":   "#38bdf8", // sky-400
			"disconnected": "#64748b", // slate-500
			"offline":      "#dc2626", // red-600
		},
	}
}
