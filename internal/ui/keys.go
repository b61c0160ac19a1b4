package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the host surface.
type keyMap struct {
	Quit       key.Binding
	Help       key.Binding
	Ambient    key.Binding
	Visibility key.Binding
	CycleTheme key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("?", "Toggle help"),
		),
		Ambient: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Toggle ambient"),
		),
		Visibility: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "Toggle visibility"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Ambient, k.Visibility, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Ambient, k.Visibility},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
