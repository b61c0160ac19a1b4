// Package prefs persists the display's local preferences: the UI theme and
// the last colour configuration it applied.
// Preferences are stored in ~/.config/sunface/face.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/sunface/internal/palette"
)

// Prefs holds the preferences restored at startup.
type Prefs struct {
	Theme      string `toml:"theme"`
	Background string `toml:"background"`
	DateTime   string `toml:"date_time"`
}

const (
	defaultPrefsPath = "~/.config/sunface/face.toml"
	defaultTheme     = "Nightfox"
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Defaults returns the preferences used when nothing was saved.
func Defaults() Prefs {
	return FromColors(defaultTheme, palette.Default())
}

// FromColors builds preferences holding cfg.
func FromColors(theme string, cfg palette.ColorConfiguration) Prefs {
	return Prefs{Theme: theme, Background: cfg.Background.Hex(), DateTime: cfg.DateTime.Hex()}
}

// Colors returns the saved colour configuration. Missing or invalid entries
// fall back to the palette defaults.
func (p Prefs) Colors() palette.ColorConfiguration {
	cfg := palette.Default()
	if c, err := palette.ParseHex(p.Background); err == nil {
		cfg.Background = c
	}
	if c, err := palette.ParseHex(p.DateTime); err == nil {
		cfg.DateTime = c
	}
	return cfg
}

// Load reads preferences from the given path, falling back to defaults if missing.
func Load(path string) (Prefs, error) {
	prefs := Defaults()

	resolved, err := resolvePath(path)
	if err != nil {
		return prefs, nil
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs, nil // Graceful degradation
	}

	var saved Prefs
	if err := toml.Unmarshal(bytes, &saved); err != nil {
		return Defaults(), nil // Graceful degradation
	}

	if theme := strings.TrimSpace(saved.Theme); theme != "" {
		prefs.Theme = theme
	}
	cfg := saved.Colors()
	prefs.Background, prefs.DateTime = cfg.Background.Hex(), cfg.DateTime.Hex()

	return prefs, nil
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	// Write then rename so a crash never leaves a truncated file behind.
	tmp := resolved + ".tmp"
	if err := os.WriteFile(tmp, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp, resolved); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
