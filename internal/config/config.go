package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Role names accepted in the role field.
const (
	RoleDisplay = "display"
	RolePrimary = "primary"
)

// Config holds the sunface settings shared by both binaries.
type Config struct {
	Role           string
	Broker         string // MQTT broker URL; empty selects the in-process hub
	TopicPrefix    string
	ClientID       string
	ConnectTimeout time.Duration
	AssetTimeout   time.Duration
	WeatherAPI     string
	TimeSize       int // glyph scale of the time line
	DateSize       int // glyph scale of the date and weather lines
	LogDir         string
	LogLevel       string
	LogFormat      string
}

const (
	defaultConfigPath     = "~/.config/sunface/config.toml"
	defaultLogDir         = "~/.local/share/sunface/logs"
	defaultTopicPrefix    = "sunface"
	defaultWeatherAPI     = "127.0.0.1:7490"
	defaultLogLevel       = "info"
	defaultLogFormat      = "json"
	defaultConnectTimeout = 30 * time.Second
	defaultAssetTimeout   = time.Second
	defaultTextSize       = 1
	maxTextSize           = 8
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Role:           RoleDisplay,
		TopicPrefix:    defaultTopicPrefix,
		ConnectTimeout: defaultConnectTimeout,
		AssetTimeout:   defaultAssetTimeout,
		WeatherAPI:     defaultWeatherAPI,
		TimeSize:       defaultTextSize,
		DateSize:       defaultTextSize,
		LogDir:         mustExpand(defaultLogDir),
		LogLevel:       defaultLogLevel,
		LogFormat:      defaultLogFormat,
	}
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		Role           string `toml:"role"`
		Broker         string `toml:"broker"`
		TopicPrefix    string `toml:"topic_prefix"`
		ClientID       string `toml:"client_id"`
		ConnectTimeout string `toml:"connect_timeout"`
		AssetTimeout   string `toml:"asset_timeout"`
		WeatherAPI     string `toml:"weather_api"`
		TimeSize       int    `toml:"time_size"`
		DateSize       int    `toml:"date_size"`
		LogDir         string `toml:"log_dir"`
		LogLevel       string `toml:"log_level"`
		LogFormat      string `toml:"log_format"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if role := strings.ToLower(strings.TrimSpace(raw.Role)); role != "" {
		if role != RoleDisplay && role != RolePrimary {
			return Config{}, fmt.Errorf("parse config: role %q must be %q or %q", raw.Role, RoleDisplay, RolePrimary)
		}
		cfg.Role = role
	}
	cfg.Broker = strings.TrimSpace(raw.Broker)
	cfg.ClientID = strings.TrimSpace(raw.ClientID)
	cfg.TopicPrefix = orDefault(raw.TopicPrefix, defaultTopicPrefix)
	cfg.WeatherAPI = orDefault(raw.WeatherAPI, defaultWeatherAPI)
	cfg.LogLevel = strings.ToLower(orDefault(raw.LogLevel, defaultLogLevel))
	cfg.LogFormat = strings.ToLower(orDefault(raw.LogFormat, defaultLogFormat))
	cfg.LogDir = mustExpand(orDefault(raw.LogDir, defaultLogDir))

	if cfg.ConnectTimeout, err = parseDuration("connect_timeout", raw.ConnectTimeout, defaultConnectTimeout); err != nil {
		return Config{}, err
	}
	if cfg.AssetTimeout, err = parseDuration("asset_timeout", raw.AssetTimeout, defaultAssetTimeout); err != nil {
		return Config{}, err
	}

	if cfg.TimeSize, err = parseTextSize("time_size", raw.TimeSize); err != nil {
		return Config{}, err
	}
	if cfg.DateSize, err = parseTextSize("date_size", raw.DateSize); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LogPath returns the log file for the named binary.
func (c Config) LogPath(name string) string {
	dir := strings.TrimSpace(c.LogDir)
	if dir == "" {
		dir = mustExpand(defaultLogDir)
	}
	return filepath.Join(dir, name+".log")
}

// UsesBroker reports whether an MQTT broker is configured.
func (c Config) UsesBroker() bool {
	return strings.TrimSpace(c.Broker) != ""
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func parseDuration(field, value string, fallback time.Duration) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, fmt.Errorf("parse config: %s: %w", field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("parse config: %s must be positive", field)
	}
	return d, nil
}

// parseTextSize treats zero as unset.
func parseTextSize(field string, value int) (int, error) {
	if value == 0 {
		return defaultTextSize, nil
	}
	if value < 1 || value > maxTextSize {
		return 0, fmt.Errorf("parse config: %s must be between 1 and %d", field, maxTextSize)
	}
	return value, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
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
