// Package config loads the host's TOML settings and XDG paths.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileConfig is the TOML configuration file.
// Pointer fields are nil when a key is absent so flags keep their defaults.
type FileConfig struct {
	Serial   SerialConfig   `toml:"serial"`
	Keyer    KeyerConfig    `toml:"keyer"`
	Playback PlaybackConfig `toml:"playback"`
	History  HistoryConfig  `toml:"history"`
}

// SerialConfig selects the board's port
type SerialConfig struct {
	Device *string `toml:"device"`
	Baud   *int    `toml:"baud"`
}

// KeyerConfig holds transmission settings
type KeyerConfig struct {
	WPM       *int    `toml:"wpm"`
	Mode      *string `toml:"mode"` // "strict" or "lenient"
	LightPin  *int    `toml:"light-pin"`
	AudioPin  *int    `toml:"audio-pin"`
	Frequency *int    `toml:"frequency"`
	InputPin  *int    `toml:"input-pin"` // key input used by listen and the board capture
}

// PlaybackConfig controls local playback
type PlaybackConfig struct {
	Backend *string  `toml:"backend"` // "speaker", "gpio" or "console"
	Volume  *float64 `toml:"volume"`  // 0..1, speaker only
}

// HistoryConfig controls the message log
type HistoryConfig struct {
	Path     *string `toml:"path"`
	Disabled *bool   `toml:"disabled"`
}

// LoadConfig reads a TOML config from path. A missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), "gomorse", "config.toml")
}

// DefaultDBPath returns the default path of the transmission log.
func DefaultDBPath() string {
	return filepath.Join(XDGDataHome(), "gomorse", "gomorse.db")
}
