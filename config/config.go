package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// TrackConfig defines a saved per-track setup.
type TrackConfig struct {
	Channel   int     `json:"channel"`          // MIDI channel 0-15
	LoopStart float64 `json:"loopStart"`        // in steps
	LoopEnd   float64 `json:"loopEnd"`          // in steps
	Length    float64 `json:"length,omitempty"` // sequence end
}

// UIConfig stores editor preferences.
type UIConfig struct {
	LastTempo   float64 `json:"lastTempo,omitempty"`
	ActiveTrack int     `json:"activeTrack,omitempty"`
	Scale       string  `json:"scale,omitempty"`
	ScaleRoot   int     `json:"scaleRoot,omitempty"`
	SnapToScale bool    `json:"snapToScale,omitempty"`
}

// Config is the main configuration structure.
type Config struct {
	OutputPort   string        `json:"outputPort,omitempty"`
	HistoryDepth int           `json:"historyDepth,omitempty"`
	Tracks       []TrackConfig `json:"tracks,omitempty"`
	UI           UIConfig      `json:"ui,omitempty"`
}

// DefaultConfig returns a config with sensible defaults: two tracks on
// channels 0 and 1, both looping over four bars.
func DefaultConfig() *Config {
	return &Config{
		HistoryDepth: 128,
		Tracks: []TrackConfig{
			{Channel: 0, LoopStart: 0, LoopEnd: 64, Length: 64},
			{Channel: 1, LoopStart: 0, LoopEnd: 64, Length: 64},
		},
		UI: UIConfig{
			LastTempo: 120,
			Scale:     "major",
		},
	}
}

// ConfigDir returns the config directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-gridseq"), nil
}

// ConfigPath returns the full path to config.json.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.HistoryDepth <= 0 {
		cfg.HistoryDepth = 128
	}
	if len(cfg.Tracks) == 0 {
		cfg.Tracks = DefaultConfig().Tracks
	}

	return &cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
