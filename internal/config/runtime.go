package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/logging"
)

// Runtime holds the settings that may change while the daemon is
// running. The file watcher reloads these on every config file write;
// everything else (device path, ports, buffer counts) requires a
// restart.
type Runtime struct {
	// JPEGQuality is the encoder quality from [stream]. Zero means
	// the file does not set it and the current value is kept.
	JPEGQuality int

	// Logging carries the [logging] table. An empty Modules map
	// leaves per-module levels untouched.
	Logging logging.Config
}

// LoadRuntime parses the reloadable subset of a config file. Unlike
// LoadLoggingConfig it reports read and parse errors so the watcher
// can surface a broken edit instead of silently keeping defaults.
func LoadRuntime(configPath string) (Runtime, error) {
	var rt Runtime

	data, err := os.ReadFile(configPath)
	if err != nil {
		return rt, fmt.Errorf("failed to read config: %w", err)
	}

	var raw struct {
		Stream struct {
			JPEGQuality int `toml:"jpeg_quality"`
		} `toml:"stream"`
		Logging map[string]string `toml:"logging"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return rt, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	rt.JPEGQuality = raw.Stream.JPEGQuality
	rt.Logging = logging.Config{Modules: make(map[string]string)}
	for key, value := range raw.Logging {
		switch key {
		case "level":
			rt.Logging.Level = value
		case "format":
			rt.Logging.Format = value
		default:
			rt.Logging.Modules[key] = value
		}
	}

	return rt, nil
}
