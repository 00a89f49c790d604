// Package config loads the loom-bench demo CLI's TOML configuration. Nothing
// in the library packages (entity, component, join, system, pool) depends on
// this package; it exists only to configure the bundled benchmark binary.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Bench holds the settings loom-bench's run command takes. loom-bench itself
// reads them from command-line flags and does not import this package.
type Bench struct {
	Entities int    `toml:"entities"`
	Ticks    int    `toml:"ticks"`
	Shards   int    `toml:"shards"`
	Mode     string `toml:"mode"` // "sequential" or "parallel"
	LogLevel string `toml:"log_level"`
	LogJSON  bool   `toml:"log_json"`
}

// Default returns the configuration loom-bench runs with when no file or
// flags override it.
func Default() Bench {
	return Bench{
		Entities: 100_000,
		Ticks:    100,
		Shards:   4,
		Mode:     "sequential",
		LogLevel: "info",
	}
}

// Load reads and decodes a Bench configuration from a TOML file at path.
func Load(path string) (Bench, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}
