// Package config loads the toolchain's optional fen.yml: VM resource limits
// and the standard-library search path, via a small explicit config struct
// with defaults applied in a Load constructor.
package config

import (
	"os"

	"github.com/goccy/go-yaml"
)

// Config holds the tunables loaded from fen.yml.
type Config struct {
	// MaxOperandStack caps the VM's operand stack depth.
	MaxOperandStack int `yaml:"max_operand_stack"`
	// MaxCallDepth caps the VM's call-frame stack depth.
	MaxCallDepth int `yaml:"max_call_depth"`
	// StdlibPath is loaded from fen.yml but not read by any other package;
	// bundled libraries always come from the copies embedded in
	// internal/stdlib.
	StdlibPath string `yaml:"stdlib_path"`
}

// Default returns the configuration used when no fen.yml is present.
func Default() *Config {
	return &Config{
		MaxOperandStack: 1 << 16,
		MaxCallDepth:    1 << 12,
		StdlibPath:      "",
	}
}

// Load reads fen.yml at path, applying Default()'s values for any field the
// file omits. A missing file is not an error: Load returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
