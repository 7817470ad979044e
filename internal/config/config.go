package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure
var ErrInvalid = errors.New("invalid configuration")

// DefaultTarget is the output charset when none is given
const DefaultTarget = "UTF-8"

// Color modes
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config holds application configuration
type Config struct {
	ScanRoot   string `yaml:"input"`
	OutputRoot string `yaml:"output"`
	Recursive  bool   `yaml:"recursive"`
	DryRun     bool   `yaml:"dry_run"`
	Verbose    bool   `yaml:"verbose"`

	// Pattern lists, ';' separated. Empty means not configured.
	Suffix  string `yaml:"suffix"`
	Exclude string `yaml:"exclude"`

	Target  string `yaml:"to"`      // Output charset name
	Workers int    `yaml:"workers"` // Worker pool size, also the serial threshold

	// MaxExpansion caps the output buffer as a multiple of the input size
	MaxExpansion int `yaml:"max_expansion"`

	Progress bool   `yaml:"progress"`
	Color    string `yaml:"color"`
	Diagnose bool   `yaml:"diagnose"`
}

// Default returns a Config with defaults filled in
func Default() Config {
	return Config{
		Target:       DefaultTarget,
		Workers:      runtime.NumCPU(),
		MaxExpansion: 4,
		Color:        ColorAuto,
	}
}

// LoadFile reads a YAML config file on top of the defaults
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration and makes both roots absolute.
// charsetOK reports whether a charset name is usable as a conversion target.
func (c *Config) Validate(charsetOK func(string) bool) error {
	if c.ScanRoot == "" {
		return fmt.Errorf("%w: input path is required", ErrInvalid)
	}
	if c.OutputRoot == "" {
		return fmt.Errorf("%w: output path is required", ErrInvalid)
	}

	in, err := filepath.Abs(c.ScanRoot)
	if err != nil {
		return fmt.Errorf("%w: input path: %v", ErrInvalid, err)
	}
	out, err := filepath.Abs(c.OutputRoot)
	if err != nil {
		return fmt.Errorf("%w: output path: %v", ErrInvalid, err)
	}
	if _, err := os.Stat(in); err != nil {
		return fmt.Errorf("%w: input file or directory does not exist: %s", ErrInvalid, in)
	}
	c.ScanRoot = in
	c.OutputRoot = out

	if c.Target == "" {
		c.Target = DefaultTarget
	}
	if charsetOK != nil && !charsetOK(c.Target) {
		return fmt.Errorf("%w: unsupported target charset %q", ErrInvalid, c.Target)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalid, c.Workers)
	}
	if c.MaxExpansion < 2 {
		c.MaxExpansion = 2
	}

	switch c.Color {
	case "":
		c.Color = ColorAuto
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("%w: color must be auto, always or never, got %q", ErrInvalid, c.Color)
	}
	return nil
}
