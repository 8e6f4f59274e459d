// Package config reads expecttype.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the name of the configuration file searched for.
const FileName = "expecttype.toml"

// Config is the decoded configuration file. Zero values mean "not set".
type Config struct {
	// Path is the file the configuration was read from, if any.
	Path   string       `toml:"-"`
	Expect ExpectConfig `toml:"expect"`
	Output OutputConfig `toml:"output"`
	Run    RunConfig    `toml:"run"`
}

type ExpectConfig struct {
	DisableSnapshotFix bool     `toml:"disable_snapshot_fix"`
	IgnoreDiagnostics  []string `toml:"ignore_diagnostics"`
}

type OutputConfig struct {
	Format string `toml:"format"`
	Color  string `toml:"color"`
}

type RunConfig struct {
	Jobs int `toml:"jobs"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{
		Output: OutputConfig{Format: "pretty", Color: "auto"},
	}
}

// Find walks up from startDir to locate expecttype.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover finds and loads the configuration governing startDir. Without a
// file it returns Default and ok == false.
func Discover(startDir string) (cfg Config, ok bool, err error) {
	path, ok, err := Find(startDir)
	if err != nil || !ok {
		return Default(), false, err
	}
	cfg, err = Load(path)
	if err != nil {
		return Default(), true, err
	}
	return cfg, true, nil
}

// Load decodes the file at path on top of Default. Unknown keys are errors.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("output", "format") && strings.TrimSpace(cfg.Output.Format) == "" {
		return Config{}, fmt.Errorf("%s: [output].format is empty", path)
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges and compiles the ignore patterns.
func (c Config) Validate() error {
	switch c.Output.Format {
	case "pretty", "short", "json":
	default:
		return fmt.Errorf("[output].format must be pretty, short or json, got %q", c.Output.Format)
	}
	switch c.Output.Color {
	case "auto", "on", "off":
	default:
		return fmt.Errorf("[output].color must be auto, on or off, got %q", c.Output.Color)
	}
	if c.Run.Jobs < 0 {
		return fmt.Errorf("[run].jobs must not be negative, got %d", c.Run.Jobs)
	}
	if _, err := c.IgnorePatterns(); err != nil {
		return err
	}
	return nil
}

// IgnorePatterns compiles [expect].ignore_diagnostics.
func (c Config) IgnorePatterns() ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(c.Expect.IgnoreDiagnostics))
	for _, p := range c.Expect.IgnoreDiagnostics {
		rx, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("[expect].ignore_diagnostics: %w", err)
		}
		out = append(out, rx)
	}
	return out, nil
}
