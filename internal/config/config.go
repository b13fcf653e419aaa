// Package config reads the repository configuration from .mygit/config.toml.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"

	"github.com/ankitiscracked/mygit/internal/ignore"
	"github.com/ankitiscracked/mygit/internal/store"
)

// FileName is the config file inside the control directory.
const FileName = "config.toml"

// File merge strategies.
const (
	StrategyPatch = "patch"
	StrategyDiff3 = "diff3"
)

// Config is the repository configuration.
type Config struct {
	Merge  MergeConfig  `toml:"merge"`
	UI     UIConfig     `toml:"ui"`
	Log    LogConfig    `toml:"log"`
	Ignore IgnoreConfig `toml:"ignore"`
}

// MergeConfig controls how file contents are merged.
type MergeConfig struct {
	Strategy string `toml:"strategy"` // "patch" (default) or "diff3"
	Context  int    `toml:"context"`  // unchanged lines kept around each hunk
}

// UIConfig controls console output.
type UIConfig struct {
	Color bool `toml:"color"`
}

// LogConfig controls diagnostic logging on stderr.
type LogConfig struct {
	Level string `toml:"level"` // any zap level name
}

// IgnoreConfig controls which working-tree paths are tracked.
type IgnoreConfig struct {
	Files    []string `toml:"files"`    // first existing file at the root wins
	Patterns []string `toml:"patterns"` // always applied
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Merge: MergeConfig{Strategy: StrategyPatch, Context: 3},
		UI:    UIConfig{Color: true},
		Log:   LogConfig{Level: "warn"},
		Ignore: IgnoreConfig{
			Files: append([]string(nil), ignore.DefaultFiles...),
		},
	}
}

// Validate checks values that would otherwise fail later.
func (c *Config) Validate() error {
	switch c.Merge.Strategy {
	case StrategyPatch, StrategyDiff3:
	default:
		return fmt.Errorf("unknown merge strategy %q (want %q or %q)", c.Merge.Strategy, StrategyPatch, StrategyDiff3)
	}
	if c.Merge.Context < 0 {
		return fmt.Errorf("merge context must not be negative, got %d", c.Merge.Context)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// Keys lists the settings Set accepts.
var Keys = []string{"merge.strategy", "merge.context", "ui.color", "log.level", "ignore.patterns"}

// Set assigns one setting from its text form. ignore.patterns takes a
// comma-separated list; an empty value clears it. The result is validated.
func (c *Config) Set(key, value string) error {
	next := *c
	switch key {
	case "merge.strategy":
		next.Merge.Strategy = value
	case "merge.context":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("merge.context must be an integer, got %q", value)
		}
		next.Merge.Context = n
	case "ui.color":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("ui.color must be true or false, got %q", value)
		}
		next.UI.Color = b
	case "log.level":
		next.Log.Level = value
	case "ignore.patterns":
		next.Ignore.Patterns = nil
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				next.Ignore.Patterns = append(next.Ignore.Patterns, p)
			}
		}
	default:
		return fmt.Errorf("unknown config key %q (want one of %s)", key, strings.Join(Keys, ", "))
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return zapcore.WarnLevel, fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	return lvl, nil
}

// Read decodes a Config from r on top of the defaults.
func Read(r io.Reader) (*Config, error) {
	cfg := Default()
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Write encodes cfg to w.
func Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Load reads <ctrlDir>/config.toml. A missing file yields Default().
func Load(ctrlDir string) (*Config, error) {
	path := filepath.Join(ctrlDir, FileName)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	cfg, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to <ctrlDir>/config.toml.
func Save(ctrlDir string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Write(&buf, cfg); err != nil {
		return err
	}
	return store.AtomicWriteFile(filepath.Join(ctrlDir, FileName), buf.Bytes(), 0644)
}
