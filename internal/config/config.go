// Package config provides the configuration system for redline.
//
// Configuration is built in layers, higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  3. Environment Variables   │  ← REDLINE_*, highest priority
//	├─────────────────────────────┤
//	│  2. Config File             │  ← redline.toml or redline.yaml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// Command line flags are applied by the CLI on top of the result.
//
// # Basic Usage
//
//	cfg, err := config.Load("redline.toml")
//	if err != nil {
//		return err
//	}
//	logger := logging.New(cfg.LoggerConfig(os.Stderr))
package config

import (
	"fmt"
	"io"
	"time"

	"github.com/dshills/redline/internal/logging"
)

// Config is the complete redline configuration.
type Config struct {
	// Author is stamped on changes created in a session.
	Author string `toml:"author" yaml:"author"`

	Tracking TrackingConfig `toml:"tracking" yaml:"tracking"`
	History  HistoryConfig  `toml:"history" yaml:"history"`
	Logging  LoggingConfig  `toml:"logging" yaml:"logging"`
	Store    StoreConfig    `toml:"store" yaml:"store"`
	Review   ReviewConfig   `toml:"review" yaml:"review"`
	Watch    WatchConfig    `toml:"watch" yaml:"watch"`
}

// TrackingConfig controls change recording and display.
type TrackingConfig struct {
	Record  bool         `toml:"record" yaml:"record"`
	Display bool         `toml:"display" yaml:"display"`
	Colors  ChangeColors `toml:"colors" yaml:"colors"`
}

// ChangeColors are the display colors per change kind.
type ChangeColors struct {
	Insertion string `toml:"insertion" yaml:"insertion"`
	Deletion  string `toml:"deletion" yaml:"deletion"`
	Format    string `toml:"format" yaml:"format"`
}

// HistoryConfig limits the undo history.
type HistoryConfig struct {
	MaxEntries int `toml:"max_entries" yaml:"max_entries"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// StoreConfig selects the document store.
type StoreConfig struct {
	// Driver is "memory" or "sqlite".
	Driver string `toml:"driver" yaml:"driver"`
	// Path is the SQLite database file.
	Path string `toml:"path" yaml:"path"`
	// CacheSize is the number of documents kept in the read cache; 0
	// disables caching.
	CacheSize int `toml:"cache_size" yaml:"cache_size"`
}

// ReviewConfig configures scripted review.
type ReviewConfig struct {
	// Script is the path of a Lua rules file.
	Script string `toml:"script" yaml:"script"`
	// Author restricts batch reviews to one author when set.
	Author string `toml:"author" yaml:"author"`
}

// WatchConfig configures file watching.
type WatchConfig struct {
	// DebounceMS is the quiet period before a change is reported.
	DebounceMS int `toml:"debounce_ms" yaml:"debounce_ms"`
}

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Tracking: TrackingConfig{
			Record:  true,
			Display: true,
			Colors: ChangeColors{
				Insertion: "green",
				Deletion:  "red",
				Format:    "blue",
			},
		},
		History: HistoryConfig{MaxEntries: 100},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Store: StoreConfig{
			Driver:    DriverMemory,
			Path:      "redline.db",
			CacheSize: 64,
		},
		Watch: WatchConfig{DebounceMS: 200},
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverSQLite:
	default:
		return fmt.Errorf("%w: store.driver %q", ErrValidationFailed, c.Store.Driver)
	}
	if c.Store.Driver == DriverSQLite && c.Store.Path == "" {
		return fmt.Errorf("%w: store.path is required for sqlite", ErrValidationFailed)
	}
	if c.Store.CacheSize < 0 {
		return fmt.Errorf("%w: store.cache_size must not be negative", ErrValidationFailed)
	}
	if c.History.MaxEntries < 0 {
		return fmt.Errorf("%w: history.max_entries must not be negative", ErrValidationFailed)
	}
	if c.Watch.DebounceMS < 0 {
		return fmt.Errorf("%w: watch.debounce_ms must not be negative", ErrValidationFailed)
	}
	return nil
}

// Debounce returns the watch debounce as a duration.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}

// LoggerConfig returns the logging configuration writing to w.
func (c Config) LoggerConfig(w io.Writer) logging.Config {
	return logging.Config{
		Level:     logging.ParseLevel(c.Logging.Level),
		Format:    logging.ParseFormat(c.Logging.Format),
		Output:    w,
		Component: "redline",
	}
}
