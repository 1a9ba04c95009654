package config

import (
	"fmt"
	"strconv"
	"strings"
)

// envBinding maps one environment variable, without prefix, to a field.
type envBinding struct {
	name string
	set  func(c *Config, value string) error
}

func envBindings() []envBinding {
	return []envBinding{
		{"AUTHOR", str(func(c *Config) *string { return &c.Author })},
		{"TRACKING_RECORD", boolean(func(c *Config) *bool { return &c.Tracking.Record })},
		{"TRACKING_DISPLAY", boolean(func(c *Config) *bool { return &c.Tracking.Display })},
		{"HISTORY_MAX_ENTRIES", integer(func(c *Config) *int { return &c.History.MaxEntries })},
		{"LOG_LEVEL", str(func(c *Config) *string { return &c.Logging.Level })},
		{"LOG_FORMAT", str(func(c *Config) *string { return &c.Logging.Format })},
		{"STORE_DRIVER", str(func(c *Config) *string { return &c.Store.Driver })},
		{"STORE_PATH", str(func(c *Config) *string { return &c.Store.Path })},
		{"STORE_CACHE_SIZE", integer(func(c *Config) *int { return &c.Store.CacheSize })},
		{"REVIEW_SCRIPT", str(func(c *Config) *string { return &c.Review.Script })},
		{"REVIEW_AUTHOR", str(func(c *Config) *string { return &c.Review.Author })},
		{"WATCH_DEBOUNCE_MS", integer(func(c *Config) *int { return &c.Watch.DebounceMS })},
	}
}

// EnvNames returns the supported environment variables.
func EnvNames() []string {
	bindings := envBindings()
	out := make([]string, len(bindings))
	for i, b := range bindings {
		out[i] = EnvPrefix + b.name
	}
	return out
}

// applyEnv overrides cfg with every set REDLINE_* variable. Empty string
// values are treated as valid values, not as unset.
func (l *Loader) applyEnv(cfg *Config) error {
	for _, b := range envBindings() {
		name := EnvPrefix + b.name
		val, ok := l.lookupEnv(name)
		if !ok {
			continue
		}
		if err := b.set(cfg, val); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func str(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func boolean(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, ok := parseBool(v)
		if !ok {
			return fmt.Errorf("%w: %q is not a boolean", ErrInvalidEnv, v)
		}
		*field(c) = b
		return nil
	}
}

func integer(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %q is not an integer", ErrInvalidEnv, v)
		}
		*field(c) = n
		return nil
	}
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "on", "1":
		return true, true
	case "false", "no", "off", "0":
		return false, true
	}
	return false, false
}
