package config

import (
	"bytes"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tomlConfig = `
author = "ada"

[tracking]
record = false

[tracking.colors]
deletion = "magenta"

[store]
driver = "sqlite"
path = "docs.db"
cache_size = 8

[watch]
debounce_ms = 50
`

const yamlConfig = `
author: bob
logging:
  level: debug
  format: json
review:
  script: rules.lua
`

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Tracking.Record)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, 200*time.Millisecond, cfg.Debounce())
}

func TestLoadTOML(t *testing.T) {
	fsys := fstest.MapFS{"redline.toml": {Data: []byte(tomlConfig)}}
	cfg, err := NewLoader(WithFS(fsys), WithEnv(nil)).Load("redline.toml")
	require.NoError(t, err)

	assert.Equal(t, "ada", cfg.Author)
	assert.False(t, cfg.Tracking.Record)
	assert.True(t, cfg.Tracking.Display)
	assert.Equal(t, "magenta", cfg.Tracking.Colors.Deletion)
	assert.Equal(t, "green", cfg.Tracking.Colors.Insertion)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "docs.db", cfg.Store.Path)
	assert.Equal(t, 8, cfg.Store.CacheSize)
	assert.Equal(t, 50*time.Millisecond, cfg.Debounce())
}

func TestLoadYAML(t *testing.T) {
	fsys := fstest.MapFS{"redline.yaml": {Data: []byte(yamlConfig)}}
	cfg, err := NewLoader(WithFS(fsys), WithEnv(nil)).Load("redline.yaml")
	require.NoError(t, err)

	assert.Equal(t, "bob", cfg.Author)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "rules.lua", cfg.Review.Script)
	assert.Equal(t, 100, cfg.History.MaxEntries)

	var buf bytes.Buffer
	lc := cfg.LoggerConfig(&buf)
	assert.Equal(t, "json", string(lc.Format))
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := NewLoader(WithFS(fstest.MapFS{}), WithEnv(nil)).Load("absent.toml")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadErrors(t *testing.T) {
	fsys := fstest.MapFS{
		"bad.toml":     {Data: []byte("author = \n")},
		"unknown.toml": {Data: []byte("colour = \"red\"\n")},
		"bad.yaml":     {Data: []byte("author: [\n")},
		"cfg.ini":      {Data: []byte("author=x")},
		"driver.toml":  {Data: []byte("[store]\ndriver = \"postgres\"\n")},
	}
	l := NewLoader(WithFS(fsys), WithEnv(nil))

	t.Run("toml syntax", func(t *testing.T) {
		_, err := l.Load("bad.toml")
		var pe *ParseError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, "bad.toml", pe.Path)
		assert.Equal(t, 1, pe.Line)
	})
	t.Run("unknown key", func(t *testing.T) {
		_, err := l.Load("unknown.toml")
		var pe *ParseError
		assert.True(t, errors.As(err, &pe))
	})
	t.Run("yaml syntax", func(t *testing.T) {
		_, err := l.Load("bad.yaml")
		var pe *ParseError
		assert.True(t, errors.As(err, &pe))
	})
	t.Run("extension", func(t *testing.T) {
		_, err := l.Load("cfg.ini")
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})
	t.Run("validation", func(t *testing.T) {
		_, err := l.Load("driver.toml")
		assert.ErrorIs(t, err, ErrValidationFailed)
	})
}

func TestEnvOverrides(t *testing.T) {
	fsys := fstest.MapFS{"redline.toml": {Data: []byte(tomlConfig)}}
	env := map[string]string{
		"REDLINE_AUTHOR":           "eve",
		"REDLINE_TRACKING_RECORD":  "yes",
		"REDLINE_STORE_CACHE_SIZE": "0",
		"REDLINE_LOG_LEVEL":        "warn",
		"REDLINE_REVIEW_SCRIPT":    "",
	}
	cfg, err := NewLoader(WithFS(fsys), WithEnv(env)).Load("redline.toml")
	require.NoError(t, err)

	assert.Equal(t, "eve", cfg.Author)
	assert.True(t, cfg.Tracking.Record)
	assert.Zero(t, cfg.Store.CacheSize)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Empty(t, cfg.Review.Script)
}

func TestEnvErrors(t *testing.T) {
	tests := map[string]string{
		"REDLINE_TRACKING_DISPLAY":  "maybe",
		"REDLINE_WATCH_DEBOUNCE_MS": "soon",
	}
	for name, val := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewLoader(WithEnv(map[string]string{name: val})).Load("")
			require.ErrorIs(t, err, ErrInvalidEnv)
			assert.Contains(t, err.Error(), name)
		})
	}
}

func TestEnvNames(t *testing.T) {
	names := EnvNames()
	assert.Contains(t, names, "REDLINE_AUTHOR")
	assert.Contains(t, names, "REDLINE_STORE_DRIVER")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"sqlite without path", func(c *Config) { c.Store.Driver = DriverSQLite; c.Store.Path = "" }},
		{"negative cache", func(c *Config) { c.Store.CacheSize = -1 }},
		{"negative history", func(c *Config) { c.History.MaxEntries = -1 }},
		{"negative debounce", func(c *Config) { c.Watch.DebounceMS = -5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mod(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrValidationFailed)
		})
	}
}
