package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "REDLINE_"

// Loader reads configuration files and environment overrides.
type Loader struct {
	readFile  func(path string) ([]byte, error)
	lookupEnv func(key string) (string, bool)
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFS reads config files from fsys instead of the OS file system.
func WithFS(fsys fs.FS) LoaderOption {
	return func(l *Loader) {
		l.readFile = func(path string) ([]byte, error) {
			return fs.ReadFile(fsys, path)
		}
	}
}

// WithEnv replaces the process environment with env.
func WithEnv(env map[string]string) LoaderOption {
	return func(l *Loader) {
		l.lookupEnv = func(key string) (string, bool) {
			v, ok := env[key]
			return v, ok
		}
	}
}

// NewLoader creates a loader reading the OS file system and environment.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		readFile:  os.ReadFile,
		lookupEnv: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the defaults overridden by the file at path and then by the
// environment. An empty path or a missing file leaves the defaults in
// place.
func Load(path string) (Config, error) {
	return NewLoader().Load(path)
}

// Load returns the defaults overridden by the file at path and then by the
// environment.
func (l *Loader) Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := l.loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := l.applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (l *Loader) loadFile(path string, cfg *Config) error {
	data, err := l.readFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	return Decode(path, data, cfg)
}

// Decode parses data into cfg, choosing TOML or YAML by the extension of
// path. Keys missing from data keep their current value.
func Decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			pe := &ParseError{Path: path, Message: err.Error(), Err: err}
			var de *toml.DecodeError
			if errors.As(err, &de) {
				pe.Line, _ = de.Position()
			}
			return pe
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return &ParseError{Path: path, Message: err.Error(), Err: err}
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return nil
}
