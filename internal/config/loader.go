package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileSystem reads config files. It allows tests to use in-memory files.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	Stat(path string) (fs.FileInfo, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Stat returns file info for path.
func (OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// Loader builds a Config from defaults, a file and the environment.
type Loader struct {
	fs     FileSystem
	prefix string
}

// NewLoader creates a loader reading from the OS file system and
// TERMENGINE_* variables.
func NewLoader() *Loader {
	return NewLoaderWithFS(OSFS{})
}

// NewLoaderWithFS creates a loader with a custom file system.
func NewLoaderWithFS(fsys FileSystem) *Loader {
	return &Loader{fs: fsys, prefix: EnvPrefix}
}

// Load returns the defaults overlaid with the file at path and the
// environment, then validated. An empty path searches the default
// locations. A missing file is not an error.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = l.find()
	}
	if path != "" {
		if err := l.LoadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg, l.prefix, os.Environ()); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile decodes the file at path into cfg, choosing the format by
// extension. Keys absent from the file keep their current values.
func (l *Loader) LoadFile(path string, cfg *Config) error {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return decodeTOML(path, data, cfg)
	case ".yaml", ".yml":
		return decodeYAML(path, data, cfg)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// find returns the first existing default config file, or "".
func (l *Loader) find() string {
	for _, p := range DefaultPaths() {
		if _, err := l.fs.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// DefaultPaths lists the config files searched when none is given.
func DefaultPaths() []string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	base := filepath.Join(dir, "termengine")
	return []string{
		filepath.Join(base, "config.toml"),
		filepath.Join(base, "config.yaml"),
		filepath.Join(base, "config.yml"),
	}
}

func decodeTOML(path string, data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		perr := &ParseError{Path: path, Message: err.Error(), Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			perr.Line, perr.Column = derr.Position()
		}
		return perr
	}
	return nil
}

func decodeYAML(path string, data []byte, cfg *Config) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return &ParseError{Path: path, Message: err.Error(), Err: err}
	}
	return nil
}
