// Package config loads termengine settings.
//
// Settings come from three layers, lowest precedence first: built-in
// defaults, a TOML or YAML file, and TERMENGINE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dshills/termengine/internal/integration/pty"
	"github.com/dshills/termengine/internal/integration/terminal"
	"github.com/dshills/termengine/internal/logx"
)

// Environment presets.
const (
	PresetRecommended = "recommended"
	PresetMinimal     = "minimal"
	PresetInherit     = "inherit"
)

// Config holds termengine settings.
type Config struct {
	// Shell overrides shell detection when set.
	Shell   string   `toml:"shell" yaml:"shell"`
	Args    []string `toml:"args" yaml:"args"`
	WorkDir string   `toml:"work_dir" yaml:"work_dir"`

	Rows uint16 `toml:"rows" yaml:"rows"`
	Cols uint16 `toml:"cols" yaml:"cols"`

	// BufferCap bounds buffered output per session, in bytes.
	BufferCap  int `toml:"buffer_cap" yaml:"buffer_cap"`
	Scrollback int `toml:"scrollback" yaml:"scrollback"`

	LogLevel     string   `toml:"log_level" yaml:"log_level"`
	PollInterval Duration `toml:"poll_interval" yaml:"poll_interval"`
	JoinTimeout  Duration `toml:"join_timeout" yaml:"join_timeout"`

	Environment EnvironmentConfig `toml:"environment" yaml:"environment"`
}

// EnvironmentConfig describes the child environment.
type EnvironmentConfig struct {
	// Preset is one of recommended, minimal or inherit.
	Preset    string            `toml:"preset" yaml:"preset"`
	Variables map[string]string `toml:"variables" yaml:"variables"`
	Unset     []string          `toml:"unset" yaml:"unset"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Rows:         24,
		Cols:         80,
		BufferCap:    pty.DefaultBufferCap,
		Scrollback:   terminal.DefaultScrollback,
		LogLevel:     "info",
		PollInterval: Duration(10 * time.Millisecond),
		JoinTimeout:  Duration(pty.DefaultJoinTimeout),
		Environment: EnvironmentConfig{
			Preset: PresetRecommended,
		},
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Rows == 0 || c.Cols == 0 {
		errs = append(errs, fmt.Errorf("%w: size %dx%d", ErrInvalidValue, c.Rows, c.Cols))
	}
	if c.BufferCap <= 0 {
		errs = append(errs, fmt.Errorf("%w: buffer_cap %d", ErrInvalidValue, c.BufferCap))
	}
	if c.Scrollback < 0 {
		errs = append(errs, fmt.Errorf("%w: scrollback %d", ErrInvalidValue, c.Scrollback))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("%w: log_level %q", ErrInvalidValue, c.LogLevel))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("%w: poll_interval %s", ErrInvalidValue, c.PollInterval))
	}
	if c.JoinTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: join_timeout %s", ErrInvalidValue, c.JoinTimeout))
	}
	switch strings.ToLower(c.Environment.Preset) {
	case PresetRecommended, PresetMinimal, PresetInherit:
	default:
		errs = append(errs, fmt.Errorf("%w: environment preset %q", ErrInvalidValue, c.Environment.Preset))
	}
	for k := range c.Environment.Variables {
		if k == "" || strings.ContainsAny(k, "=\x00") {
			errs = append(errs, fmt.Errorf("%w: environment variable name %q", ErrInvalidValue, k))
		}
	}
	return errors.Join(errs...)
}

// Level returns the parsed log level, or info if it is invalid.
func (c *Config) Level() log.Level {
	return logx.ParseLevel(c.LogLevel)
}

// ChildEnvironment builds the pty environment for the configured preset.
// program and version are advertised by the recommended preset.
func (c *Config) ChildEnvironment(program, version string) *pty.Environment {
	var env *pty.Environment
	switch strings.ToLower(c.Environment.Preset) {
	case PresetMinimal:
		env = pty.MinimalEnvironment()
	case PresetInherit:
		env = &pty.Environment{InheritEnv: true}
	default:
		env = pty.RecommendedEnvironment(program, version)
	}

	if len(c.Environment.Variables) > 0 {
		if env.Variables == nil {
			env.Variables = make(map[string]string, len(c.Environment.Variables))
		}
		maps.Copy(env.Variables, c.Environment.Variables)
	}
	env.Unset = append(env.Unset, slices.Clone(c.Environment.Unset)...)
	return env
}

// ManagerOptions converts the configuration into pty.Manager options.
func (c *Config) ManagerOptions(logger *log.Logger, program, version string) []pty.Option {
	return []pty.Option{
		pty.WithLogger(logger),
		pty.WithProgram(program, version),
		pty.WithShell(c.Shell, c.Args...),
		pty.WithWorkDir(c.WorkDir),
		pty.WithEnvironment(c.ChildEnvironment(program, version)),
		pty.WithBufferCap(c.BufferCap),
		pty.WithJoinTimeout(time.Duration(c.JoinTimeout)),
	}
}
