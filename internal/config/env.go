package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment variable read by the loader.
const EnvPrefix = "TERMENGINE_"

// envVarPrefix marks variables passed through to the child environment:
// TERMENGINE_VAR_EDITOR=vim sets EDITOR=vim in the shell.
const envVarPrefix = "VAR_"

type envSetter func(c *Config, value string) error

// envSettings maps variable names, without the prefix, to settings.
var envSettings = map[string]envSetter{
	"SHELL": func(c *Config, v string) error {
		c.Shell = v
		return nil
	},
	"SHELL_ARGS": func(c *Config, v string) error {
		c.Args = strings.Fields(v)
		return nil
	},
	"WORK_DIR": func(c *Config, v string) error {
		c.WorkDir = v
		return nil
	},
	"ROWS": func(c *Config, v string) error {
		n, err := strconv.ParseUint(v, 10, 16)
		c.Rows = uint16(n)
		return err
	},
	"COLS": func(c *Config, v string) error {
		n, err := strconv.ParseUint(v, 10, 16)
		c.Cols = uint16(n)
		return err
	},
	"BUFFER_CAP": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		c.BufferCap = n
		return err
	},
	"SCROLLBACK": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		c.Scrollback = n
		return err
	},
	"LOG_LEVEL": func(c *Config, v string) error {
		c.LogLevel = v
		return nil
	},
	"POLL_INTERVAL": func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		c.PollInterval = Duration(d)
		return err
	},
	"JOIN_TIMEOUT": func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		c.JoinTimeout = Duration(d)
		return err
	},
	"ENV_PRESET": func(c *Config, v string) error {
		c.Environment.Preset = strings.ToLower(v)
		return nil
	},
	"ENV_UNSET": func(c *Config, v string) error {
		c.Environment.Unset = append(c.Environment.Unset, strings.FieldsFunc(v, func(r rune) bool {
			return r == ',' || r == ' '
		})...)
		return nil
	},
}

// applyEnv overlays prefixed variables from environ onto c. Unknown
// prefixed names are ignored.
func applyEnv(c *Config, prefix string, environ []string) error {
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}
		key := strings.TrimPrefix(name, prefix)

		if child, ok := strings.CutPrefix(key, envVarPrefix); ok {
			if child == "" {
				continue
			}
			if c.Environment.Variables == nil {
				c.Environment.Variables = make(map[string]string)
			}
			c.Environment.Variables[child] = value
			continue
		}

		set, ok := envSettings[key]
		if !ok {
			continue
		}
		if err := set(c, value); err != nil {
			return fmt.Errorf("%w: %s=%q: %w", ErrInvalidValue, name, value, err)
		}
	}
	return nil
}
