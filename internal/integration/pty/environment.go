package pty

import (
	"fmt"
	"maps"
	"os"
	"os/user"
	"slices"
	"strings"
)

const (
	defaultLang = "en_US.UTF-8"
	defaultPath = "/usr/local/bin:/usr/bin:/bin"
)

// criticalVars are always present in a child environment, even when the
// parent environment is not inherited. They cannot be unset.
var criticalVars = []string{"HOME", "USER", "PATH", "LANG", "SHELL"}

// Environment describes the environment of a spawned shell.
type Environment struct {
	// InheritEnv copies the parent process environment into the child.
	InheritEnv bool

	// Variables are set after inheritance and override inherited values.
	// Values may reference other variables as $NAME or ${NAME}.
	Variables map[string]string

	// Unset names variables to remove from the inherited environment.
	// Critical variables (HOME, USER, PATH, LANG, SHELL) are never removed.
	Unset []string
}

// RecommendedEnvironment inherits the parent environment and advertises a
// 256-color, truecolor terminal identified as program.
func RecommendedEnvironment(program, version string) *Environment {
	return &Environment{
		InheritEnv: true,
		Variables: map[string]string{
			"TERM":                 "xterm-256color",
			"COLORTERM":            "truecolor",
			"TERM_PROGRAM":         program,
			"TERM_PROGRAM_VERSION": version,
		},
	}
}

// MinimalEnvironment contains only the critical variables.
func MinimalEnvironment() *Environment {
	return &Environment{InheritEnv: false}
}

// Clone returns a deep copy of e.
func (e *Environment) Clone() *Environment {
	if e == nil {
		return nil
	}
	return &Environment{
		InheritEnv: e.InheritEnv,
		Variables:  maps.Clone(e.Variables),
		Unset:      slices.Clone(e.Unset),
	}
}

// BuildEnvironment resolves env into KEY=VALUE pairs for a child running
// shell. The result is sorted by key. Refused unsets are reported as
// warnings.
//
// Resolution order: inherited variables, critical variables missing so far,
// unsets, then custom variables.
func BuildEnvironment(env *Environment, shell string) (vars []string, warnings []string) {
	if env == nil {
		env = MinimalEnvironment()
	}

	values := make(map[string]string)
	if env.InheritEnv {
		for _, kv := range os.Environ() {
			k, v, ok := strings.Cut(kv, "=")
			if ok && k != "" {
				values[k] = v
			}
		}
	}

	for _, k := range criticalVars {
		if values[k] != "" {
			continue
		}
		if v := os.Getenv(k); v != "" {
			values[k] = v
			continue
		}
		if v := criticalDefault(k, shell); v != "" {
			values[k] = v
		}
	}

	for _, k := range env.Unset {
		if slices.Contains(criticalVars, k) {
			warnings = append(warnings, fmt.Sprintf("refusing to unset critical variable %s", k))
			continue
		}
		delete(values, k)
	}

	// Expand against the environment built so far, then the parent.
	lookup := func(name string) string {
		if v, ok := values[name]; ok {
			return v
		}
		return os.Getenv(name)
	}
	resolved := make(map[string]string, len(env.Variables))
	for _, k := range slices.Sorted(maps.Keys(env.Variables)) {
		resolved[k] = os.Expand(env.Variables[k], lookup)
	}
	maps.Copy(values, resolved)

	vars = make([]string, 0, len(values))
	for _, k := range slices.Sorted(maps.Keys(values)) {
		vars = append(vars, k+"="+values[k])
	}
	return vars, warnings
}

func criticalDefault(name, shell string) string {
	switch name {
	case "HOME":
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		if u, err := user.Current(); err == nil {
			return u.HomeDir
		}
		return "/"
	case "USER":
		if u, err := user.Current(); err == nil {
			return u.Username
		}
	case "PATH":
		return defaultPath
	case "LANG":
		return defaultLang
	case "SHELL":
		return shell
	}
	return ""
}
