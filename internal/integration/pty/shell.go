package pty

import (
	"os"
	"os/exec"
	"runtime"
)

// fallbackShells are tried in order when neither an override nor $SHELL
// names a shell.
var fallbackShells = []string{"bash", "zsh", "sh"}

// DetectShell returns the shell to spawn. An explicit override wins, then
// $SHELL, then the first of bash, zsh and sh found on PATH, then /bin/sh.
// On Windows it uses %COMSPEC% or cmd.exe.
func DetectShell(override string) string {
	if override != "" {
		return override
	}

	if runtime.GOOS == "windows" {
		if comspec := os.Getenv("COMSPEC"); comspec != "" {
			return comspec
		}
		return "cmd.exe"
	}

	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	for _, name := range fallbackShells {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return "/bin/sh"
}
