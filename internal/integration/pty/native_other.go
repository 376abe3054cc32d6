//go:build !unix

package pty

import "os/exec"

func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}

// pollExit only reports an exit already observed by waitExit; there is no
// non-blocking wait on this platform.
func pollExit(cmd *exec.Cmd) (code int, exited bool, err error) {
	if cmd.ProcessState == nil {
		return 0, false, nil
	}
	return cmd.ProcessState.ExitCode(), true, nil
}

func waitExit(cmd *exec.Cmd) (int, error) {
	if err := cmd.Wait(); err != nil && cmd.ProcessState == nil {
		return -1, err
	}
	return cmd.ProcessState.ExitCode(), nil
}
