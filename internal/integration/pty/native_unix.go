//go:build unix

package pty

import (
	"errors"
	"os/exec"

	"golang.org/x/sys/unix"
)

// killProcessGroup sends SIGKILL to the child's process group. The child
// is a session leader, so its group ID equals its PID.
func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	err := unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	if errors.Is(err, unix.ESRCH) {
		return nil
	}
	return err
}

// pollExit reaps the child if it has exited, without blocking.
func pollExit(cmd *exec.Cmd) (code int, exited bool, err error) {
	var ws unix.WaitStatus
	pid, err := unix.Wait4(cmd.Process.Pid, &ws, unix.WNOHANG, nil)
	if err != nil {
		return 0, false, err
	}
	if pid == 0 {
		return 0, false, nil
	}
	return exitCode(ws), true, nil
}

// waitExit blocks until the child exits and reaps it.
func waitExit(cmd *exec.Cmd) (int, error) {
	var ws unix.WaitStatus
	for {
		_, err := unix.Wait4(cmd.Process.Pid, &ws, 0, nil)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return -1, err
		}
		return exitCode(ws), nil
	}
}

// exitCode follows the shell convention: 128+signal for killed children.
func exitCode(ws unix.WaitStatus) int {
	switch {
	case ws.Exited():
		return ws.ExitStatus()
	case ws.Signaled():
		return 128 + int(ws.Signal())
	default:
		return -1
	}
}
