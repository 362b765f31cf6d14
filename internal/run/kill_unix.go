//go:build !windows

package run

import (
	"os/exec"
	"syscall"
)

// configureProcessGroup places the child in its own process group and arranges
// for the whole group to be killed on context cancellation, so a timed-out
// script cannot leave orphaned grandchildren behind.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
