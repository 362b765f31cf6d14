//go:build windows

package run

import "os/exec"

// configureProcessGroup is a no-op on Windows; exec.CommandContext kills the
// direct child on cancellation.
func configureProcessGroup(cmd *exec.Cmd) {}
