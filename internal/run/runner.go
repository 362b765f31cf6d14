// Package run executes external commands with timeouts, sanitized output
// capture and a dry-run mode that logs the intended invocation instead of
// spawning a process.
package run

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	tferrors "github.com/EPdacoder05/TF2S3-migration/internal/errors"
	"github.com/EPdacoder05/TF2S3-migration/internal/logging"
	"github.com/EPdacoder05/TF2S3-migration/internal/secrets"
)

// DefaultTimeout is applied when a command carries no explicit timeout and the
// context has no deadline.
const DefaultTimeout = 5 * time.Minute

// Command describes one external invocation. Argv is passed as a discrete
// vector to the OS; no shell ever re-parses it.
type Command struct {
	Argv    []string
	Dir     string
	Env     []string // appended to the inherited environment
	Timeout time.Duration
}

// Result captures the outcome of a completed command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner executes commands. The zero value is not usable; use NewRunner.
type Runner struct {
	dryRun    bool
	sanitizer *secrets.Sanitizer
	log       *logging.Logger
}

// NewRunner creates a Runner. In dry-run mode no process is ever spawned.
func NewRunner(dryRun bool, log *logging.Logger) *Runner {
	return &Runner{
		dryRun:    dryRun,
		sanitizer: secrets.NewSanitizer(),
		log:       log,
	}
}

// DryRun reports whether the runner is in dry-run mode.
func (r *Runner) DryRun() bool {
	return r.dryRun
}

// Run executes cmd and returns its sanitized output. In dry-run mode it logs
// the would-be invocation and returns a synthetic success. On timeout the
// whole process group is terminated and the returned error wraps
// ErrCommandTimeout.
func (r *Runner) Run(ctx context.Context, cmd Command) (Result, error) {
	display := r.sanitizer.Sanitize(strings.Join(cmd.Argv, " "))

	if r.dryRun {
		r.log.Info("[DRY RUN] Would execute: %s", display)
		return Result{ExitCode: 0}, nil
	}

	if ctx == nil {
		ctx = context.Background()
	}
	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	r.log.Debug("Running command: %s", display)

	execCmd := exec.CommandContext(ctx, cmd.Argv[0], cmd.Argv[1:]...)
	if cmd.Dir != "" {
		execCmd.Dir = cmd.Dir
	}
	if len(cmd.Env) > 0 {
		execCmd.Env = append(os.Environ(), cmd.Env...)
	}
	configureProcessGroup(execCmd)
	execCmd.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr

	err := execCmd.Run()

	exitCode := -1
	if execCmd.ProcessState != nil {
		exitCode = execCmd.ProcessState.ExitCode()
	}
	result := Result{
		ExitCode: exitCode,
		Stdout:   r.sanitizer.Sanitize(stdout.String()),
		Stderr:   r.sanitizer.Sanitize(stderr.String()),
	}

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			r.log.Error("Command timed out after %s: %s", timeout, display)
			return result, tferrors.NewCommandError(cmd.Argv, result.ExitCode, result.Stdout, result.Stderr, tferrors.ErrCommandTimeout)
		}
		return result, tferrors.NewCommandError(cmd.Argv, result.ExitCode, result.Stdout, result.Stderr, err)
	}

	if result.Stderr != "" {
		r.log.Debug("Command stderr: %s", strings.TrimSpace(result.Stderr))
	}
	return result, nil
}

// Output runs cmd and returns its trimmed stdout.
func (r *Runner) Output(ctx context.Context, cmd Command) (string, error) {
	result, err := r.Run(ctx, cmd)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Stdout), nil
}
