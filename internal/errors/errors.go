// Package errors provides sentinel errors and custom error types for the migration tool.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common conditions
var (
	// ErrValidation indicates that an input was rejected before any side effect
	ErrValidation = errors.New("validation failed")

	// ErrStageFailed indicates that a pipeline stage failed
	ErrStageFailed = errors.New("stage failed")

	// ErrCommandTimeout indicates that an external command exceeded its timeout
	ErrCommandTimeout = errors.New("command timed out")

	// ErrEnvironment indicates that a required external tool is missing or misconfigured
	ErrEnvironment = errors.New("environment check failed")

	// ErrNothingToCommit indicates that the working tree has no changes to commit
	ErrNothingToCommit = errors.New("nothing to commit")

	// ErrNoBackendBlock indicates that no recognizable backend block was found
	ErrNoBackendBlock = errors.New("no backend block found")
)

// ValidationError represents a rejected input value
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Is returns true if the target error is ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, value, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// CommandError represents an error from an external command execution
type CommandError struct {
	Argv     []string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command failed: %s", strings.Join(e.Argv, " "))
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Timeout returns true if the command was killed because its deadline expired
func (e *CommandError) Timeout() bool {
	return errors.Is(e.Err, ErrCommandTimeout)
}

// NewCommandError creates a new CommandError
func NewCommandError(argv []string, exitCode int, stdout, stderr string, err error) *CommandError {
	return &CommandError{
		Argv:     argv,
		ExitCode: exitCode,
		Stdout:   stdout,
		Stderr:   stderr,
		Err:      err,
	}
}

// EnvironmentError represents a failed pre-flight environment check
type EnvironmentError struct {
	Tool   string
	Reason string
}

func (e *EnvironmentError) Error() string {
	return fmt.Sprintf("environment check failed for %s: %s", e.Tool, e.Reason)
}

// Is returns true if the target error is ErrEnvironment
func (e *EnvironmentError) Is(target error) bool {
	return target == ErrEnvironment
}

// NewEnvironmentError creates a new EnvironmentError
func NewEnvironmentError(tool, reason string) *EnvironmentError {
	return &EnvironmentError{Tool: tool, Reason: reason}
}

// StageError represents a pipeline stage failure with its originating stage name
type StageError struct {
	Stage   string
	Message string
	Err     error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("stage %s: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("stage %s: %s", e.Stage, e.Message)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Is returns true if the target error is ErrStageFailed
func (e *StageError) Is(target error) bool {
	return target == ErrStageFailed
}

// NewStageError creates a new StageError
func NewStageError(stage, message string, err error) *StageError {
	return &StageError{Stage: stage, Message: message, Err: err}
}
