package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationErrorIs(t *testing.T) {
	t.Parallel()

	err := NewValidationError("repository name", "../../etc", "contains parent directory segment")

	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "repository name")
	assert.Contains(t, err.Error(), "../../etc")
}

func TestCommandErrorTimeout(t *testing.T) {
	t.Parallel()

	err := NewCommandError([]string{"sleep", "30"}, -1, "", "", ErrCommandTimeout)

	assert.True(t, err.Timeout())
	assert.ErrorIs(t, err, ErrCommandTimeout)

	plain := NewCommandError([]string{"false"}, 1, "", "boom", errors.New("exit status 1"))
	assert.False(t, plain.Timeout())
	assert.Contains(t, plain.Error(), "exit 1")
	assert.Contains(t, plain.Error(), "boom")
}

func TestEnvironmentErrorIs(t *testing.T) {
	t.Parallel()

	err := NewEnvironmentError("copy_state.sh", "not found")

	assert.ErrorIs(t, err, ErrEnvironment)
	assert.Contains(t, err.Error(), "copy_state.sh")
}

func TestStageErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("push rejected")
	err := NewStageError("push", "failed to push branch", cause)

	assert.ErrorIs(t, err, ErrStageFailed)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestWrappedSentinelSurvivesFormatting(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("%w: working tree is clean", ErrNothingToCommit)
	require.ErrorIs(t, err, ErrNothingToCommit)
}
