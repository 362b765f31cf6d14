package stateops

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tferrors "github.com/EPdacoder05/TF2S3-migration/internal/errors"
	"github.com/EPdacoder05/TF2S3-migration/internal/logging"
	"github.com/EPdacoder05/TF2S3-migration/internal/run"
)

func dryRunOps(t *testing.T) (*Ops, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	log := logging.NewForWriter(&buf, true)
	return NewOps(run.NewRunner(true, log), log), &buf
}

func TestCopyStateDryRun(t *testing.T) {
	t.Parallel()

	ops, buf := dryRunOps(t)

	scripts := t.TempDir()
	script := filepath.Join(scripts, "copy_state.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/bash\n"), 0o755))

	err := ops.CopyState(context.Background(), t.TempDir(), scripts, "platform-admin")

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "[DRY RUN] Would execute: bash "+script)
}

func TestCopyStateScriptMissing(t *testing.T) {
	t.Parallel()

	ops, _ := dryRunOps(t)

	err := ops.CopyState(context.Background(), t.TempDir(), t.TempDir(), "platform-admin")

	require.Error(t, err)
	assert.ErrorIs(t, err, tferrors.ErrEnvironment)
}

func TestListWorkspacesDryRun(t *testing.T) {
	t.Parallel()

	ops, _ := dryRunOps(t)

	// Dry-run commands return empty output, so no workspaces are parsed.
	workspaces, err := ops.ListWorkspaces(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, workspaces)
}

func TestBackupStateDryRun(t *testing.T) {
	t.Parallel()

	ops, buf := dryRunOps(t)

	path, err := ops.BackupState(context.Background(), t.TempDir(), t.TempDir())

	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Contains(t, buf.String(), "terraform state pull")
}

func TestValidateIntegrityDryRun(t *testing.T) {
	t.Parallel()

	ops, buf := dryRunOps(t)

	require.NoError(t, ops.ValidateIntegrity(context.Background(), t.TempDir()))
	out := buf.String()
	assert.Contains(t, out, "terraform init -reconfigure")
	assert.Contains(t, out, "terraform plan -detailed-exitcode")
}
