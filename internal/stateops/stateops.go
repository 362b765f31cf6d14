// Package stateops moves Terraform state from Terraform Cloud to S3 and
// verifies the result. The copy itself is delegated to the platform team's
// copy_state.sh, which owns TFC authentication and workspace handling.
package stateops

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/EPdacoder05/TF2S3-migration/internal/config"
	tferrors "github.com/EPdacoder05/TF2S3-migration/internal/errors"
	"github.com/EPdacoder05/TF2S3-migration/internal/logging"
	"github.com/EPdacoder05/TF2S3-migration/internal/run"
)

// Ops performs state operations through the command runner.
type Ops struct {
	runner *run.Runner
	log    *logging.Logger
}

// NewOps creates an Ops bound to a runner.
func NewOps(runner *run.Runner, log *logging.Logger) *Ops {
	return &Ops{runner: runner, log: log}
}

// CopyState runs copy_state.sh from scriptsPath inside the clone at repoPath.
// The script authenticates against TFC, downloads the state and uploads it to
// S3; this side only sets AWS_PROFILE and enforces the timeout.
func (o *Ops) CopyState(ctx context.Context, repoPath, scriptsPath, awsProfile string) error {
	script := filepath.Join(scriptsPath, config.CopyStateScript)
	if _, err := os.Stat(script); err != nil {
		return tferrors.NewEnvironmentError(config.CopyStateScript, fmt.Sprintf("not found at %s", script))
	}

	_, err := o.runner.Run(ctx, run.Command{
		Argv:    []string{"bash", script},
		Dir:     repoPath,
		Env:     []string{"AWS_PROFILE=" + awsProfile},
		Timeout: config.StateCopyTimeout,
	})
	if err != nil {
		return fmt.Errorf("state copy script failed: %w", err)
	}
	return nil
}

// BackupState pulls the current state and writes it to a timestamped file
// under backupDir, giving a local restore point before the backend moves.
func (o *Ops) BackupState(ctx context.Context, repoPath, backupDir string) (string, error) {
	out, err := o.runner.Output(ctx, run.Command{
		Argv: []string{"terraform", "state", "pull"},
		Dir:  repoPath,
	})
	if err != nil {
		return "", fmt.Errorf("failed to pull state for backup: %w", err)
	}

	if o.runner.DryRun() {
		return "", nil
	}

	if err := os.MkdirAll(backupDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	backupFile := filepath.Join(backupDir, fmt.Sprintf("%s_state_%s.json",
		filepath.Base(repoPath), time.Now().Format("20060102_150405")))
	if err := os.WriteFile(backupFile, []byte(out), 0o600); err != nil {
		return "", fmt.Errorf("failed to write state backup: %w", err)
	}

	o.log.Debug("State backed up to %s", backupFile)
	return backupFile, nil
}

// ListWorkspaces returns the Terraform workspaces of the clone at repoPath.
func (o *Ops) ListWorkspaces(ctx context.Context, repoPath string) ([]string, error) {
	out, err := o.runner.Output(ctx, run.Command{
		Argv: []string{"terraform", "workspace", "list"},
		Dir:  repoPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}

	var workspaces []string
	for _, line := range strings.Split(out, "\n") {
		// The active workspace is marked with an asterisk.
		name := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "* "))
		if name != "" {
			workspaces = append(workspaces, name)
		}
	}
	return workspaces, nil
}

// MigrateWorkspaceState selects workspace and copies its state to S3.
func (o *Ops) MigrateWorkspaceState(ctx context.Context, repoPath, workspace, scriptsPath, awsProfile string) error {
	if _, err := o.runner.Run(ctx, run.Command{
		Argv: []string{"terraform", "workspace", "select", workspace},
		Dir:  repoPath,
	}); err != nil {
		return fmt.Errorf("failed to select workspace %s: %w", workspace, err)
	}
	return o.CopyState(ctx, repoPath, scriptsPath, awsProfile)
}

// ValidateIntegrity re-initializes Terraform against the new backend and runs
// a plan. A drift-free plan means the migrated state matches reality; detected
// changes are reported as an error so the operator can inspect them.
func (o *Ops) ValidateIntegrity(ctx context.Context, repoPath string) error {
	if _, err := o.runner.Run(ctx, run.Command{
		Argv:    []string{"terraform", "init", "-reconfigure", "-input=false"},
		Dir:     repoPath,
		Timeout: config.DefaultTimeout,
	}); err != nil {
		return fmt.Errorf("failed to initialize against new backend: %w", err)
	}

	result, err := o.runner.Run(ctx, run.Command{
		Argv:    []string{"terraform", "plan", "-detailed-exitcode", "-input=false"},
		Dir:     repoPath,
		Timeout: config.StateCopyTimeout,
	})
	if err == nil {
		return nil
	}

	// Exit code 2 means the plan succeeded but found changes.
	if result.ExitCode == 2 {
		return fmt.Errorf("plan detected changes after migration, state may have drifted")
	}
	return fmt.Errorf("terraform plan failed: %w", err)
}
