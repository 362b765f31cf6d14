// Package gitops wraps the git and gh command line tools for the repository
// operations the migration performs: clone, branch, commit, push and pull
// request creation. Read-only repository inspection goes through go-git and
// never spawns a process.
package gitops

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/EPdacoder05/TF2S3-migration/internal/logging"
	"github.com/EPdacoder05/TF2S3-migration/internal/run"
)

// Ops performs git and gh operations through a command runner.
type Ops struct {
	runner  *run.Runner
	log     *logging.Logger
	timeout time.Duration
}

// NewOps creates an Ops bound to a runner.
func NewOps(runner *run.Runner, log *logging.Logger, timeout time.Duration) *Ops {
	return &Ops{runner: runner, log: log, timeout: timeout}
}

// Clone clones org/repo into dest using the gh CLI. An existing clone at dest
// is reused so a retry run does not have to re-fetch.
func (o *Ops) Clone(ctx context.Context, org, repo, dest string) error {
	if _, err := os.Stat(dest); err == nil {
		o.log.Warn("Repository directory already exists, reusing: %s", dest)
		return nil
	}

	_, err := o.runner.Run(ctx, run.Command{
		Argv:    []string{"gh", "repo", "clone", fmt.Sprintf("%s/%s", org, repo), dest},
		Timeout: o.timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to clone %s/%s: %w", org, repo, err)
	}
	return nil
}

// CreateBranch creates and checks out branch inside the clone at repoPath.
// If the branch already exists it is checked out instead.
func (o *Ops) CreateBranch(ctx context.Context, repoPath, branch string) error {
	_, err := o.runner.Run(ctx, run.Command{
		Argv:    []string{"git", "checkout", "-b", branch},
		Dir:     repoPath,
		Timeout: o.timeout,
	})
	if err == nil {
		return nil
	}

	// The branch may survive from an earlier attempt; fall back to a plain
	// checkout before giving up.
	if _, coErr := o.runner.Run(ctx, run.Command{
		Argv:    []string{"git", "checkout", branch},
		Dir:     repoPath,
		Timeout: o.timeout,
	}); coErr == nil {
		o.log.Debug("Branch %s already existed, checked out", branch)
		return nil
	}

	return fmt.Errorf("failed to create branch %s: %w", branch, err)
}

// Commit stages everything and commits with message.
func (o *Ops) Commit(ctx context.Context, repoPath, message string) error {
	if _, err := o.runner.Run(ctx, run.Command{
		Argv:    []string{"git", "add", "-A"},
		Dir:     repoPath,
		Timeout: o.timeout,
	}); err != nil {
		return fmt.Errorf("failed to stage changes: %w", err)
	}

	if _, err := o.runner.Run(ctx, run.Command{
		Argv:    []string{"git", "commit", "-m", message},
		Dir:     repoPath,
		Timeout: o.timeout,
	}); err != nil {
		return fmt.Errorf("failed to commit changes: %w", err)
	}
	return nil
}

// Push pushes branch to origin with an upstream reference.
func (o *Ops) Push(ctx context.Context, repoPath, branch string) error {
	_, err := o.runner.Run(ctx, run.Command{
		Argv:    []string{"git", "push", "-u", "origin", branch},
		Dir:     repoPath,
		Timeout: o.timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to push branch %s: %w", branch, err)
	}
	return nil
}

// CreatePullRequest opens a PR from branch against the default branch and
// returns the PR URL printed by gh.
func (o *Ops) CreatePullRequest(ctx context.Context, repoPath, branch, title, body string) (string, error) {
	out, err := o.runner.Output(ctx, run.Command{
		Argv: []string{
			"gh", "pr", "create",
			"--title", title,
			"--body", body,
			"--head", branch,
		},
		Dir:     repoPath,
		Timeout: o.timeout,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create pull request: %w", err)
	}

	// gh prints the PR URL as the last output line.
	lines := strings.Split(strings.TrimSpace(out), "\n")
	return strings.TrimSpace(lines[len(lines)-1]), nil
}
