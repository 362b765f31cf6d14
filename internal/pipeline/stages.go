package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/EPdacoder05/TF2S3-migration/internal/config"
	tferrors "github.com/EPdacoder05/TF2S3-migration/internal/errors"
	"github.com/EPdacoder05/TF2S3-migration/internal/gitops"
	"github.com/EPdacoder05/TF2S3-migration/internal/tfconfig"
)

// GitOps is the slice of repository operations the stages need.
type GitOps interface {
	Clone(ctx context.Context, org, repo, dest string) error
	CreateBranch(ctx context.Context, repoPath, branch string) error
	Commit(ctx context.Context, repoPath, message string) error
	Push(ctx context.Context, repoPath, branch string) error
	CreatePullRequest(ctx context.Context, repoPath, branch, title, body string) (string, error)
}

// StateCopier relocates a repository's Terraform state to S3.
type StateCopier interface {
	CopyState(ctx context.Context, repoPath, scriptsPath, awsProfile string) error
}

// ObjectVerifier checks that a state object exists in the bucket.
type ObjectVerifier interface {
	StateExists(ctx context.Context, bucket, key string) (bool, error)
}

// skipError marks a stage as skipped rather than failed.
type skipError struct {
	reason string
}

func (e *skipError) Error() string { return e.reason }

// stageSpec couples a stage with its executor and fatality rule.
type stageSpec struct {
	stage Stage
	// fatal reports whether a failure of this stage terminates the pipeline.
	fatal func(p *Pipeline) bool
	run   func(ctx context.Context, p *Pipeline) (string, []string, error)
}

func alwaysFatal(*Pipeline) bool { return true }
func neverFatal(*Pipeline) bool  { return false }

func stageTable() []stageSpec {
	return []stageSpec{
		{StageFetch, alwaysFatal, runFetch},
		{StageBranch, alwaysFatal, runBranch},
		{StageVersionCheck, func(p *Pipeline) bool { return !p.cfg.SkipVersionCheck }, runVersionCheck},
		{StageStateCopy, alwaysFatal, runStateCopy},
		{StageBackendUpdate, func(p *Pipeline) bool { return p.cfg.StrictBackend }, runBackendUpdate},
		{StageModuleUpdate, neverFatal, runModuleUpdate},
		{StageWorkflowUpdate, neverFatal, runWorkflowUpdate},
		{StageCommit, alwaysFatal, runCommit},
		{StagePush, alwaysFatal, runPush},
		{StagePublish, alwaysFatal, runPublish},
		{StageVerify, alwaysFatal, runVerify},
	}
}

func runFetch(ctx context.Context, p *Pipeline) (string, []string, error) {
	if err := p.deps.Git.Clone(ctx, p.target.Org, p.target.Repo, p.repoPath); err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("cloned %s", p.target), nil, nil
}

func runBranch(ctx context.Context, p *Pipeline) (string, []string, error) {
	if err := p.deps.Git.CreateBranch(ctx, p.repoPath, p.target.Branch); err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("created branch %s", p.target.Branch), nil, nil
}

func runVersionCheck(_ context.Context, p *Pipeline) (string, []string, error) {
	if p.cfg.SkipVersionCheck {
		return "", nil, &skipError{"version check skipped"}
	}
	if p.cfg.DryRun && !p.repoExists() {
		return "would check module version pins", nil, nil
	}

	var pins []tfconfig.ModulePin
	err := forEachTerraformFile(p.repoPath, func(_ string, src string) (string, bool, error) {
		pins = append(pins, tfconfig.ScanModulePins(src)...)
		return src, false, nil
	})
	if err != nil {
		return "", nil, err
	}

	violations := tfconfig.CheckVersions(pins, p.cfg.RequiredVersions, p.deps.Comparator)
	if len(violations) > 0 {
		return "", violations, fmt.Errorf("module version requirements not met: %s", strings.Join(violations, "; "))
	}
	return fmt.Sprintf("checked %d module pins", len(pins)), nil, nil
}

func runStateCopy(ctx context.Context, p *Pipeline) (string, []string, error) {
	if err := p.deps.State.CopyState(ctx, p.repoPath, p.cfg.ScriptsPath, p.cfg.AWSProfile); err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("state copied to s3://%s/%s", p.cfg.Bucket, p.stateKey), nil, nil
}

func runBackendUpdate(_ context.Context, p *Pipeline) (string, []string, error) {
	if p.cfg.DryRun {
		return fmt.Sprintf("would rewrite backend to s3://%s/%s", p.cfg.Bucket, p.stateKey), nil, nil
	}

	backend := tfconfig.BackendConfig{
		Bucket:    p.cfg.Bucket,
		Key:       p.stateKey,
		Region:    p.cfg.Region,
		LockTable: p.cfg.LockTable,
	}

	var changed []string
	err := forEachTerraformFile(p.repoPath, func(path string, src string) (string, bool, error) {
		out, ok := tfconfig.RewriteBackend(src, backend)
		if ok {
			changed = append(changed, path)
		}
		return out, ok, nil
	})
	if err != nil {
		return "", nil, err
	}

	if len(changed) == 0 {
		if p.cfg.StrictBackend {
			return "", nil, fmt.Errorf("%w in any configuration file", tferrors.ErrNoBackendBlock)
		}
		return "", nil, &skipError{"no backend block found, repository may already be migrated"}
	}
	return fmt.Sprintf("backend rewritten in %d file(s)", len(changed)), changed, nil
}

func runModuleUpdate(_ context.Context, p *Pipeline) (string, []string, error) {
	if p.cfg.DryRun {
		return "would rewrite registry module sources to Git references", nil, nil
	}

	total := 0
	var changed []string
	err := forEachTerraformFile(p.repoPath, func(path string, src string) (string, bool, error) {
		out, count := tfconfig.RewriteModuleSources(src, p.target.Org)
		if count > 0 {
			total += count
			changed = append(changed, path)
		}
		return out, count > 0, nil
	})
	if err != nil {
		return "", nil, err
	}

	if total == 0 {
		return "no registry module sources found", nil, nil
	}
	return fmt.Sprintf("rewrote %d module source(s) in %d file(s)", total, len(changed)), changed, nil
}

func runWorkflowUpdate(_ context.Context, p *Pipeline) (string, []string, error) {
	if p.cfg.DryRun {
		return "would inject read-access token into Terraform workflows", nil, nil
	}

	updated, err := gitops.UpdateWorkflows(p.repoPath)
	if err != nil {
		return "", nil, err
	}
	if len(updated) == 0 {
		return "no workflow files needed updating", nil, nil
	}
	return fmt.Sprintf("updated %d workflow file(s)", len(updated)), updated, nil
}

func runCommit(ctx context.Context, p *Pipeline) (string, []string, error) {
	if p.cfg.DryRun {
		return "would commit migration changes", nil, nil
	}

	dirty, err := p.deps.HasChanges(p.repoPath)
	if err != nil {
		return "", nil, err
	}
	if !dirty {
		return "", nil, fmt.Errorf("%w: working tree is clean", tferrors.ErrNothingToCommit)
	}

	if err := p.deps.Git.Commit(ctx, p.repoPath, config.CommitMessage); err != nil {
		return "", nil, err
	}
	return "committed migration changes", nil, nil
}

func runPush(ctx context.Context, p *Pipeline) (string, []string, error) {
	if err := p.deps.Git.Push(ctx, p.repoPath, p.target.Branch); err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("pushed %s to origin", p.target.Branch), nil, nil
}

func runPublish(ctx context.Context, p *Pipeline) (string, []string, error) {
	// Dry-run reports the would-be action; confirmation belongs to real runs.
	if p.cfg.DryRun {
		return "would open pull request", nil, nil
	}

	if p.deps.PRs != nil {
		pr, err := p.deps.PRs.FindByBranch(ctx, p.target.Org, p.target.Repo, p.target.Branch)
		if err != nil {
			p.log.Debug("Pull request lookup failed for %s: %v", p.target, err)
		} else if pr != nil {
			p.prURL = pr.URL
			return fmt.Sprintf("pull request already exists: %s", pr.URL), nil, nil
		}
	}

	if !p.cfg.AutoPublish {
		if p.deps.Confirm == nil || !p.deps.Confirm(p.target) {
			return "", nil, &skipError{"pull request creation not confirmed"}
		}
	}

	url, err := p.deps.Git.CreatePullRequest(ctx, p.repoPath, p.target.Branch, config.PRTitle, config.PRBody)
	if err != nil {
		return "", nil, err
	}
	p.prURL = url
	if url == "" {
		return "would open pull request", nil, nil
	}
	return fmt.Sprintf("opened pull request: %s", url), nil, nil
}

func runVerify(ctx context.Context, p *Pipeline) (string, []string, error) {
	location := fmt.Sprintf("s3://%s/%s", p.cfg.Bucket, p.stateKey)
	if p.cfg.DryRun {
		return "would verify state object at " + location, nil, nil
	}

	exists, err := p.deps.Verifier.StateExists(ctx, p.cfg.Bucket, p.stateKey)
	if err != nil {
		return "", nil, err
	}
	if !exists {
		return "", nil, fmt.Errorf("state object not found at %s", location)
	}
	return "state verified at " + location, nil, nil
}

func (p *Pipeline) repoExists() bool {
	_, err := os.Stat(p.repoPath)
	return err == nil
}
