package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/EPdacoder05/TF2S3-migration/internal/config"
	"github.com/EPdacoder05/TF2S3-migration/internal/gitops"
	"github.com/EPdacoder05/TF2S3-migration/internal/logging"
	"github.com/EPdacoder05/TF2S3-migration/internal/tfconfig"
	"github.com/EPdacoder05/TF2S3-migration/internal/validate"
)

// Deps bundles the collaborators a pipeline needs. Git, State and Verifier
// are required; the rest default sensibly when nil.
type Deps struct {
	Git      GitOps
	State    StateCopier
	Verifier ObjectVerifier
	// PRs enables the already-exists check before opening a pull request.
	// Optional; without it every publish attempts creation.
	PRs gitops.PRClient
	Log *logging.Logger
	// Comparator orders module versions. Defaults to lenient semver.
	Comparator tfconfig.Comparator
	// Confirm asks the operator before a pull request is opened when
	// auto-publish is off. Nil means declined.
	Confirm func(target Target) bool
	// HasChanges reports whether a worktree has uncommitted changes.
	// Defaults to go-git inspection.
	HasChanges func(repoPath string) (bool, error)
}

// Pipeline is the per-repository state machine.
type Pipeline struct {
	target   Target
	cfg      *config.Config
	deps     Deps
	log      *logging.Logger
	repoPath string
	stateKey string

	state State
	prURL string
}

// New builds a pipeline for target. The target's branch falls back to the
// configured branch name when unset.
func New(target Target, cfg *config.Config, deps Deps) *Pipeline {
	if target.Branch == "" {
		target.Branch = cfg.Branch
	}
	if deps.Comparator == nil {
		deps.Comparator = tfconfig.SemverComparator{}
	}
	if deps.HasChanges == nil {
		deps.HasChanges = gitops.HasUncommittedChanges
	}
	if deps.Log == nil {
		deps.Log = logging.New(cfg.Verbose)
	}

	return &Pipeline{
		target:   target,
		cfg:      cfg,
		deps:     deps,
		log:      deps.Log,
		repoPath: filepath.Join(cfg.WorkDir, target.Repo),
		stateKey: cfg.StateKey(target.Repo),
		state:    StatePending,
	}
}

// State returns the machine's current state.
func (p *Pipeline) State() State {
	return p.state
}

// Run drives the repository through validation and every stage in order,
// stopping at the first fatal failure. It always returns a terminal Outcome
// and never panics across the batch boundary.
func (p *Pipeline) Run(ctx context.Context) *Outcome {
	outcome := &Outcome{
		Target:   p.target,
		StateKey: p.stateKey,
	}

	p.state = StateValidating
	if err := p.validateTarget(); err != nil {
		p.state = StateSkipped
		outcome.Status = StatusSkipped
		outcome.FailureMessage = err.Error()
		p.log.Warn("Skipping %s: %v", p.target, err)
		return outcome
	}

	p.state = StateRunning
	stages := stageTable()
	for i, spec := range stages {
		p.log.Info("[%d/%d] %s: %s", i+1, len(stages), p.target.Repo, spec.stage)

		result := p.runStage(ctx, spec)
		outcome.Results = append(outcome.Results, result)

		if result.Status == StatusFailed && spec.fatal(p) {
			p.state = StateFailed
			outcome.Status = StatusFailed
			outcome.FirstFailedStage = spec.stage
			outcome.FailureMessage = result.Message
			p.log.Error("%s failed at %s: %s", p.target, spec.stage, result.Message)
			return outcome
		}
	}

	p.state = StateSucceeded
	outcome.Status = StatusSucceeded
	outcome.PRURL = p.prURL
	return outcome
}

func (p *Pipeline) runStage(ctx context.Context, spec stageSpec) StageResult {
	start := time.Now()
	message, detail, err := spec.run(ctx, p)

	result := StageResult{
		Stage:    spec.stage,
		Status:   StatusSucceeded,
		Message:  message,
		Detail:   detail,
		Duration: time.Since(start),
	}

	if err != nil {
		if skip, ok := err.(*skipError); ok {
			result.Status = StatusSkipped
			result.Message = skip.reason
		} else {
			result.Status = StatusFailed
			result.Message = err.Error()
		}
	}
	return result
}

func (p *Pipeline) validateTarget() error {
	if err := validate.OrgName(p.target.Org); err != nil {
		return err
	}
	if err := validate.RepoName(p.target.Repo); err != nil {
		return err
	}
	if err := validate.BranchName(p.target.Branch); err != nil {
		return err
	}
	return validate.PathSafety(p.repoPath)
}
