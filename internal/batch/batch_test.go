package batch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EPdacoder05/TF2S3-migration/internal/config"
	"github.com/EPdacoder05/TF2S3-migration/internal/logging"
	"github.com/EPdacoder05/TF2S3-migration/internal/pipeline"
)

const cloudMainTF = `terraform {
  cloud {
    organization = "acme"
  }
}
`

// batchGit seeds clones and tracks how many pipelines hold a worker slot.
type batchGit struct {
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	delay       time.Duration
}

func (g *batchGit) Clone(_ context.Context, _, _, dest string) error {
	current := g.inFlight.Add(1)
	for {
		max := g.maxInFlight.Load()
		if current <= max || g.maxInFlight.CompareAndSwap(max, current) {
			break
		}
	}
	time.Sleep(g.delay)
	g.inFlight.Add(-1)

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dest, "main.tf"), []byte(cloudMainTF), 0o644)
}

func (g *batchGit) CreateBranch(context.Context, string, string) error { return nil }
func (g *batchGit) Commit(context.Context, string, string) error       { return nil }
func (g *batchGit) Push(context.Context, string, string) error         { return nil }
func (g *batchGit) CreatePullRequest(context.Context, string, string, string, string) (string, error) {
	return "https://github.com/acme/pull/1", nil
}

// batchState fails for the repositories named in failFor.
type batchState struct {
	mu      sync.Mutex
	failFor map[string]bool
}

func (s *batchState) CopyState(_ context.Context, repoPath, _, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor[filepath.Base(repoPath)] {
		return errors.New("state copy script failed")
	}
	return nil
}

type okVerifier struct{}

func (okVerifier) StateExists(context.Context, string, string) (bool, error) { return true, nil }

func batchScene(t *testing.T, concurrency int) (*config.Config, pipeline.Deps, *batchGit, *batchState) {
	t.Helper()

	cfg := config.New()
	cfg.Organization = "acme"
	cfg.WorkDir = t.TempDir()
	cfg.AutoPublish = true
	cfg.Concurrency = concurrency

	git := &batchGit{delay: 10 * time.Millisecond}
	state := &batchState{failFor: map[string]bool{}}

	deps := pipeline.Deps{
		Git:        git,
		State:      state,
		Verifier:   okVerifier{},
		Log:        logging.NewForWriter(&bytes.Buffer{}, false),
		HasChanges: func(string) (bool, error) { return true, nil },
	}
	return cfg, deps, git, state
}

func targets(names ...string) []pipeline.Target {
	ts := make([]pipeline.Target, len(names))
	for i, name := range names {
		ts[i] = pipeline.Target{Org: "acme", Repo: name}
	}
	return ts
}

func TestRunProducesOneOutcomePerTarget(t *testing.T) {
	t.Parallel()

	cfg, deps, _, _ := batchScene(t, 3)
	summary := Run(context.Background(), targets("a", "b", "c", "d", "e"), cfg, deps)

	require.Len(t, summary.Outcomes, 5)
	assert.Equal(t, 5, summary.Count(pipeline.StatusSucceeded))
	assert.False(t, summary.HasFailures())
	assert.Positive(t, summary.Duration)
}

func TestRunBoundsConcurrency(t *testing.T) {
	t.Parallel()

	cfg, deps, git, _ := batchScene(t, 2)
	summary := Run(context.Background(), targets("a", "b", "c", "d", "e", "f"), cfg, deps)

	require.Len(t, summary.Outcomes, 6)
	assert.LessOrEqual(t, git.maxInFlight.Load(), int32(2))
}

func TestRunIsolatesFailures(t *testing.T) {
	t.Parallel()

	cfg, deps, _, state := batchScene(t, 2)
	state.failFor["beta"] = true

	summary := Run(context.Background(), targets("alpha", "beta", "gamma"), cfg, deps)

	require.Len(t, summary.Outcomes, 3)
	assert.Equal(t, 2, summary.Count(pipeline.StatusSucceeded))
	assert.Equal(t, 1, summary.Count(pipeline.StatusFailed))
	assert.Equal(t, 0, summary.Count(pipeline.StatusSkipped))
	assert.ElementsMatch(t, []string{"alpha", "gamma"}, summary.Names(pipeline.StatusSucceeded))
	assert.Equal(t, []string{"beta"}, summary.Names(pipeline.StatusFailed))

	for _, o := range summary.Outcomes {
		if o.Target.Repo == "beta" {
			assert.Equal(t, pipeline.StageStateCopy, o.FirstFailedStage)
		}
	}
}

func TestRunSkipsInvalidTargets(t *testing.T) {
	t.Parallel()

	cfg, deps, _, _ := batchScene(t, 2)
	summary := Run(context.Background(), targets("good", "../../etc"), cfg, deps)

	require.Len(t, summary.Outcomes, 2)
	assert.Equal(t, 1, summary.Count(pipeline.StatusSucceeded))
	assert.Equal(t, 1, summary.Count(pipeline.StatusSkipped))
	assert.Equal(t, []string{"../../etc"}, summary.Names(pipeline.StatusSkipped))
}
