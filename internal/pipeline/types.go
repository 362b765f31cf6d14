// Package pipeline drives one repository through the ordered migration
// stages. Each repository gets its own state machine; a fatal stage failure
// terminates that repository's run without affecting any other.
package pipeline

import (
	"time"
)

// Target identifies one repository to migrate. Immutable once a run starts.
type Target struct {
	Org    string
	Repo   string
	Branch string
}

// String returns the org-qualified repository name.
func (t Target) String() string {
	return t.Org + "/" + t.Repo
}

// Stage identifies one step of the migration pipeline.
type Stage int

// Pipeline stages in execution order.
const (
	StageFetch Stage = iota + 1
	StageBranch
	StageVersionCheck
	StageStateCopy
	StageBackendUpdate
	StageModuleUpdate
	StageWorkflowUpdate
	StageCommit
	StagePush
	StagePublish
	StageVerify
)

var stageNames = map[Stage]string{
	StageFetch:          "fetch",
	StageBranch:         "branch",
	StageVersionCheck:   "version-check",
	StageStateCopy:      "state-copy",
	StageBackendUpdate:  "backend-update",
	StageModuleUpdate:   "module-update",
	StageWorkflowUpdate: "workflow-update",
	StageCommit:         "commit",
	StagePush:           "push",
	StagePublish:        "publish-proposal",
	StageVerify:         "verify",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// Status is the outcome of a stage or of a whole repository.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// StageResult records one stage execution. Results are append-only and never
// shared across repositories.
type StageResult struct {
	Stage    Stage
	Status   Status
	Message  string
	Duration time.Duration
	// Detail lists affected items, e.g. the files a transform changed.
	Detail []string
}

// Outcome aggregates a repository's run: the ordered stage results and the
// final status. Published read-only to the batch scheduler on completion.
type Outcome struct {
	Target  Target
	Results []StageResult
	Status  Status
	// FirstFailedStage is set when Status is failed.
	FirstFailedStage Stage
	// FailureMessage explains a failed or skipped status.
	FailureMessage string
	// PRURL and StateKey are populated on success.
	PRURL    string
	StateKey string
}

// State names one position of the repository state machine.
type State int

const (
	StatePending State = iota
	StateValidating
	StateRunning
	StateSucceeded
	StateFailed
	StateSkipped
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateValidating:
		return "validating"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateSkipped:
		return "skipped"
	}
	return "unknown"
}
