// internal/run/types.go
// Package run contains the test run execution and evaluation engine: the run
// lifecycle state machine, the task orchestrator, and the per-model result
// aggregator.
package run

import (
	"context"
	"encoding/json"
	"time"

	"github.com/schemarena/schemarena/internal/validation"
)

// Status is the lifecycle state of a test run. Transitions are one-directional
// (Pending -> Running -> Completed/Failed); Completed and Failed are terminal.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusRunning   Status = "Running"
	StatusCompleted Status = "Completed"
	StatusFailed    Status = "Failed"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether moving from s to next preserves the
// monotonic lifecycle. A repeated identical status is allowed so status
// updates stay idempotent.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusPending:
		return next == StatusRunning || next == StatusFailed
	case StatusRunning:
		return next.Terminal()
	default:
		return false
	}
}

// SchemaStatusApproved is the schema lifecycle state a run may target.
// Draft or merely reviewed schemas are rejected by the config validator.
const SchemaStatusApproved = "approved"

// Item is one curated mock input record.
type Item struct {
	ID      string          `json:"id"`
	Content json.RawMessage `json:"content"`
}

// RunConfig is the full, resolved configuration of a test run. It is
// immutable once the run starts; the run record stores a snapshot.
type RunConfig struct {
	Name           string          `json:"name,omitempty"`
	PromptTemplate string          `json:"prompt_template"`
	Schema         json.RawMessage `json:"schema"`
	SchemaStatus   string          `json:"schema_status"`
	Items          []Item          `json:"items"`
	Models         []string        `json:"models"`
}

// ExpectedTasks is the size of the full model x item task set.
func (c RunConfig) ExpectedTasks() int {
	return len(c.Models) * len(c.Items)
}

// TestRun is the persistent record of one run of all model x item tasks.
type TestRun struct {
	ID            string     `json:"id"`
	Name          string     `json:"name,omitempty"`
	Config        RunConfig  `json:"config"`
	Status        Status     `json:"status"`
	ExpectedTasks int        `json:"expected_tasks"`
	CreatedAt     time.Time  `json:"created_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	ErrorMessage  string     `json:"error_message,omitempty"`
}

// TestTask is one (model, item) unit of work. Tasks are ephemeral: built by
// the orchestrator, consumed once, never persisted.
type TestTask struct {
	RunID  string
	Model  string
	ItemID string
	Prompt string
}

// TestResult is the immutable outcome of one task, written exactly once.
type TestResult struct {
	RunID       string                 `json:"run_id"`
	Model       string                 `json:"model_id"`
	ItemID      string                 `json:"item_id"`
	RawOutput   *string                `json:"raw_output"`
	ParseStatus bool                   `json:"parse_status"`
	Compliance  validation.Compliance  `json:"compliance_status"`
	Violations  []validation.Violation `json:"violations,omitempty"`
	ExecutionMs *float64               `json:"execution_time_ms"`
	TokensUsed  *int                   `json:"tokens_used"`
	ErrorMsg    *string                `json:"error_message"`
	CreatedAt   time.Time              `json:"created_at"`
}

// Gateway is the persistence collaborator the engine writes through. The
// result stream is append-only; implementations must tolerate concurrent
// AppendResult callers.
type Gateway interface {
	CreateRun(ctx context.Context, run *TestRun) error
	// SetRunStatus is idempotent and must refuse backward transitions. The
	// timestamp is the started-at time for Running and the completed-at time
	// for terminal states.
	SetRunStatus(ctx context.Context, runID string, status Status, at time.Time, errorMessage string) error
	AppendResult(ctx context.Context, result *TestResult) error
	GetRun(ctx context.Context, runID string) (*TestRun, error)
	ListResults(ctx context.Context, runID string) ([]TestResult, error)
}
