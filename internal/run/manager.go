// internal/run/manager.go
package run

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/schemarena/schemarena/internal/logging"
	"github.com/schemarena/schemarena/internal/providers"
)

// Manager owns the run lifecycle. It validates configurations, creates run
// records, drives the orchestrator, and is the only component that mutates
// run state or writes outcomes to the gateway. Workers hand outcomes to the
// manager through the orchestrator's channel; they never touch run state.
type Manager struct {
	gateway      Gateway
	client       providers.CompletionClient
	orchestrator *Orchestrator

	wg sync.WaitGroup
}

// NewManager wires a Manager with its persistence gateway and completion
// client.
func NewManager(gateway Gateway, client providers.CompletionClient, opts Options) *Manager {
	return &Manager{
		gateway:      gateway,
		client:       client,
		orchestrator: NewOrchestrator(client, opts),
	}
}

// StartRun validates the configuration, creates the run record, and kicks off
// dispatch in the background. It returns immediately with the created run; it
// never waits for tasks to finish.
//
// Cancelling ctx signals run cancellation: no new tasks start, in-flight
// tasks drain, and the run finishes Failed unless every task had already been
// attempted.
func (m *Manager) StartRun(ctx context.Context, cfg RunConfig) (*TestRun, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	testRun := &TestRun{
		ID:            uuid.NewString(),
		Name:          cfg.Name,
		Config:        cfg,
		Status:        StatusPending,
		ExpectedTasks: cfg.ExpectedTasks(),
		CreatedAt:     now,
	}
	if err := m.gateway.CreateRun(ctx, testRun); err != nil {
		return nil, &SystemError{Op: "create run", Err: err}
	}
	logging.LogEvent("run %s created: %d models x %d items = %d tasks",
		testRun.ID, len(cfg.Models), len(cfg.Items), testRun.ExpectedTasks)

	m.wg.Add(1)
	go m.dispatch(ctx, testRun)
	return testRun, nil
}

// dispatch executes the run to a terminal state. Task failures are absorbed
// into results; only an unusable substrate (unreachable completion service,
// unavailable gateway) fails the run itself.
func (m *Manager) dispatch(ctx context.Context, testRun *TestRun) {
	defer m.wg.Done()

	// Status writes must survive run cancellation.
	persistCtx := context.WithoutCancel(ctx)

	if err := m.client.Ping(persistCtx); err != nil {
		m.finish(persistCtx, testRun, StatusFailed, (&SystemError{Op: "dispatch", Err: err}).Error())
		return
	}

	startedAt := time.Now().UTC()
	if err := m.gateway.SetRunStatus(persistCtx, testRun.ID, StatusRunning, startedAt, ""); err != nil {
		m.finish(persistCtx, testRun, StatusFailed, (&SystemError{Op: "mark running", Err: err}).Error())
		return
	}
	testRun.Status = StatusRunning
	testRun.StartedAt = &startedAt

	// An unusable gateway must also stop task dispatch; every further
	// completion call would produce a result with nowhere to go.
	taskCtx, cancelTasks := context.WithCancel(ctx)
	defer cancelTasks()

	attempted := 0
	outcomes := m.orchestrator.Run(taskCtx, testRun)
	for result := range outcomes {
		if err := m.gateway.AppendResult(persistCtx, &result); err != nil {
			logging.LogEvent("run %s: gateway rejected result for (%s, %s): %v",
				testRun.ID, result.Model, result.ItemID, err)
			cancelTasks()
			for range outcomes {
				// Drain so in-flight workers can exit.
			}
			m.finish(persistCtx, testRun, StatusFailed, (&SystemError{Op: "append result", Err: err}).Error())
			return
		}
		attempted++
	}

	if ctx.Err() != nil && attempted < testRun.ExpectedTasks {
		m.finish(persistCtx, testRun, StatusFailed,
			fmt.Sprintf("run cancelled after %d of %d tasks", attempted, testRun.ExpectedTasks))
		return
	}
	m.finish(persistCtx, testRun, StatusCompleted, "")
}

func (m *Manager) finish(ctx context.Context, testRun *TestRun, status Status, errorMessage string) {
	completedAt := time.Now().UTC()
	if err := m.gateway.SetRunStatus(ctx, testRun.ID, status, completedAt, errorMessage); err != nil {
		logging.LogEvent("run %s: could not record terminal status %s: %v", testRun.ID, status, err)
		return
	}
	testRun.Status = status
	testRun.CompletedAt = &completedAt
	testRun.ErrorMessage = errorMessage
	if errorMessage != "" {
		logging.LogEvent("run %s finished %s: %s", testRun.ID, status, errorMessage)
	} else {
		logging.LogEvent("run %s finished %s", testRun.ID, status)
	}
}

// GetRun returns the run record plus every result persisted so far. Callers
// poll this for progress; there is no push channel out of the engine.
func (m *Manager) GetRun(ctx context.Context, runID string) (*TestRun, []TestResult, error) {
	testRun, err := m.gateway.GetRun(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	results, err := m.gateway.ListResults(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	return testRun, results, nil
}

// GetSummary computes per-model aggregate statistics from persisted results.
func (m *Manager) GetSummary(ctx context.Context, runID string) (*RunSummary, error) {
	testRun, results, err := m.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	summary := Summarize(testRun, results)
	return &summary, nil
}

// Wait blocks until every dispatched run has reached a terminal state. It is
// used by the CLI and tests; the engine itself never requires it.
func (m *Manager) Wait() {
	m.wg.Wait()
}
