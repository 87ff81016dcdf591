// internal/run/helpers_test.go
package run

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/schemarena/schemarena/internal/providers"
)

// fakeClient is a scriptable CompletionClient that tracks in-flight calls.
type fakeClient struct {
	respond  func(call int, req providers.CompletionRequest) (providers.Completion, error)
	delay    time.Duration
	pingErr  error
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (f *fakeClient) Complete(ctx context.Context, req providers.CompletionRequest) (providers.Completion, error) {
	call := int(f.calls.Add(1))
	current := f.inFlight.Add(1)
	for {
		max := f.maxSeen.Load()
		if current <= max || f.maxSeen.CompareAndSwap(max, current) {
			break
		}
	}
	defer f.inFlight.Add(-1)

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return providers.Completion{}, &providers.CallError{
				Kind:  providers.ErrorTimeout,
				Model: req.Model,
				Err:   ctx.Err(),
			}
		}
	}
	if f.respond != nil {
		return f.respond(call, req)
	}
	return providers.Completion{RawOutput: `{}`}, nil
}

func (f *fakeClient) ListModels(ctx context.Context) ([]providers.Model, error) { return nil, nil }
func (f *fakeClient) Ping(ctx context.Context) error                            { return f.pingErr }
func (f *fakeClient) Close() error                                              { return nil }

// memoryGateway is an in-memory Gateway enforcing the same invariants the
// SQLite store does: append-only results, unique (run, model, item) rows,
// idempotent monotonic status updates.
type memoryGateway struct {
	mu        sync.Mutex
	runs      map[string]*TestRun
	results   map[string][]TestResult
	appendErr error
}

func newMemoryGateway() *memoryGateway {
	return &memoryGateway{
		runs:    make(map[string]*TestRun),
		results: make(map[string][]TestResult),
	}
}

func (g *memoryGateway) CreateRun(ctx context.Context, testRun *TestRun) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	clone := *testRun
	g.runs[testRun.ID] = &clone
	return nil
}

func (g *memoryGateway) SetRunStatus(ctx context.Context, runID string, status Status, at time.Time, errorMessage string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	testRun, ok := g.runs[runID]
	if !ok {
		return fmt.Errorf("run %s not found", runID)
	}
	if !testRun.Status.CanTransitionTo(status) {
		return fmt.Errorf("illegal status transition %s -> %s", testRun.Status, status)
	}
	if testRun.Status == status {
		return nil
	}
	testRun.Status = status
	if status == StatusRunning {
		testRun.StartedAt = &at
	} else if status.Terminal() {
		testRun.CompletedAt = &at
		testRun.ErrorMessage = errorMessage
	}
	return nil
}

func (g *memoryGateway) AppendResult(ctx context.Context, result *TestResult) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.appendErr != nil {
		return g.appendErr
	}
	for _, existing := range g.results[result.RunID] {
		if existing.Model == result.Model && existing.ItemID == result.ItemID {
			return fmt.Errorf("duplicate result for (%s, %s)", result.Model, result.ItemID)
		}
	}
	g.results[result.RunID] = append(g.results[result.RunID], *result)
	return nil
}

func (g *memoryGateway) GetRun(ctx context.Context, runID string) (*TestRun, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	testRun, ok := g.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	clone := *testRun
	return &clone, nil
}

func (g *memoryGateway) ListResults(ctx context.Context, runID string) ([]TestResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]TestResult(nil), g.results[runID]...), nil
}

// testConfig builds a valid RunConfig with the given model and item counts.
func testConfig(models, items int) RunConfig {
	cfg := RunConfig{
		Name:           "test run",
		PromptTemplate: "Produce JSON for: {{INPUT_DATA}}",
		Schema:         json.RawMessage(`{"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}}}`),
		SchemaStatus:   SchemaStatusApproved,
	}
	for i := 0; i < models; i++ {
		cfg.Models = append(cfg.Models, fmt.Sprintf("model-%d", i+1))
	}
	for i := 0; i < items; i++ {
		cfg.Items = append(cfg.Items, Item{
			ID:      fmt.Sprintf("item-%d", i+1),
			Content: json.RawMessage(fmt.Sprintf(`{"seq": %d}`, i+1)),
		})
	}
	return cfg
}

func strptr(s string) *string { return &s }
