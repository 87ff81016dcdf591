// internal/run/orchestrator.go
package run

import (
	"context"
	"sync"
	"time"

	"github.com/schemarena/schemarena/internal/prompt"
	"github.com/schemarena/schemarena/internal/providers"
	"github.com/schemarena/schemarena/internal/validation"
)

// Options tunes task execution for a run.
type Options struct {
	// Concurrency caps how many tasks may be in flight against the
	// completion client at once.
	Concurrency int
	// Temperature and MaxTokens are forwarded with every completion call.
	Temperature float64
	MaxTokens   int
}

// Orchestrator turns a run's model x item set into task outcomes. Every task
// gets exactly one completion call: repeated failures from a flaky provider
// are data, so there are no retries.
type Orchestrator struct {
	client providers.CompletionClient
	opts   Options
}

// NewOrchestrator returns an Orchestrator executing tasks through client.
func NewOrchestrator(client providers.CompletionClient, opts Options) *Orchestrator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 5
	}
	return &Orchestrator{client: client, opts: opts}
}

// BuildTasks enumerates the full model x item task set. Enumeration order is
// deterministic for reproducibility: outer loop over models, inner loop over
// items, each in configured order. Prompts are rendered later, inside the
// worker that executes the task.
func BuildTasks(testRun *TestRun) []TestTask {
	cfg := testRun.Config
	tasks := make([]TestTask, 0, cfg.ExpectedTasks())
	for _, model := range cfg.Models {
		for _, item := range cfg.Items {
			tasks = append(tasks, TestTask{
				RunID:  testRun.ID,
				Model:  model,
				ItemID: item.ID,
			})
		}
	}
	return tasks
}

// Run executes the run's task set under the concurrency cap and streams one
// outcome per started task into the returned channel, which is closed once
// every started task has finished.
//
// Cancelling ctx stops new tasks from being dispatched; tasks already in
// flight are not killed and either finish or hit their own per-call timeout.
// Outcomes of in-flight tasks are still emitted after cancellation, so a
// started task is never lost and never duplicated.
func (o *Orchestrator) Run(ctx context.Context, testRun *TestRun) <-chan TestResult {
	items := make(map[string]Item, len(testRun.Config.Items))
	for _, item := range testRun.Config.Items {
		items[item.ID] = item
	}

	tasks := make(chan TestTask)
	outcomes := make(chan TestResult)

	var wg sync.WaitGroup
	for i := 0; i < o.opts.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range tasks {
				outcomes <- o.execute(ctx, testRun, task, items[task.ItemID])
			}
		}()
	}

	go func() {
		defer close(tasks)
		for _, task := range BuildTasks(testRun) {
			select {
			case <-ctx.Done():
				return
			case tasks <- task:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	return outcomes
}

// execute performs one task: render, call the completion client, classify the
// output. Call failures become failure outcomes, never errors; a task's
// outcome must not disturb any other task.
func (o *Orchestrator) execute(ctx context.Context, testRun *TestRun, task TestTask, item Item) (result TestResult) {
	result = TestResult{
		RunID:     task.RunID,
		Model:     task.Model,
		ItemID:    task.ItemID,
		CreatedAt: time.Now().UTC(),
	}

	start := time.Now()
	defer func() {
		elapsed := float64(time.Since(start).Microseconds()) / 1000.0
		result.ExecutionMs = &elapsed
	}()

	rendered, err := prompt.Render(testRun.Config.PromptTemplate, item.Content)
	if err != nil {
		result.ParseStatus = false
		result.Compliance = validation.ComplianceNotApplicable
		msg := err.Error()
		result.ErrorMsg = &msg
		return result
	}
	task.Prompt = rendered

	// The call context is detached from run cancellation on purpose:
	// cancellation is cooperative and in-flight tasks are bounded by the
	// client's own per-call timeout instead of being cut off.
	completion, err := o.client.Complete(context.WithoutCancel(ctx), providers.CompletionRequest{
		Model:       task.Model,
		Prompt:      task.Prompt,
		Temperature: o.opts.Temperature,
		MaxTokens:   o.opts.MaxTokens,
	})
	if err != nil {
		result.ParseStatus = false
		result.Compliance = validation.ComplianceNotApplicable
		msg := err.Error()
		result.ErrorMsg = &msg
		return result
	}

	raw := completion.RawOutput
	result.RawOutput = &raw
	if completion.Usage != nil {
		tokens := completion.Usage.TotalTokens
		result.TokensUsed = &tokens
	}

	report := validation.Evaluate(raw, testRun.Config.Schema)
	result.ParseStatus = report.ParseStatus
	result.Compliance = report.Compliance
	result.Violations = report.Violations
	return result
}
