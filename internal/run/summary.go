// internal/run/summary.go
package run

import (
	"math"
	"sort"

	"github.com/schemarena/schemarena/internal/validation"
)

// ModelSummary is the aggregate statistics for one model within a run.
// Metrics with no underlying data are nil, never zero: "no data" must stay
// distinguishable from "0%".
type ModelSummary struct {
	Model             string   `json:"target_model_id"`
	TotalTasks        int      `json:"total_tasks"`
	SuccessfulParses  int      `json:"successful_parses"`
	Compliant         int      `json:"schema_compliant"`
	CompliancePercent *float64 `json:"compliance_percentage"`
	AvgExecutionMs    *float64 `json:"average_execution_time_ms"`
	TotalTokens       *int     `json:"total_tokens"`
}

// RunSummary is the derived, never-persisted aggregate view of a run.
type RunSummary struct {
	RunID      string         `json:"run_id"`
	RunName    string         `json:"run_name,omitempty"`
	TotalTasks int            `json:"total_tasks"`
	Models     []ModelSummary `json:"models"`
}

// Summarize computes per-model statistics over a run's persisted results. It
// is a pure function over the result set and independent of result order.
func Summarize(testRun *TestRun, results []TestResult) RunSummary {
	summary := RunSummary{}
	if testRun != nil {
		summary.RunID = testRun.ID
		summary.RunName = testRun.Name
	}

	type tally struct {
		total      int
		parses     int
		compliant  int
		execMsSum  float64
		execCount  int
		tokenSum   int
		tokenCount int
	}
	tallies := make(map[string]*tally)

	for _, result := range results {
		entry := tallies[result.Model]
		if entry == nil {
			entry = &tally{}
			tallies[result.Model] = entry
		}
		entry.total++
		if result.ParseStatus {
			entry.parses++
		}
		if result.Compliance == validation.CompliancePass {
			entry.compliant++
		}
		if result.ExecutionMs != nil {
			entry.execMsSum += *result.ExecutionMs
			entry.execCount++
		}
		if result.TokensUsed != nil {
			entry.tokenSum += *result.TokensUsed
			entry.tokenCount++
		}
	}

	models := make([]ModelSummary, 0, len(tallies))
	for model, entry := range tallies {
		ms := ModelSummary{
			Model:            model,
			TotalTasks:       entry.total,
			SuccessfulParses: entry.parses,
			Compliant:        entry.compliant,
		}
		if entry.total > 0 {
			pct := round2(100 * float64(entry.compliant) / float64(entry.total))
			ms.CompliancePercent = &pct
		}
		if entry.execCount > 0 {
			avg := round2(entry.execMsSum / float64(entry.execCount))
			ms.AvgExecutionMs = &avg
		}
		if entry.tokenCount > 0 {
			total := entry.tokenSum
			ms.TotalTokens = &total
		}
		summary.TotalTasks += entry.total
		models = append(models, ms)
	}

	sort.Slice(models, func(i, j int) bool { return models[i].Model < models[j].Model })
	summary.Models = models
	return summary
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
