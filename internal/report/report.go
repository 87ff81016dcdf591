// internal/report/report.go
// Package report renders run status, per-model summaries, and model listings
// for terminal output.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/schemarena/schemarena/internal/providers"
	"github.com/schemarena/schemarena/internal/run"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	faintStyle  = lipgloss.NewStyle().Faint(true)
	headerStyle = lipgloss.NewStyle().Bold(true)

	passMark = color.New(color.FgGreen).SprintFunc()
	failMark = color.New(color.FgRed).SprintFunc()
	warnMark = color.New(color.FgYellow).SprintFunc()
)

// RenderRun formats a run's lifecycle state and progress for the status
// command.
func RenderRun(testRun *run.TestRun, results []run.TestResult) string {
	var builder strings.Builder

	builder.WriteString(titleStyle.Render(fmt.Sprintf("Run %s", testRun.ID)) + "\n")
	builder.WriteString(labelStyle.Render("Name:    ") + testRun.Name + "\n")
	builder.WriteString(labelStyle.Render("Status:  ") + renderStatus(testRun.Status) + "\n")
	builder.WriteString(labelStyle.Render("Tasks:   ") + fmt.Sprintf("%d of %d recorded\n", len(results), testRun.ExpectedTasks))
	builder.WriteString(labelStyle.Render("Created: ") + testRun.CreatedAt.Format("2006-01-02 15:04:05") + "\n")
	if testRun.StartedAt != nil {
		builder.WriteString(labelStyle.Render("Started: ") + testRun.StartedAt.Format("2006-01-02 15:04:05") + "\n")
	}
	if testRun.CompletedAt != nil {
		builder.WriteString(labelStyle.Render("Ended:   ") + testRun.CompletedAt.Format("2006-01-02 15:04:05") + "\n")
	}
	if testRun.ErrorMessage != "" {
		builder.WriteString(labelStyle.Render("Error:   ") + failMark(testRun.ErrorMessage) + "\n")
	}

	return builder.String()
}

// RenderSummary formats the per-model aggregation table.
func RenderSummary(summary *run.RunSummary) string {
	var builder strings.Builder

	builder.WriteString(titleStyle.Render(fmt.Sprintf("Summary for %s (%s)", summary.RunName, summary.RunID)) + "\n")
	builder.WriteString(labelStyle.Render(fmt.Sprintf("Total tasks: %d", summary.TotalTasks)) + "\n\n")

	if len(summary.Models) == 0 {
		builder.WriteString(faintStyle.Render("No results recorded yet.") + "\n")
		return builder.String()
	}

	modelWidth := len("MODEL")
	for _, m := range summary.Models {
		if len(m.Model) > modelWidth {
			modelWidth = len(m.Model)
		}
	}

	builder.WriteString(headerStyle.Render(fmt.Sprintf("%-*s  %5s  %6s  %9s  %10s  %8s  %7s",
		modelWidth, "MODEL", "TASKS", "PARSED", "COMPLIANT", "COMPLIANCE", "AVG MS", "TOKENS")) + "\n")

	for _, m := range summary.Models {
		compliance := formatPercent(m.CompliancePercent)
		avgMs := formatFloat(m.AvgExecutionMs)
		tokens := formatInt(m.TotalTokens)

		builder.WriteString(fmt.Sprintf("%-*s  %5d  %6d  %9d  %10s  %8s  %7s\n",
			modelWidth, m.Model, m.TotalTasks, m.SuccessfulParses, m.Compliant,
			compliance, avgMs, tokens))
	}

	return builder.String()
}

// RenderModels formats the models advertised by the completion service.
func RenderModels(models []providers.Model) string {
	var builder strings.Builder

	builder.WriteString(titleStyle.Render("Available models") + "\n")
	if len(models) == 0 {
		builder.WriteString(faintStyle.Render("The completion service advertises no models.") + "\n")
		return builder.String()
	}

	for _, m := range models {
		builder.WriteString(labelStyle.Render(m.ID))
		if m.Name != "" && m.Name != m.ID {
			builder.WriteString("  " + m.Name)
		}
		if m.Description != "" {
			builder.WriteString("  " + faintStyle.Render(m.Description))
		}
		builder.WriteString("\n")
	}

	return builder.String()
}

func renderStatus(status run.Status) string {
	switch status {
	case run.StatusCompleted:
		return passMark(string(status))
	case run.StatusFailed:
		return failMark(string(status))
	case run.StatusRunning:
		return warnMark(string(status))
	default:
		return string(status)
	}
}

func formatPercent(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", *v)
}

func formatFloat(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

func formatInt(v *int) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%d", *v)
}
