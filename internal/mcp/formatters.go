package mcp

import (
	"fmt"
	"strings"

	gh "github.com/google/go-github/v68/github"
)

// Run status indicators.
const (
	IndicatorSuccess = "✅"
	IndicatorFailure = "❌"
	IndicatorRunning = "🔄"
)

const noRecentBuilds = "No recent builds found."

func formatDispatched(ref, optLevel string) string {
	return fmt.Sprintf("🚀 DISPATCHED: Building Haswell Speed Kernel (CachyOS/BORE/%s) on branch '%s'.\nCheck status with '%s'.",
		optLevel, ref, OpCheckBuildStatus)
}

// formatRuns renders runs as blank-line separated blocks, keeping input order.
func formatRuns(runs []*gh.WorkflowRun) string {
	if len(runs) == 0 {
		return noRecentBuilds
	}
	blocks := make([]string, 0, len(runs))
	for _, run := range runs {
		blocks = append(blocks, formatRun(run))
	}
	return strings.Join(blocks, "\n\n")
}

func formatRun(run *gh.WorkflowRun) string {
	conclusion := run.GetConclusion()
	if conclusion == "" {
		conclusion = "Running..."
	}
	return fmt.Sprintf("%s [%s] %s #%d\n   Conclusion: %s\n   Link: %s",
		runIndicator(run), run.GetStatus(), run.GetName(), run.GetRunNumber(), conclusion, run.GetHTMLURL())
}

// runIndicator distinguishes completed+success, completed+other and unfinished runs.
func runIndicator(run *gh.WorkflowRun) string {
	if run.GetStatus() != "completed" {
		return IndicatorRunning
	}
	if run.GetConclusion() == "success" {
		return IndicatorSuccess
	}
	return IndicatorFailure
}
