package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remedybench/remedybench/internal/eval"
	"github.com/remedybench/remedybench/internal/scoring"
)

func passingRun(id int) eval.RunResult {
	return eval.RunResult{
		RunID:            "run-pass",
		ScenarioID:       id,
		Valid:            true,
		TechnicalSuccess: true,
		Reasons:          []string{},
		Partial: scoring.Signals{
			ToolSyntaxOK:          true,
			VerificationPerformed: true,
			IncidentLogged:        true,
			TicketUpdated:         true,
		},
		Weighted: scoring.WeightedScore(
			scoring.Check{Valid: true},
			scoring.Signals{ToolSyntaxOK: true, VerificationPerformed: true, IncidentLogged: true, TicketUpdated: true},
		),
	}
}

func failingRun(id int) eval.RunResult {
	return eval.RunResult{
		RunID:      "run-fail",
		ScenarioID: id,
		Reasons:    []string{"replicas 2 < 5"},
		Partial:    scoring.Signals{ToolSyntaxOK: true},
		Weighted:   scoring.WeightedScore(scoring.Check{}, scoring.Signals{ToolSyntaxOK: true}),
	}
}

func TestSummarize(t *testing.T) {
	variant := eval.VariantResult{Runs: []eval.RunResult{passingRun(1), failingRun(2)}}
	s := Summarize(variant)

	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.Passed)
	assert.Equal(t, 1, s.TechnicalPassed)
	assert.InDelta(t, 52.5, s.AverageScore, 0.01) // (100 + 5) / 2

	assert.Equal(t, 2, s.SignalCounts["tool_syntax_ok"])
	assert.Equal(t, 1, s.SignalCounts["verification_performed"])
	assert.Equal(t, 1, s.SignalCounts["incident_logged"])
	assert.Equal(t, 1, s.SignalCounts["ticket_updated"])

	assert.InDelta(t, 30.0, s.AverageBreakdown["technical_task"], 0.01)
	assert.InDelta(t, 5.0, s.AverageBreakdown["tool_syntax"], 0.01)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(eval.VariantResult{})
	assert.Equal(t, 0, s.Total)
	assert.Equal(t, 0.0, s.AverageScore)
}

func TestRenderMarkdown(t *testing.T) {
	results := Results{
		"ground_truth": {Runs: []eval.RunResult{passingRun(1), failingRun(2), failingRun(3)}},
	}

	md := RenderMarkdown(results)
	assert.Contains(t, md, "# Evaluation Results")
	assert.Contains(t, md, "## ground_truth")
	assert.Contains(t, md, "**Full Pass Rate**: 1/3 (33%)")
	assert.Contains(t, md, "**Technical Success Rate**: 1/3 (33%)")
	assert.Contains(t, md, "**Average Score**: 36.7/100.0")
	assert.Contains(t, md, "- tool_syntax_ok: 3/3 (100%)")
	assert.Contains(t, md, "- ticket_updated: 1/3 (33%)")
	assert.Contains(t, md, "### Average Score Breakdown:")
	assert.Contains(t, md, "- technical_task: 20.0%")
}

func TestRenderMarkdownSortsVariants(t *testing.T) {
	results := Results{
		"improved": {},
		"baseline": {},
	}
	md := RenderMarkdown(results)
	assert.Less(t, strings.Index(md, "## baseline"), strings.Index(md, "## improved"))
}

func TestWriteJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.json")
	results := Results{"ground_truth": {Runs: []eval.RunResult{passingRun(1)}}}

	require.NoError(t, WriteJSON(path, results))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Results
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded["ground_truth"].Runs, 1)
	assert.Equal(t, 100.0, decoded["ground_truth"].Runs[0].Weighted.Total)
}

func TestWriteMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.md")
	require.NoError(t, WriteMarkdown(path, Results{"baseline": {}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "## baseline")
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, percent(0, 0))
	assert.Equal(t, 50, percent(1, 2))
	assert.Equal(t, 33, percent(1, 3))
	assert.Equal(t, 100, percent(3, 3))
}
