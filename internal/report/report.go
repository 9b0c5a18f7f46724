// Package report persists batch results and renders the Markdown summary.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/remedybench/remedybench/internal/eval"
)

// Results maps variant name to that variant's runs.
type Results map[string]eval.VariantResult

// WriteJSON writes the full result set as indented JSON, creating parent
// directories as needed.
func WriteJSON(path string, results Results) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}

// Summary holds the aggregate statistics for one variant.
type Summary struct {
	Total            int
	Passed           int
	TechnicalPassed  int
	AverageScore     float64
	SignalCounts     map[string]int
	AverageBreakdown map[string]float64
}

// Signal and breakdown keys in reporting order.
var (
	signalKeys    = []string{"tool_syntax_ok", "verification_performed", "incident_logged", "ticket_updated"}
	breakdownKeys = []string{"technical_task", "ticket_updated", "incident_logged", "verification", "tool_syntax"}
)

// Summarize computes aggregate statistics over a variant's runs.
func Summarize(variant eval.VariantResult) Summary {
	s := Summary{
		SignalCounts:     make(map[string]int, len(signalKeys)),
		AverageBreakdown: make(map[string]float64, len(breakdownKeys)),
	}
	s.Total = len(variant.Runs)

	var scoreSum float64
	breakdownSums := make(map[string]float64, len(breakdownKeys))
	for _, run := range variant.Runs {
		if run.Valid {
			s.Passed++
		}
		if run.TechnicalSuccess {
			s.TechnicalPassed++
		}
		scoreSum += run.Weighted.Total

		if run.Partial.ToolSyntaxOK {
			s.SignalCounts["tool_syntax_ok"]++
		}
		if run.Partial.VerificationPerformed {
			s.SignalCounts["verification_performed"]++
		}
		if run.Partial.IncidentLogged {
			s.SignalCounts["incident_logged"]++
		}
		if run.Partial.TicketUpdated {
			s.SignalCounts["ticket_updated"]++
		}

		breakdownSums["technical_task"] += run.Weighted.Breakdown.TechnicalTask
		breakdownSums["ticket_updated"] += run.Weighted.Breakdown.TicketUpdated
		breakdownSums["incident_logged"] += run.Weighted.Breakdown.IncidentLogged
		breakdownSums["verification"] += run.Weighted.Breakdown.Verification
		breakdownSums["tool_syntax"] += run.Weighted.Breakdown.ToolSyntax
	}

	if s.Total > 0 {
		s.AverageScore = scoreSum / float64(s.Total)
		for _, key := range breakdownKeys {
			s.AverageBreakdown[key] = breakdownSums[key] / float64(s.Total)
		}
	}
	return s
}

// WriteMarkdown renders the per-variant summary report.
func WriteMarkdown(path string, results Results) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}
	return os.WriteFile(path, []byte(RenderMarkdown(results)), 0o644)
}

// RenderMarkdown builds the Markdown summary for all variants.
func RenderMarkdown(results Results) string {
	variants := make([]string, 0, len(results))
	for name := range results {
		variants = append(variants, name)
	}
	sort.Strings(variants)

	var b strings.Builder
	b.WriteString("# Evaluation Results\n\n")

	for _, name := range variants {
		s := Summarize(results[name])
		fmt.Fprintf(&b, "## %s\n", name)
		fmt.Fprintf(&b, "**Full Pass Rate**: %d/%d (%d%%)\n", s.Passed, s.Total, percent(s.Passed, s.Total))
		fmt.Fprintf(&b, "**Technical Success Rate**: %d/%d (%d%%)\n", s.TechnicalPassed, s.Total, percent(s.TechnicalPassed, s.Total))
		fmt.Fprintf(&b, "**Average Score**: %.1f/100.0\n\n", s.AverageScore)

		if s.Total > 0 {
			b.WriteString("### Component Performance:\n")
			for _, key := range signalKeys {
				count := s.SignalCounts[key]
				fmt.Fprintf(&b, "- %s: %d/%d (%d%%)\n", key, count, s.Total, percent(count, s.Total))
			}
			b.WriteString("\n### Average Score Breakdown:\n")
			for _, key := range breakdownKeys {
				fmt.Fprintf(&b, "- %s: %.1f%%\n", key, s.AverageBreakdown[key])
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func percent(count, total int) int {
	if total == 0 {
		return 0
	}
	return 100 * count / total
}
