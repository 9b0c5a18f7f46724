package eval

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/remedybench/remedybench/internal/scoring"
	"github.com/remedybench/remedybench/internal/sim"
	"github.com/remedybench/remedybench/internal/tools"
)

// Scenario is one evaluation unit: an incident prompt, the initial
// environment, and the acceptance criteria the end state is judged against.
type Scenario struct {
	ID           int              `json:"id"`
	Prompt       string           `json:"user_prompt"`
	InitialState sim.InitialState `json:"initial_state"`
	Acceptance   scoring.Criteria `json:"acceptance_criteria"`
}

// GroundTruth maps scenario ids (as strings, matching the fixture format) to
// the recorded tool-call sequence that solves them.
type GroundTruth map[string][]tools.Call

// LoadScenarios reads the scenario fixture file.
func LoadScenarios(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios: %w", err)
	}
	var scenarios []Scenario
	if err := json.Unmarshal(data, &scenarios); err != nil {
		return nil, fmt.Errorf("failed to parse scenarios %s: %w", path, err)
	}
	return scenarios, nil
}

// LoadGroundTruth reads the recorded ground-truth sequences.
func LoadGroundTruth(path string) (GroundTruth, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ground truth: %w", err)
	}
	var gt GroundTruth
	if err := json.Unmarshal(data, &gt); err != nil {
		return nil, fmt.Errorf("failed to parse ground truth %s: %w", path, err)
	}
	return gt, nil
}

// Evaluation variants.
const (
	VariantGroundTruth = "ground-truth"
	VariantBaseline    = "baseline"
	VariantImproved    = "improved"
)

// LoadVariantPrompt returns the variant's system prompt text. A missing
// prompt file is tolerated and yields an empty prompt.
func LoadVariantPrompt(promptsDir, variant string) string {
	name := "baseline.txt"
	if variant == VariantImproved {
		name = "improved.txt"
	}
	data, err := os.ReadFile(filepath.Join(promptsDir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
