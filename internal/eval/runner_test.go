package eval

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remedybench/remedybench/internal/chat"
	"github.com/remedybench/remedybench/internal/scoring"
	"github.com/remedybench/remedybench/internal/sim"
	"github.com/remedybench/remedybench/internal/tools"
)

// stubProvider replays canned completions and records request history.
type stubProvider struct {
	replies  []string
	next     int
	err      error
	requests []chat.ChatRequest
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Chat(_ context.Context, req chat.ChatRequest) (*chat.ChatResponse, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	if s.next >= len(s.replies) {
		return &chat.ChatResponse{Content: `{"final_answer": "done"}`, StopReason: "stop"}, nil
	}
	content := s.replies[s.next]
	s.next++
	return &chat.ChatResponse{Content: content, StopReason: "stop"}, nil
}

func intPtr(v int) *int { return &v }

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func testScenario(id int) Scenario {
	return Scenario{
		ID:     id,
		Prompt: "checkout-service error rate is climbing, mitigate it",
		InitialState: sim.InitialState{
			Deployments: []sim.InitialDeployment{
				{Service: "checkout-service", Namespace: "prod", Replicas: 2},
			},
			Ticket: &sim.InitialTicket{Status: sim.TicketOpen},
		},
		Acceptance: scoring.Criteria{
			Deployment:          &scoring.DeploymentCriterion{Service: "checkout-service", Namespace: "prod", ReplicasGTE: intPtr(5)},
			IncidentLogContains: "scaled checkout-service",
			TicketStatus:        sim.TicketMitigated,
		},
	}
}

func fullSequence() []tools.Call {
	return []tools.Call{
		{Name: tools.ToolScaleDeployment, Arguments: map[string]any{"service": "checkout-service", "namespace": "prod", "replicas": 6}},
		{Name: tools.ToolQueryMetrics, Arguments: map[string]any{"service": "checkout-service", "namespace": "prod", "metric": "error_rate", "minutes": 15}},
		{Name: tools.ToolLogIncident, Arguments: map[string]any{"message": "scaled checkout-service to mitigate error rate", "severity": "warning"}},
		{Name: tools.ToolUpdateTicket, Arguments: map[string]any{"status": "mitigated", "note": "scaled to 6 replicas"}},
	}
}

func TestRunGroundTruth(t *testing.T) {
	config := DefaultConfig()
	config.Limit = 0
	runner := NewRunner(config, nil)

	scenarios := []Scenario{testScenario(1)}
	gt := GroundTruth{"1": fullSequence()}

	result := runner.RunGroundTruth(context.Background(), scenarios, gt)
	require.Len(t, result.Runs, 1)

	run := result.Runs[0]
	assert.NotEmpty(t, run.RunID)
	assert.Equal(t, 1, run.ScenarioID)
	assert.True(t, run.Valid)
	assert.True(t, run.TechnicalSuccess)
	assert.Empty(t, run.Reasons)
	assert.Empty(t, run.Error)
	assert.Equal(t, 100.0, run.Weighted.Total)

	assert.True(t, run.Partial.ToolSyntaxOK)
	assert.True(t, run.Partial.VerificationPerformed)
	assert.True(t, run.Partial.IncidentLogged)
	assert.True(t, run.Partial.TicketUpdated)

	require.NotNil(t, run.Trace)
	assert.Len(t, run.Trace.Steps, 4)
	assert.Equal(t, 6, run.Trace.Final.Deployments["checkout-service/prod"])
}

func TestRunGroundTruthPartialSequence(t *testing.T) {
	config := DefaultConfig()
	config.Limit = 0
	runner := NewRunner(config, nil)

	// Scale only: technical fails on the log criterion, syntax alone scores.
	gt := GroundTruth{"1": {
		{Name: tools.ToolScaleDeployment, Arguments: map[string]any{"service": "checkout-service", "namespace": "prod", "replicas": 6}},
	}}

	result := runner.RunGroundTruth(context.Background(), []Scenario{testScenario(1)}, gt)
	require.Len(t, result.Runs, 1)

	run := result.Runs[0]
	assert.False(t, run.Valid)
	assert.False(t, run.TechnicalSuccess)
	assert.Equal(t, 5.0, run.Weighted.Total)
	assert.Contains(t, run.Reasons, "incident log missing required message")
	assert.Contains(t, run.TechnicalReasons, "incident log missing required message")

	// Acceptance additionally faults the ticket; technical success does not.
	assert.Contains(t, run.Reasons, "ticket status open != mitigated")
	assert.NotContains(t, run.TechnicalReasons, "ticket status open != mitigated")
}

func TestRunBatchLimit(t *testing.T) {
	config := DefaultConfig()
	config.Limit = 1
	runner := NewRunner(config, nil)

	scenarios := []Scenario{testScenario(1), testScenario(2), testScenario(3)}
	gt := GroundTruth{"1": fullSequence()}

	result := runner.RunGroundTruth(context.Background(), scenarios, gt)
	require.Len(t, result.Runs, 1)
	assert.Equal(t, 1, result.Runs[0].ScenarioID)
}

func TestRunBatchParallel(t *testing.T) {
	config := DefaultConfig()
	config.Limit = 0
	config.Parallel = true
	runner := NewRunner(config, nil)

	scenarios := []Scenario{testScenario(1), testScenario(2)}
	gt := GroundTruth{"1": fullSequence(), "2": fullSequence()}

	result := runner.RunGroundTruth(context.Background(), scenarios, gt)
	require.Len(t, result.Runs, 2)

	// Results keep scenario order regardless of completion order.
	assert.Equal(t, 1, result.Runs[0].ScenarioID)
	assert.Equal(t, 2, result.Runs[1].ScenarioID)
	for _, run := range result.Runs {
		assert.True(t, run.Valid)
		assert.Equal(t, 100.0, run.Weighted.Total)
	}
}

func TestRunVariantLive(t *testing.T) {
	provider := &stubProvider{replies: []string{
		`{"tool_call": {"name": "scale_deployment", "arguments": {"service": "checkout-service", "namespace": "prod", "replicas": 6}}}`,
		`{"tool_call": {"name": "query_metrics", "arguments": {"service": "checkout-service", "namespace": "prod", "metric": "error_rate", "minutes": 15}}}`,
		`{"tool_call": {"name": "log_incident", "arguments": {"message": "scaled checkout-service", "severity": "warning"}}}`,
		`{"tool_call": {"name": "update_ticket", "arguments": {"status": "mitigated", "note": "done"}}}`,
		`{"final_answer": "incident mitigated"}`,
	}}

	config := DefaultConfig()
	config.Limit = 0
	config.Model = "openai/gpt-4o-mini"
	config.PromptsDir = t.TempDir() // missing prompt files are tolerated
	runner := NewRunner(config, provider)

	result := runner.RunVariant(context.Background(), []Scenario{testScenario(1)}, VariantBaseline)
	require.Len(t, result.Runs, 1)

	run := result.Runs[0]
	assert.True(t, run.Valid)
	assert.Equal(t, 100.0, run.Weighted.Total)
	assert.Len(t, run.Trace.Steps, 4)

	// The live conversation starts with the tool advertisement.
	require.NotEmpty(t, provider.requests)
	first := provider.requests[0]
	assert.Equal(t, "openai/gpt-4o-mini", first.Model)
	require.GreaterOrEqual(t, len(first.Messages), 2)
	assert.Equal(t, "system", first.Messages[0].Role)
	assert.Contains(t, first.Messages[0].Content, "TOOLS AVAILABLE")
	assert.Equal(t, "checkout-service error rate is climbing, mitigate it", first.Messages[len(first.Messages)-1].Content)
}

func TestRunVariantProviderFailureIsContained(t *testing.T) {
	provider := &stubProvider{err: errors.New("connection refused")}

	config := DefaultConfig()
	config.Limit = 0
	config.PromptsDir = t.TempDir()
	runner := NewRunner(config, provider)

	scenarios := []Scenario{testScenario(1), testScenario(2)}
	result := runner.RunVariant(context.Background(), scenarios, VariantBaseline)

	// Both scenarios ran; each recorded its failure and scored zero.
	require.Len(t, result.Runs, 2)
	for _, run := range result.Runs {
		assert.Contains(t, run.Error, "connection refused")
		assert.False(t, run.Valid)
		assert.Equal(t, 0.0, run.Weighted.Total)
		require.NotNil(t, run.Trace)
		assert.Empty(t, run.Trace.Steps)
	}
}

func TestLoadVariantPrompt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writeFile(filepath.Join(dir, "baseline.txt"), "be an operator\n"))
	require.NoError(t, writeFile(filepath.Join(dir, "improved.txt"), "follow the process\n"))

	assert.Equal(t, "be an operator", LoadVariantPrompt(dir, VariantBaseline))
	assert.Equal(t, "follow the process", LoadVariantPrompt(dir, VariantImproved))
	assert.Equal(t, "", LoadVariantPrompt(t.TempDir(), VariantBaseline))
}

func TestShippedFixtures(t *testing.T) {
	dataDir := filepath.Join("..", "..", "data")

	scenarios, err := LoadScenarios(filepath.Join(dataDir, "scenarios.json"))
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	gt, err := LoadGroundTruth(filepath.Join(dataDir, "ground_truth.json"))
	require.NoError(t, err)

	config := DefaultConfig()
	config.Limit = 0
	runner := NewRunner(config, nil)

	// Every shipped ground-truth sequence must fully satisfy its scenario.
	result := runner.RunGroundTruth(context.Background(), scenarios, gt)
	require.Len(t, result.Runs, len(scenarios))
	for _, run := range result.Runs {
		assert.Truef(t, run.Valid, "scenario %d failed: %v", run.ScenarioID, run.Reasons)
		assert.Equalf(t, 100.0, run.Weighted.Total, "scenario %d scored %.1f", run.ScenarioID, run.Weighted.Total)
	}
}
