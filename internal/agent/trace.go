package agent

import (
	"github.com/remedybench/remedybench/internal/sim"
	"github.com/remedybench/remedybench/internal/tools"
)

// TraceStep records one dispatched tool call and its result. Steps are
// numbered by protocol turn (1-based); turns consumed by schema-violating
// replies produce no trace step.
type TraceStep struct {
	Step   int          `json:"step"`
	Call   tools.Call   `json:"call"`
	Result tools.Result `json:"result"`
}

// FinalState is the environment snapshot taken at finalization, both on
// normal completion and on early termination.
type FinalState struct {
	Deployments  map[string]int  `json:"deployments"` // replicas keyed "service/namespace"
	Ticket       sim.Ticket      `json:"ticket"`
	FeatureFlags map[string]bool `json:"feature_flags"`
	IncidentLog  []sim.LogEntry  `json:"incident_log"`
}

// Trace is the full execution record of one run: every dispatched call plus
// the final snapshot. The scoring engine consumes this and nothing else
// besides the environment.
type Trace struct {
	Steps []TraceStep `json:"tool_calls"`
	Final FinalState  `json:"final"`
}

// Snapshot captures the environment's current state.
func Snapshot(env *sim.Env) FinalState {
	final := FinalState{
		Deployments:  make(map[string]int, len(env.Deployments)),
		Ticket:       env.Ticket,
		FeatureFlags: make(map[string]bool, len(env.FeatureFlags)),
		IncidentLog:  make([]sim.LogEntry, len(env.IncidentLog)),
	}
	for key, dep := range env.Deployments {
		final.Deployments[key] = dep.Replicas
	}
	for name, enabled := range env.FeatureFlags {
		final.FeatureFlags[name] = enabled
	}
	copy(final.IncidentLog, env.IncidentLog)
	return final
}
