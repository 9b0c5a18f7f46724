// Package scoring evaluates a finished run: binary acceptance against
// scenario criteria, a technical-success variant that ignores ticket
// administration, trace-derived partial-credit signals, and the weighted
// composite score.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/remedybench/remedybench/internal/agent"
	"github.com/remedybench/remedybench/internal/sim"
	"github.com/remedybench/remedybench/internal/tools"
)

// DeploymentCriterion requires a deployment to exist with a replica floor.
type DeploymentCriterion struct {
	Service     string `json:"service"`
	Namespace   string `json:"namespace"`
	ReplicasGTE *int   `json:"replicas_gte,omitempty"`
}

// Criteria are a scenario's acceptance conditions. Every field is optional;
// an omitted condition is vacuously satisfied.
type Criteria struct {
	Deployment          *DeploymentCriterion `json:"deployment,omitempty"`
	IncidentLogContains string               `json:"incident_log_contains,omitempty"`
	TicketStatus        sim.TicketStatus     `json:"ticket_status,omitempty"`
}

// Check is the outcome of an acceptance or technical-success evaluation.
// Each unmet condition contributes one human-readable reason.
type Check struct {
	Valid   bool     `json:"valid"`
	Reasons []string `json:"reasons"`
}

// CheckAcceptance verifies every specified criterion against the final
// environment state.
func CheckAcceptance(env *sim.Env, criteria Criteria) Check {
	ok, reasons := checkRemediation(env, criteria)

	if criteria.TicketStatus != "" && env.Ticket.Status != criteria.TicketStatus {
		ok = false
		reasons = append(reasons, fmt.Sprintf("ticket status %s != %s", env.Ticket.Status, criteria.TicketStatus))
	}

	return Check{Valid: ok, Reasons: reasons}
}

// CheckTechnicalSuccess is acceptance minus the ticket-status condition: it
// isolates "did the agent fix and document the problem" from the
// administrative ticket workflow, which is scored separately.
func CheckTechnicalSuccess(env *sim.Env, criteria Criteria) Check {
	ok, reasons := checkRemediation(env, criteria)
	return Check{Valid: ok, Reasons: reasons}
}

func checkRemediation(env *sim.Env, criteria Criteria) (bool, []string) {
	ok := true
	reasons := []string{}

	if dep := criteria.Deployment; dep != nil {
		found, exists := env.Deployment(dep.Service, dep.Namespace)
		switch {
		case !exists:
			ok = false
			reasons = append(reasons, fmt.Sprintf("missing deployment %s:%s", dep.Service, dep.Namespace))
		case dep.ReplicasGTE != nil && found.Replicas < *dep.ReplicasGTE:
			ok = false
			reasons = append(reasons, fmt.Sprintf("replicas %d < %d", found.Replicas, *dep.ReplicasGTE))
		}
	}

	if criteria.IncidentLogContains != "" && !logContains(env.IncidentLog, criteria.IncidentLogContains) {
		ok = false
		reasons = append(reasons, "incident log missing required message")
	}

	return ok, reasons
}

func logContains(entries []sim.LogEntry, substr string) bool {
	for _, entry := range entries {
		if strings.Contains(entry.Message, substr) {
			return true
		}
	}
	return false
}

// Signals are the partial-credit behaviors derived from the trace alone.
type Signals struct {
	// ToolSyntaxOK is true unless some call failed argument validation.
	// Resource errors (unknown deployment) do not count against it.
	ToolSyntaxOK bool `json:"tool_syntax_ok"`

	// VerificationPerformed is true when a metrics query follows at least
	// one successful mutating action. A query before any action does not
	// count. Any prior action qualifies, not only one against the queried
	// service.
	VerificationPerformed bool `json:"verification_performed"`

	// IncidentLogged / TicketUpdated record that the operation was invoked
	// at all, regardless of its result.
	IncidentLogged bool `json:"incident_logged"`
	TicketUpdated  bool `json:"ticket_updated"`
}

// PartialCredit computes the trace-derived signals.
func PartialCredit(trace *agent.Trace) Signals {
	signals := Signals{ToolSyntaxOK: true}

	didAction := false
	for _, step := range trace.Steps {
		if step.Result.Class == tools.ErrorArgument {
			signals.ToolSyntaxOK = false
		}
		switch step.Call.Name {
		case tools.ToolLogIncident:
			signals.IncidentLogged = true
		case tools.ToolUpdateTicket:
			signals.TicketUpdated = true
		case tools.ToolQueryMetrics:
			if didAction {
				signals.VerificationPerformed = true
			}
		}
		if tools.IsMutating(step.Call.Name) && step.Result.OK {
			didAction = true
		}
	}

	return signals
}

// Composite score weights. Each signal earns its full weight or nothing.
const (
	WeightTechnicalTask  = 0.60
	WeightTicketUpdated  = 0.15
	WeightIncidentLogged = 0.15
	WeightVerification   = 0.05
	WeightToolSyntax     = 0.05
)

// Breakdown reports each weighted component as a percentage.
type Breakdown struct {
	TechnicalTask  float64 `json:"technical_task"`
	TicketUpdated  float64 `json:"ticket_updated"`
	IncidentLogged float64 `json:"incident_logged"`
	Verification   float64 `json:"verification"`
	ToolSyntax     float64 `json:"tool_syntax"`
}

// Score is the weighted composite, reported as a percentage of 100.
type Score struct {
	Total     float64   `json:"total_score"`
	Max       float64   `json:"max_score"`
	Breakdown Breakdown `json:"breakdown"`
}

// WeightedScore combines technical success and the partial-credit signals.
func WeightedScore(technical Check, signals Signals) Score {
	breakdown := Breakdown{
		TechnicalTask:  component(technical.Valid, WeightTechnicalTask),
		TicketUpdated:  component(signals.TicketUpdated, WeightTicketUpdated),
		IncidentLogged: component(signals.IncidentLogged, WeightIncidentLogged),
		Verification:   component(signals.VerificationPerformed, WeightVerification),
		ToolSyntax:     component(signals.ToolSyntaxOK, WeightToolSyntax),
	}
	total := breakdown.TechnicalTask + breakdown.TicketUpdated +
		breakdown.IncidentLogged + breakdown.Verification + breakdown.ToolSyntax
	return Score{
		Total:     round1(total),
		Max:       100.0,
		Breakdown: breakdown,
	}
}

func component(earned bool, weight float64) float64 {
	if !earned {
		return 0
	}
	return round1(weight * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
