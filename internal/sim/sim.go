// Package sim holds the in-memory simulated environment that remediation
// scenarios run against. The environment is built once per run from a
// scenario's initial state and mutated exclusively through the tool registry;
// nothing in here performs I/O or talks to real infrastructure.
package sim

import (
	"fmt"
	"time"
)

// DefaultSeed is the synthetic-randomness seed used when a scenario does not
// provide one. Fixtures are recorded against this value.
const DefaultSeed int64 = 42

// TicketStatus is the workflow state of the run's incident ticket.
type TicketStatus string

const (
	TicketOpen          TicketStatus = "open"
	TicketInvestigating TicketStatus = "investigating"
	TicketMitigated     TicketStatus = "mitigated"
	TicketResolved      TicketStatus = "resolved"
)

// ValidTicketStatus reports whether s is one of the four ticket states.
func ValidTicketStatus(s TicketStatus) bool {
	switch s {
	case TicketOpen, TicketInvestigating, TicketMitigated, TicketResolved:
		return true
	}
	return false
}

// Severity classifies incident log entries.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// ValidSeverity reports whether s is a recognized log severity.
func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return true
	}
	return false
}

// Deployment is a simulated workload, uniquely identified by
// (service, namespace).
type Deployment struct {
	Service     string     `json:"service"`
	Namespace   string     `json:"namespace"`
	Replicas    int        `json:"replicas"`
	RestartedAt *time.Time `json:"restarted_at,omitempty"`
}

// Key returns the deployment's unique "service/namespace" key.
func (d Deployment) Key() string {
	return DeploymentKey(d.Service, d.Namespace)
}

// DeploymentKey builds the map key for a (service, namespace) pair.
func DeploymentKey(service, namespace string) string {
	return fmt.Sprintf("%s/%s", service, namespace)
}

// Ticket is the single incident ticket owned by an environment.
type Ticket struct {
	Status TicketStatus `json:"status"`
	Note   string       `json:"note"`
}

// LogEntry is one append-only incident log record. Entries are never mutated
// or removed after append; this is the audit trail the scoring engine reads.
type LogEntry struct {
	Timestamp time.Time `json:"ts"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
}

// InitialState describes how a scenario seeds its environment.
type InitialState struct {
	Deployments  []InitialDeployment `json:"deployments"`
	FeatureFlags map[string]bool     `json:"feature_flags"`
	Ticket       *InitialTicket      `json:"ticket,omitempty"`
}

// InitialDeployment seeds one deployment; Replicas defaults to 1.
type InitialDeployment struct {
	Service   string `json:"service"`
	Namespace string `json:"namespace"`
	Replicas  int    `json:"replicas,omitempty"`
}

// InitialTicket optionally overrides the ticket's starting status and note.
type InitialTicket struct {
	Status TicketStatus `json:"status,omitempty"`
	Note   string       `json:"note,omitempty"`
}

// Env is the aggregate simulated environment for one evaluation run. It is
// exclusively owned by that run; there is no cross-run sharing and therefore
// no locking.
type Env struct {
	Deployments  map[string]*Deployment
	FeatureFlags map[string]bool
	Ticket       Ticket
	IncidentLog  []LogEntry
	Seed         int64
}

// New constructs an environment from a scenario's initial state.
func New(initial InitialState) *Env {
	env := &Env{
		Deployments:  make(map[string]*Deployment),
		FeatureFlags: make(map[string]bool),
		Ticket:       Ticket{Status: TicketOpen},
		Seed:         DefaultSeed,
	}
	for _, d := range initial.Deployments {
		replicas := d.Replicas
		if replicas <= 0 {
			replicas = 1
		}
		dep := &Deployment{Service: d.Service, Namespace: d.Namespace, Replicas: replicas}
		env.Deployments[dep.Key()] = dep
	}
	for name, enabled := range initial.FeatureFlags {
		env.FeatureFlags[name] = enabled
	}
	if initial.Ticket != nil {
		if initial.Ticket.Status != "" {
			env.Ticket.Status = initial.Ticket.Status
		}
		env.Ticket.Note = initial.Ticket.Note
	}
	return env
}

// Deployment looks up a deployment by (service, namespace).
func (e *Env) Deployment(service, namespace string) (*Deployment, bool) {
	dep, ok := e.Deployments[DeploymentKey(service, namespace)]
	return dep, ok
}

// AppendLog appends an incident log entry. The log is append-only.
func (e *Env) AppendLog(entry LogEntry) {
	e.IncidentLog = append(e.IncidentLog, entry)
}
