package tools

import (
	"github.com/remedybench/remedybench/internal/sim"
)

// Registry maps tool names to their implementations. The set is fixed at
// construction; dispatch of an unknown name yields a failure result rather
// than an error.
type Registry struct {
	byName map[string]Tool
	order  []string
}

// NewRegistry builds the registry with all six operations.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]Tool)}
	for _, t := range []Tool{
		queryMetricsTool{},
		scaleDeploymentTool{},
		restartDeploymentTool{},
		setFeatureFlagTool{},
		logIncidentTool{},
		updateTicketTool{},
	} {
		r.byName[t.Name()] = t
		r.order = append(r.order, t.Name())
	}
	return r
}

// Dispatch validates and executes a call against the environment.
func (r *Registry) Dispatch(env *sim.Env, call Call) Result {
	tool, ok := r.byName[call.Name]
	if !ok {
		return failure(ErrorUnknownTool, "unknown tool: %s", call.Name)
	}
	return tool.Execute(env, Args(call.Arguments))
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}
