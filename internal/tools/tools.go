// Package tools implements the fixed registry of simulated remediation
// operations. Every operation is a pure function of the environment and its
// validated arguments: it either mutates the environment and returns a
// success result, or returns a failure result without touching any state.
// Failures never escape the registry boundary as errors; they are values the
// agent sees as feedback on its next turn.
package tools

import (
	"fmt"

	"github.com/remedybench/remedybench/internal/sim"
)

// Tool names. The registry is keyed by these.
const (
	ToolQueryMetrics      = "query_metrics"
	ToolScaleDeployment   = "scale_deployment"
	ToolRestartDeployment = "restart_deployment"
	ToolSetFeatureFlag    = "set_feature_flag"
	ToolLogIncident       = "log_incident"
	ToolUpdateTicket      = "update_ticket"
)

// Call is a tool invocation as issued by the agent.
type Call struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ErrorClass distinguishes why a tool call failed. The argument class marks
// argument-validation failures and is the only class that flips the
// tool_syntax_ok scoring signal; a reference to a deployment that does not
// exist is a resource error, not a syntax error.
type ErrorClass string

const (
	ErrorNone            ErrorClass = ""
	ErrorArgument        ErrorClass = "argument"
	ErrorUnknownResource ErrorClass = "unknown_resource"
	ErrorUnknownTool     ErrorClass = "unknown_tool"
)

// Result is the uniform outcome of a tool invocation.
type Result struct {
	OK    bool           `json:"ok"`
	Data  map[string]any `json:"data,omitempty"`
	Error string         `json:"error,omitempty"`
	Class ErrorClass     `json:"error_class,omitempty"`
}

func success(data map[string]any) Result {
	return Result{OK: true, Data: data}
}

func failure(class ErrorClass, format string, args ...any) Result {
	return Result{OK: false, Error: fmt.Sprintf(format, args...), Class: class}
}

// Tool is one named operation over the environment.
type Tool interface {
	Name() string
	Execute(env *sim.Env, args Args) Result
}

// IsMutating reports whether the named tool changes deployment, restart, or
// feature-flag state. Used by the verification scoring signal.
func IsMutating(name string) bool {
	switch name {
	case ToolScaleDeployment, ToolRestartDeployment, ToolSetFeatureFlag:
		return true
	}
	return false
}
