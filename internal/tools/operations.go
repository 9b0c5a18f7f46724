package tools

import (
	"time"

	"github.com/remedybench/remedybench/internal/sim"
)

// Replica bounds enforced by scale_deployment.
const (
	MinReplicas = 1
	MaxReplicas = 100
)

type scaleDeploymentTool struct{}

func (scaleDeploymentTool) Name() string { return ToolScaleDeployment }

func (scaleDeploymentTool) Execute(env *sim.Env, args Args) Result {
	service, err := args.String("service")
	if err != nil {
		return failure(ErrorArgument, "%v", err)
	}
	namespace, err := args.String("namespace")
	if err != nil {
		return failure(ErrorArgument, "%v", err)
	}
	replicas, err := args.Int("replicas")
	if err != nil {
		return failure(ErrorArgument, "%v", err)
	}
	if replicas < MinReplicas || replicas > MaxReplicas {
		return failure(ErrorArgument, "replicas out of range: %d", replicas)
	}
	dep, ok := env.Deployment(service, namespace)
	if !ok {
		return failure(ErrorUnknownResource, "unknown deployment: %s in %s", service, namespace)
	}
	dep.Replicas = replicas
	return success(map[string]any{
		"service":   service,
		"namespace": namespace,
		"replicas":  replicas,
	})
}

type restartDeploymentTool struct{}

func (restartDeploymentTool) Name() string { return ToolRestartDeployment }

func (restartDeploymentTool) Execute(env *sim.Env, args Args) Result {
	service, err := args.String("service")
	if err != nil {
		return failure(ErrorArgument, "%v", err)
	}
	namespace, err := args.String("namespace")
	if err != nil {
		return failure(ErrorArgument, "%v", err)
	}
	dep, ok := env.Deployment(service, namespace)
	if !ok {
		return failure(ErrorUnknownResource, "unknown deployment: %s in %s", service, namespace)
	}
	// Restart records a timestamp only; replicas are untouched.
	now := time.Now()
	dep.RestartedAt = &now
	return success(map[string]any{
		"service":      service,
		"namespace":    namespace,
		"restarted_at": now,
	})
}

type setFeatureFlagTool struct{}

func (setFeatureFlagTool) Name() string { return ToolSetFeatureFlag }

func (setFeatureFlagTool) Execute(env *sim.Env, args Args) Result {
	flag, err := args.String("flag")
	if err != nil {
		return failure(ErrorArgument, "%v", err)
	}
	enabled, err := args.Bool("enabled")
	if err != nil {
		return failure(ErrorArgument, "%v", err)
	}
	env.FeatureFlags[flag] = enabled
	return success(map[string]any{
		"flag":    flag,
		"enabled": enabled,
	})
}

type logIncidentTool struct{}

func (logIncidentTool) Name() string { return ToolLogIncident }

func (logIncidentTool) Execute(env *sim.Env, args Args) Result {
	message, err := args.String("message")
	if err != nil {
		return failure(ErrorArgument, "%v", err)
	}
	severity, err := args.String("severity")
	if err != nil {
		return failure(ErrorArgument, "%v", err)
	}
	if !sim.ValidSeverity(sim.Severity(severity)) {
		return failure(ErrorArgument, "invalid severity: %s", severity)
	}
	entry := sim.LogEntry{
		Timestamp: time.Now(),
		Severity:  sim.Severity(severity),
		Message:   message,
	}
	env.AppendLog(entry)
	return success(map[string]any{
		"ts":       entry.Timestamp,
		"severity": entry.Severity,
		"message":  entry.Message,
	})
}

type updateTicketTool struct{}

func (updateTicketTool) Name() string { return ToolUpdateTicket }

func (updateTicketTool) Execute(env *sim.Env, args Args) Result {
	status, err := args.String("status")
	if err != nil {
		return failure(ErrorArgument, "%v", err)
	}
	note, err := args.String("note")
	if err != nil {
		return failure(ErrorArgument, "%v", err)
	}
	if !sim.ValidTicketStatus(sim.TicketStatus(status)) {
		return failure(ErrorArgument, "invalid status: %s", status)
	}
	env.Ticket.Status = sim.TicketStatus(status)
	env.Ticket.Note = note
	return success(map[string]any{
		"status": status,
		"note":   note,
	})
}
