package tools

import "strings"

// SchemaText returns the fixed, human-readable advertisement of every
// operation and the two legal reply shapes. It is injected as the first
// system message of every live conversation; changing it changes model
// behavior, so keep it stable.
func SchemaText() string {
	parts := []string{
		"TOOLS AVAILABLE (invoke one at a time):",
		"- query_metrics(service: string, metric: 'latency_p95'|'error_rate'|'qps', minutes: int[1..120], namespace: string)",
		"  Returns: value, status ('good'|'acceptable'|'concerning'), recommendation",
		"- scale_deployment(service: string, replicas: int[1..100], namespace: string)",
		"- restart_deployment(service: string, namespace: string)",
		"- set_feature_flag(flag: string, enabled: boolean)",
		"- log_incident(message: string, severity: 'info'|'warning'|'critical')",
		"- update_ticket(status: 'open'|'investigating'|'mitigated'|'resolved', note: string)",
		"",
		"RESPONSE FORMAT (strict JSON, no extra text):",
		`{"tool_call": {"name": "<tool_name>", "arguments": { /* tool args */ }}}`,
		`OR {"final_answer": "<concise result/summary>"}`,
	}
	return strings.Join(parts, "\n")
}
