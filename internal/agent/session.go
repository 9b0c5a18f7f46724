// Package agent drives one scenario run: it alternates between a decision
// source and the tool registry, enforcing the strict reply schema with a
// bounded reformat retry, and finalizes with an environment snapshot.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/remedybench/remedybench/internal/chat"
	"github.com/remedybench/remedybench/internal/sim"
	"github.com/remedybench/remedybench/internal/tools"
)

// DefaultMaxSteps bounds the number of tool-path turns per run.
const DefaultMaxSteps = 8

// LoopState is the session's explicit protocol state.
type LoopState string

const (
	// StateAwaitingDecision - waiting on the decision source's next reply
	StateAwaitingDecision LoopState = "AWAITING_DECISION"

	// StateDispatching - a validated tool call is executing
	StateDispatching LoopState = "DISPATCHING"

	// StateComplete - terminal: final answer, early stop, or budget exhausted
	StateComplete LoopState = "COMPLETE"
)

// Corrective instructions fed back to the decision source.
const (
	reformatInstruction = "Your last response was not valid JSON. Reply with JSON only as specified."
	missingShapeNote    = "You must respond with either a tool_call or a final_answer in JSON."
	malformedToolNote   = "Malformed tool_call. Provide name (string) and arguments (object)."
)

// SessionConfig configures one run.
type SessionConfig struct {
	// MaxSteps caps tool-path iterations; DefaultMaxSteps when <= 0.
	MaxSteps int

	// Preamble is prepended to the conversation (schema advertisement and
	// variant prompt for live runs).
	Preamble []chat.Message

	// Prompt is the scenario's natural-language incident prompt.
	Prompt string
}

// Session runs one scenario to completion against one environment.
type Session struct {
	env      *sim.Env
	registry *tools.Registry
	source   DecisionSource
	maxSteps int

	state    LoopState
	messages []chat.Message
	trace    Trace
}

// NewSession wires a session over an environment, registry and decision
// source. The environment must be freshly built and exclusively owned.
func NewSession(env *sim.Env, registry *tools.Registry, source DecisionSource, cfg SessionConfig) *Session {
	maxSteps := cfg.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	messages := make([]chat.Message, 0, len(cfg.Preamble)+1)
	messages = append(messages, cfg.Preamble...)
	messages = append(messages, chat.Message{Role: "user", Content: cfg.Prompt})
	return &Session{
		env:      env,
		registry: registry,
		source:   source,
		maxSteps: maxSteps,
		state:    StateAwaitingDecision,
		messages: messages,
	}
}

// State returns the session's current protocol state.
func (s *Session) State() LoopState { return s.state }

// Run executes the turn loop. The returned trace is always usable, even
// alongside a non-nil error: a communication failure ends the run early but
// leaves whatever state accumulated scoreable. Protocol-level failures
// (unparseable replies after the one reformat retry) are an early stop, not
// an error.
func (s *Session) Run(ctx context.Context) (*Trace, error) {
	defer s.finalize()

	for step := 1; step <= s.maxSteps; step++ {
		s.state = StateAwaitingDecision

		raw, err := s.source.NextReply(ctx, s.messages)
		if err != nil {
			return &s.trace, fmt.Errorf("decision source failed: %w", err)
		}

		rep, perr := parseReply(raw)
		if perr != nil {
			// One reformat retry per turn; a second failure ends the run.
			log.Warn().Int("step", step).Msg("reply not valid JSON, requesting reformat")
			s.messages = append(s.messages, chat.Message{Role: "user", Content: reformatInstruction})
			raw, err = s.source.NextReply(ctx, s.messages)
			if err != nil {
				return &s.trace, fmt.Errorf("decision source failed: %w", err)
			}
			rep, perr = parseReply(raw)
			if perr != nil {
				log.Warn().Int("step", step).Msg("reformatted reply still unparseable, stopping early")
				return &s.trace, nil
			}
		}

		if rep.finalAnswer != nil {
			log.Debug().Int("step", step).Str("final_answer", *rep.finalAnswer).Msg("run terminated by agent")
			return &s.trace, nil
		}

		if rep.call == nil {
			log.Warn().Int("step", step).Str("note", rep.invalidNote).Msg("schema-violating reply, prompting correction")
			s.messages = append(s.messages, chat.Message{Role: "user", Content: rep.invalidNote})
			continue
		}

		s.state = StateDispatching
		result := s.registry.Dispatch(s.env, *rep.call)
		s.trace.Steps = append(s.trace.Steps, TraceStep{Step: step, Call: *rep.call, Result: result})

		log.Info().
			Int("step", step).
			Str("tool", rep.call.Name).
			Bool("ok", result.OK).
			Str("error", result.Error).
			Msg("tool dispatched")

		payload, err := json.Marshal(map[string]any{"tool_result": result})
		if err != nil {
			return &s.trace, fmt.Errorf("failed to encode tool result: %w", err)
		}
		s.messages = append(s.messages, chat.Message{Role: "assistant", Content: string(payload)})
	}

	// Step budget exhausted without termination: not an error, merely an
	// incomplete run.
	log.Debug().Int("max_steps", s.maxSteps).Msg("step budget exhausted")
	return &s.trace, nil
}

func (s *Session) finalize() {
	s.state = StateComplete
	s.trace.Final = Snapshot(s.env)
}

// reply is one parsed decision-source response.
type reply struct {
	finalAnswer *string
	call        *tools.Call
	invalidNote string // set when parsed but schema-violating
}

// parseReply extracts the JSON payload between the first '{' and last '}'
// (tolerating incidental wrapper text) and classifies it. A decode failure
// is the only error; shape violations come back as a reply with a
// corrective note.
func parseReply(raw string) (reply, error) {
	raw = strings.TrimSpace(raw)
	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start >= 0 && end >= start {
		raw = raw[start : end+1]
	}

	var payload struct {
		ToolCall    map[string]any `json:"tool_call"`
		FinalAnswer *string        `json:"final_answer"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return reply{}, fmt.Errorf("malformed reply: %w", err)
	}

	if payload.FinalAnswer != nil {
		return reply{finalAnswer: payload.FinalAnswer}, nil
	}
	if payload.ToolCall == nil {
		return reply{invalidNote: missingShapeNote}, nil
	}

	name, nameOK := payload.ToolCall["name"].(string)
	args := map[string]any{}
	if rawArgs, present := payload.ToolCall["arguments"]; present && rawArgs != nil {
		typed, argsOK := rawArgs.(map[string]any)
		if !argsOK {
			return reply{invalidNote: malformedToolNote}, nil
		}
		args = typed
	}
	if !nameOK {
		return reply{invalidNote: malformedToolNote}, nil
	}

	return reply{call: &tools.Call{Name: name, Arguments: args}}, nil
}
