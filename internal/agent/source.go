package agent

import (
	"context"
	"encoding/json"

	"github.com/remedybench/remedybench/internal/chat"
	"github.com/remedybench/remedybench/internal/tools"
)

// DecisionSource produces the agent's next reply given the full conversation
// history. The session loop is polymorphic over this single capability: a
// scripted source replays recorded calls for ground-truth and regression
// runs, a live source round-trips through a chat-completion provider.
type DecisionSource interface {
	NextReply(ctx context.Context, history []chat.Message) (string, error)
}

// ScriptedSource replays a fixed sequence of tool calls, then terminates.
// Replies are emitted in the same JSON shapes a live model must produce, so
// scripted runs exercise the identical protocol path.
type ScriptedSource struct {
	calls       []tools.Call
	next        int
	finalAnswer string
}

// NewScriptedSource builds a source that replays calls in order and then
// answers with a fixed completion message.
func NewScriptedSource(calls []tools.Call) *ScriptedSource {
	return &ScriptedSource{calls: calls, finalAnswer: "done"}
}

// NextReply returns the next scripted reply. The history is ignored.
func (s *ScriptedSource) NextReply(_ context.Context, _ []chat.Message) (string, error) {
	if s.next < len(s.calls) {
		call := s.calls[s.next]
		s.next++
		payload, err := json.Marshal(map[string]any{"tool_call": call})
		if err != nil {
			return "", err
		}
		return string(payload), nil
	}
	payload, err := json.Marshal(map[string]any{"final_answer": s.finalAnswer})
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

// LiveSource asks a chat-completion provider for the next decision. It holds
// request knobs only; conversation state lives in the session.
type LiveSource struct {
	provider    chat.Provider
	model       string
	maxTokens   int
	temperature float64
}

// NewLiveSource builds a live source for the given provider and model.
func NewLiveSource(provider chat.Provider, model string) *LiveSource {
	return &LiveSource{
		provider:    provider,
		model:       model,
		maxTokens:   512,
		temperature: 0.2,
	}
}

// NextReply sends the accumulated history and returns the single text
// completion. Errors here are communication failures, fatal to the run.
func (s *LiveSource) NextReply(ctx context.Context, history []chat.Message) (string, error) {
	resp, err := s.provider.Chat(ctx, chat.ChatRequest{
		Messages:    history,
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
