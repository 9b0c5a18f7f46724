package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	openRouterAPIURL = "https://openrouter.ai/api/v1/chat/completions"

	// APIKeyEnv is the environment variable holding the OpenRouter key.
	APIKeyEnv = "OPENROUTER_API_KEY"

	// NoCredentialReply is returned verbatim when no API key is configured.
	// It parses as a termination signal, so keyless runs degrade to an
	// immediate final answer instead of failing.
	NoCredentialReply = `{"final_answer": "no_api_key"}`
)

// OpenRouterClient implements the Provider interface against OpenRouter's
// OpenAI-compatible chat completions API.
type OpenRouterClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenRouterClient creates a new OpenRouter client. An empty apiKey is
// allowed; Chat then returns NoCredentialReply without any network call.
func NewOpenRouterClient(apiKey, model, baseURL string) *OpenRouterClient {
	if baseURL == "" {
		baseURL = openRouterAPIURL
	}
	return &OpenRouterClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// NewOpenRouterClientFromEnv builds a client with the key from the
// environment, if any.
func NewOpenRouterClientFromEnv(model string) *OpenRouterClient {
	return NewOpenRouterClient(os.Getenv(APIKeyEnv), model, "")
}

// Name returns the provider name.
func (c *OpenRouterClient) Name() string { return "openrouter" }

// HasCredentials reports whether an API key is configured.
func (c *OpenRouterClient) HasCredentials() bool { return c.apiKey != "" }

type openRouterRequest struct {
	Model          string             `json:"model"`
	Messages       []Message          `json:"messages"`
	MaxTokens      int                `json:"max_tokens,omitempty"`
	Temperature    float64            `json:"temperature,omitempty"`
	ResponseFormat *openRouterRespFmt `json:"response_format,omitempty"`
}

type openRouterRespFmt struct {
	Type string `json:"type"`
}

type openRouterResponse struct {
	ID      string             `json:"id"`
	Model   string             `json:"model"`
	Choices []openRouterChoice `json:"choices"`
	Usage   openRouterUsage    `json:"usage"`
}

type openRouterChoice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type openRouterUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type openRouterError struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Chat sends a chat request to the OpenRouter API.
func (c *OpenRouterClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if c.apiKey == "" {
		return &ChatResponse{Content: NoCredentialReply, StopReason: "no_credentials"}, nil
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	if model == "" {
		model = "openrouter/auto"
	}

	orReq := openRouterRequest{
		Model:       model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	// OpenAI-backed models honor strict JSON output enforcement.
	if strings.HasPrefix(model, "openai/") {
		orReq.ResponseFormat = &openRouterRespFmt{Type: "json_object"}
	}

	body, err := json.Marshal(orReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp openRouterError
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, errResp.Error.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var orResp openRouterResponse
	if err := json.Unmarshal(respBody, &orResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(orResp.Choices) == 0 {
		return nil, fmt.Errorf("no response choices returned")
	}

	return &ChatResponse{
		Content:      orResp.Choices[0].Message.Content,
		Model:        orResp.Model,
		StopReason:   orResp.Choices[0].FinishReason,
		InputTokens:  orResp.Usage.PromptTokens,
		OutputTokens: orResp.Usage.CompletionTokens,
	}, nil
}
