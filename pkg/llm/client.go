// Package llm provides the LLM adapter used by the router, agents, evaluator,
// negotiation and planner. The core depends only on the Client interface; the
// shipped implementation speaks any OpenAI-compatible chat completion API
// (Groq, OpenAI, DeepSeek, Ollama) selected via LLM_PROVIDER.
package llm

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry in a chat conversation.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall // assistant messages replaying a prior tool call
	ToolCallID string     // tool messages answering a prior call
}

// ToolCall is a structured tool invocation requested by the model.
// Arguments is the raw JSON string produced by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolSpec describes one callable tool in the request. Parameters is a JSON
// schema passed through to the provider untouched.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Request is a single chat completion call. When Tools is non-empty the
// provider is asked to choose tools automatically.
type Request struct {
	Messages    []Message
	Tools       []ToolSpec
	MaxTokens   int
	Temperature float32
}

// Response is the model's reply: assistant text and any tool calls.
type Response struct {
	Content   string
	ToolCalls []ToolCall
}

// Client is the minimal LLM surface the core depends on.
type Client interface {
	// Chat performs one chat completion. ctx carries cancellation; an
	// in-flight call is allowed to complete (cancellation is cooperative
	// at the call sites).
	Chat(ctx context.Context, req Request) (Response, error)

	// Model returns the model identifier used for calls, for observability.
	Model() string
}

// providerConfig describes one OpenAI-compatible endpoint.
type providerConfig struct {
	baseURL      string
	envKey       string
	defaultModel string
}

var providers = map[string]providerConfig{
	"groq":     {baseURL: "https://api.groq.com/openai/v1", envKey: "GROQ_API_KEY", defaultModel: "llama-3.3-70b-versatile"},
	"openai":   {baseURL: "", envKey: "OPENAI_API_KEY", defaultModel: "gpt-4o-mini"},
	"deepseek": {baseURL: "https://api.deepseek.com", envKey: "DEEPSEEK_API_KEY", defaultModel: "deepseek-chat"},
	"ollama":   {baseURL: "http://localhost:11434/v1", envKey: "", defaultModel: "llama3.1"},
}

// OpenAIClient implements Client against an OpenAI-compatible endpoint.
type OpenAIClient struct {
	chat  *openai.Client
	model string
}

// NewOpenAIClient builds a client for the named provider. model overrides the
// provider default when non-empty. Unknown providers are treated as groq.
func NewOpenAIClient(provider, model string) (*OpenAIClient, error) {
	pc, ok := providers[provider]
	if !ok {
		pc = providers["groq"]
	}

	apiKey := "ollama" // ollama ignores the key but the SDK requires one
	if pc.envKey != "" {
		apiKey = os.Getenv(pc.envKey)
		if apiKey == "" {
			return nil, fmt.Errorf("missing API key: %s is not set", pc.envKey)
		}
	}

	cfg := openai.DefaultConfig(apiKey)
	if provider == "ollama" {
		if base := os.Getenv("OLLAMA_BASE_URL"); base != "" {
			cfg.BaseURL = base
		} else {
			cfg.BaseURL = pc.baseURL
		}
	} else if pc.baseURL != "" {
		cfg.BaseURL = pc.baseURL
	}

	if model == "" {
		model = pc.defaultModel
	}

	return &OpenAIClient{
		chat:  openai.NewClientWithConfig(cfg),
		model: model,
	}, nil
}

// Model returns the configured model identifier.
func (c *OpenAIClient) Model() string { return c.model }

// Chat performs one chat completion call, translating between the core's
// conversation shape and the provider SDK.
func (c *OpenAIClient) Chat(ctx context.Context, req Request) (Response, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msg := openai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		messages = append(messages, msg)
	}

	request := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if len(req.Tools) > 0 {
		for _, spec := range req.Tools {
			request.Tools = append(request.Tools, openai.Tool{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        spec.Name,
					Description: spec.Description,
					Parameters:  spec.Parameters,
				},
			})
		}
		request.ToolChoice = "auto"
	}

	resp, err := c.chat.CreateChatCompletion(ctx, request)
	if err != nil {
		return Response{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("chat completion: empty choices")
	}

	choice := resp.Choices[0].Message
	out := Response{Content: choice.Content}
	for _, tc := range choice.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}
