package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tollgate-ai/tollgate/pkg/models"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// Chat-completions wire types, shared by every OpenAI-compatible vendor
// (OpenAI itself, Groq, Ollama's compatibility endpoint).

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatTool struct {
	Type     string           `json:"type"`
	Function chatToolFunction `json:"function"`
}

type chatToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	Tools       []chatTool    `json:"tools,omitempty"`
}

type chatToolCall struct {
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string         `json:"content"`
			ToolCalls []chatToolCall `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
}

// openAIAdapter serves any chat-completions endpoint. The vendor name and
// auth header vary per deployment; Groq layers its recovery logic on top.
type openAIAdapter struct {
	vendor  string
	client  *http.Client
	cfg     models.ModelConfig
	apiKey  string
	baseURL string
	headers map[string]string
}

// NewOpenAI creates an adapter for the OpenAI chat-completions API or any
// endpoint speaking the same protocol.
func NewOpenAI(cfg models.ModelConfig, apiKey string, opts Options) Adapter {
	return &openAIAdapter{
		vendor:  "OpenAI",
		client:  opts.client(),
		cfg:     cfg,
		apiKey:  apiKey,
		baseURL: opts.baseURL(defaultOpenAIBaseURL),
		headers: opts.Headers,
	}
}

// NewOllama creates an adapter for a local Ollama server through its
// OpenAI-compatible endpoint. No API key is required.
func NewOllama(cfg models.ModelConfig, _ string, opts Options) Adapter {
	return &openAIAdapter{
		vendor:  "Ollama",
		client:  opts.client(),
		cfg:     cfg,
		baseURL: opts.baseURL("http://localhost:11434/v1"),
		headers: opts.Headers,
	}
}

func (a *openAIAdapter) Name() string { return a.vendor }

func (a *openAIAdapter) Generate(ctx context.Context, history []models.Message, prompt string, tools []models.ToolDefinition) (*models.GenerateResult, error) {
	req := chatRequest{
		Model:       a.cfg.ModelID,
		Messages:    buildChatMessages(a.cfg.SystemPrompt, history, prompt),
		Temperature: a.cfg.Temperature,
		Tools:       buildChatTools(tools),
	}

	res, err := postJSON(ctx, a.client, a.vendor, a.baseURL+"/chat/completions", a.authHeaders(), req)
	if err != nil {
		return nil, err
	}
	if res.status < 200 || res.status >= 300 {
		return nil, vendorError(a.vendor, res)
	}

	return decodeChatResponse(a.vendor, res.body)
}

func (a *openAIAdapter) authHeaders() map[string]string {
	headers := make(map[string]string, len(a.headers)+1)
	for k, v := range a.headers {
		headers[k] = v
	}
	if a.apiKey != "" {
		headers["Authorization"] = "Bearer " + a.apiKey
	}
	return headers
}

func buildChatMessages(systemPrompt string, history []models.Message, prompt string) []chatMessage {
	msgs := make([]chatMessage, 0, len(history)+2)
	if systemPrompt != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: systemPrompt})
	}
	for _, m := range history {
		msgs = append(msgs, chatMessage{Role: m.Role, Content: m.Content})
	}
	return append(msgs, chatMessage{Role: "user", Content: prompt})
}

func buildChatTools(tools []models.ToolDefinition) []chatTool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]chatTool, 0, len(tools))
	for _, t := range tools {
		out = append(out, chatTool{
			Type: "function",
			Function: chatToolFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}

// decodeChatResponse normalizes a 2xx chat-completions body.
func decodeChatResponse(vendor string, body []byte) (*models.GenerateResult, error) {
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &ProviderError{Vendor: vendor, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(parsed.Choices) == 0 {
		return nil, &ProviderError{Vendor: vendor, Err: ErrEmptyResponse}
	}

	msg := parsed.Choices[0].Message
	result := &models.GenerateResult{Text: msg.Content}

	if len(msg.ToolCalls) > 0 {
		fn := msg.ToolCalls[0].Function
		if !json.Valid([]byte(fn.Arguments)) {
			return nil, &ProviderError{Vendor: vendor, Err: fmt.Errorf("%w for %q: %s", ErrBadToolArgs, fn.Name, fn.Arguments)}
		}
		result.Text = ""
		result.ToolCall = &models.ToolCall{Skill: fn.Name, Params: json.RawMessage(fn.Arguments)}
	}

	if parsed.Usage != nil {
		result.Usage = &models.Usage{
			InputTokens:  parsed.Usage.PromptTokens,
			OutputTokens: parsed.Usage.CompletionTokens,
			TotalTokens:  parsed.Usage.TotalTokens,
		}
	}
	return result, nil
}
