package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tollgate-ai/tollgate/pkg/models"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion        = "2023-06-01"
	anthropicMaxTokens      = 4096
)

type anthropicTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type anthropicRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	System      string          `json:"system,omitempty"`
	Messages    []chatMessage   `json:"messages"`
	Temperature *float64        `json:"temperature,omitempty"`
	Tools       []anthropicTool `json:"tools,omitempty"`
}

type anthropicContent struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
	Usage   *struct {
		InputTokens  int64 `json:"input_tokens"`
		OutputTokens int64 `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicAdapter struct {
	client  *http.Client
	cfg     models.ModelConfig
	apiKey  string
	baseURL string
	headers map[string]string
}

// NewAnthropic creates an adapter for the Anthropic messages API.
func NewAnthropic(cfg models.ModelConfig, apiKey string, opts Options) Adapter {
	return &anthropicAdapter{
		client:  opts.client(),
		cfg:     cfg,
		apiKey:  apiKey,
		baseURL: opts.baseURL(defaultAnthropicBaseURL),
		headers: opts.Headers,
	}
}

func (a *anthropicAdapter) Name() string { return "Anthropic" }

func (a *anthropicAdapter) Generate(ctx context.Context, history []models.Message, prompt string, tools []models.ToolDefinition) (*models.GenerateResult, error) {
	msgs := make([]chatMessage, 0, len(history)+1)
	for _, m := range history {
		msgs = append(msgs, chatMessage{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: prompt})

	var reqTools []anthropicTool
	for _, t := range tools {
		reqTools = append(reqTools, anthropicTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Parameters,
		})
	}

	req := anthropicRequest{
		Model:       a.cfg.ModelID,
		MaxTokens:   anthropicMaxTokens,
		System:      a.cfg.SystemPrompt,
		Messages:    msgs,
		Temperature: a.cfg.Temperature,
		Tools:       reqTools,
	}

	headers := make(map[string]string, len(a.headers)+2)
	for k, v := range a.headers {
		headers[k] = v
	}
	headers["x-api-key"] = a.apiKey
	headers["anthropic-version"] = anthropicVersion

	res, err := postJSON(ctx, a.client, "Anthropic", a.baseURL+"/v1/messages", headers, req)
	if err != nil {
		return nil, err
	}
	if res.status < 200 || res.status >= 300 {
		return nil, vendorError("Anthropic", res)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(res.body, &parsed); err != nil {
		return nil, &ProviderError{Vendor: "Anthropic", Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(parsed.Content) == 0 {
		return nil, &ProviderError{Vendor: "Anthropic", Err: ErrEmptyResponse}
	}

	result := &models.GenerateResult{}
	for _, block := range parsed.Content {
		switch block.Type {
		case "text":
			result.Text += block.Text
		case "tool_use":
			if result.ToolCall != nil {
				continue
			}
			if !json.Valid(block.Input) {
				return nil, &ProviderError{Vendor: "Anthropic", Err: fmt.Errorf("%w for %q: %s", ErrBadToolArgs, block.Name, block.Input)}
			}
			result.ToolCall = &models.ToolCall{Skill: block.Name, Params: block.Input}
		}
	}
	if result.ToolCall != nil {
		result.Text = ""
	}

	if parsed.Usage != nil {
		result.Usage = &models.Usage{
			InputTokens:  parsed.Usage.InputTokens,
			OutputTokens: parsed.Usage.OutputTokens,
			TotalTokens:  parsed.Usage.InputTokens + parsed.Usage.OutputTokens,
		}
	}
	return result, nil
}
