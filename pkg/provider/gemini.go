package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tollgate-ai/tollgate/pkg/models"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type geminiPart struct {
	Text         string              `json:"text,omitempty"`
	FunctionCall *geminiFunctionCall `json:"functionCall,omitempty"`
}

type geminiFunctionCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiFunctionDeclaration struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type geminiTool struct {
	FunctionDeclarations []geminiFunctionDeclaration `json:"function_declarations"`
}

type geminiRequest struct {
	Contents          []geminiContent  `json:"contents"`
	SystemInstruction *geminiContent   `json:"systemInstruction,omitempty"`
	Tools             []geminiTool     `json:"tools,omitempty"`
	GenerationConfig  *geminiGenConfig `json:"generationConfig,omitempty"`
}

type geminiGenConfig struct {
	Temperature *float64 `json:"temperature,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content *geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int64 `json:"promptTokenCount"`
		CandidatesTokenCount int64 `json:"candidatesTokenCount"`
		TotalTokenCount      int64 `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

type geminiAdapter struct {
	client  *http.Client
	cfg     models.ModelConfig
	apiKey  string
	baseURL string
	headers map[string]string
}

// NewGemini creates an adapter for the Google Gemini generateContent API.
func NewGemini(cfg models.ModelConfig, apiKey string, opts Options) Adapter {
	return &geminiAdapter{
		client:  opts.client(),
		cfg:     cfg,
		apiKey:  apiKey,
		baseURL: opts.baseURL(defaultGeminiBaseURL),
		headers: opts.Headers,
	}
}

func (a *geminiAdapter) Name() string { return "Gemini" }

func (a *geminiAdapter) Generate(ctx context.Context, history []models.Message, prompt string, tools []models.ToolDefinition) (*models.GenerateResult, error) {
	contents := make([]geminiContent, 0, len(history)+1)
	for _, m := range history {
		role := "user"
		if m.Role == "assistant" || m.Role == "model" {
			role = "model"
		}
		contents = append(contents, geminiContent{Role: role, Parts: []geminiPart{{Text: m.Content}}})
	}
	contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: prompt}}})

	req := geminiRequest{Contents: contents}
	if a.cfg.SystemPrompt != "" {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: a.cfg.SystemPrompt}}}
	}
	if len(tools) > 0 {
		decls := make([]geminiFunctionDeclaration, 0, len(tools))
		for _, t := range tools {
			decls = append(decls, geminiFunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			})
		}
		req.Tools = []geminiTool{{FunctionDeclarations: decls}}
	}
	if a.cfg.Temperature != nil {
		req.GenerationConfig = &geminiGenConfig{Temperature: a.cfg.Temperature}
	}

	headers := make(map[string]string, len(a.headers)+1)
	for k, v := range a.headers {
		headers[k] = v
	}
	headers["x-goog-api-key"] = a.apiKey

	url := fmt.Sprintf("%s/models/%s:generateContent", a.baseURL, a.cfg.ModelID)
	res, err := postJSON(ctx, a.client, "Gemini", url, headers, req)
	if err != nil {
		return nil, err
	}
	if res.status < 200 || res.status >= 300 {
		return nil, vendorError("Gemini", res)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(res.body, &parsed); err != nil {
		return nil, &ProviderError{Vendor: "Gemini", Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(parsed.Candidates) == 0 || parsed.Candidates[0].Content == nil {
		return nil, &ProviderError{Vendor: "Gemini", Err: ErrEmptyResponse}
	}

	result := &models.GenerateResult{}
	for _, part := range parsed.Candidates[0].Content.Parts {
		if part.Text != "" {
			result.Text += part.Text
		}
		if fc := part.FunctionCall; fc != nil && result.ToolCall == nil {
			if !json.Valid(fc.Args) {
				return nil, &ProviderError{Vendor: "Gemini", Err: fmt.Errorf("%w for %q: %s", ErrBadToolArgs, fc.Name, fc.Args)}
			}
			result.ToolCall = &models.ToolCall{Skill: fc.Name, Params: fc.Args}
		}
	}
	if result.ToolCall != nil {
		result.Text = ""
	}

	if parsed.UsageMetadata != nil {
		result.Usage = &models.Usage{
			InputTokens:  parsed.UsageMetadata.PromptTokenCount,
			OutputTokens: parsed.UsageMetadata.CandidatesTokenCount,
			TotalTokens:  parsed.UsageMetadata.TotalTokenCount,
		}
	}
	return result, nil
}
