package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/tollgate-ai/tollgate/pkg/models"
)

const defaultGroqBaseURL = "https://api.groq.com/openai/v1"

// Matches <function=name>{"json"...}</function> and the malformed variants
// Llama-family models emit, with or without the closing tag or braces.
var functionTagRE = regexp.MustCompile(`(?s)<function=([a-zA-Z0-9_-]+)[^{]*({.*?})[^<]*(?:</function>)?`)

// groqAdapter speaks Groq's OpenAI-compatible endpoint and additionally
// recovers tool calls that Groq-hosted Llama models emit as inline
// <function=...> tags instead of structured tool_calls.
type groqAdapter struct {
	client  *http.Client
	cfg     models.ModelConfig
	apiKey  string
	baseURL string
	headers map[string]string
}

// NewGroq creates an adapter for the Groq chat-completions API.
func NewGroq(cfg models.ModelConfig, apiKey string, opts Options) Adapter {
	return &groqAdapter{
		client:  opts.client(),
		cfg:     cfg,
		apiKey:  apiKey,
		baseURL: opts.baseURL(defaultGroqBaseURL),
		headers: opts.Headers,
	}
}

func (a *groqAdapter) Name() string { return "Groq" }

func (a *groqAdapter) Generate(ctx context.Context, history []models.Message, prompt string, tools []models.ToolDefinition) (*models.GenerateResult, error) {
	req := chatRequest{
		Model:       a.cfg.ModelID,
		Messages:    buildChatMessages(a.cfg.SystemPrompt, history, prompt),
		Temperature: a.cfg.Temperature,
		Tools:       buildChatTools(tools),
	}

	headers := make(map[string]string, len(a.headers)+1)
	for k, v := range a.headers {
		headers[k] = v
	}
	headers["Authorization"] = "Bearer " + a.apiKey

	res, err := postJSON(ctx, a.client, "Groq", a.baseURL+"/chat/completions", headers, req)
	if err != nil {
		return nil, err
	}

	if res.status < 200 || res.status >= 300 {
		// Groq rejects hallucinated tool syntax with a 400 tool_use_failed
		// whose body carries the raw generation; try to salvage the call.
		if res.status == http.StatusBadRequest && gjson.GetBytes(res.body, "error.code").String() == "tool_use_failed" {
			failed := gjson.GetBytes(res.body, "error.failed_generation").String()
			if tc, ok := recoverFunctionTag(failed); ok {
				log.WithField("skill", tc.Skill).Info("groq: recovered tool call from failed generation")
				return &models.GenerateResult{ToolCall: tc}, nil
			}
			return nil, &ProviderError{
				Vendor:     "Groq",
				StatusCode: res.status,
				Err:        fmt.Errorf("%w: unrecoverable failed generation: %s", ErrBadToolArgs, failed),
			}
		}
		return nil, vendorError("Groq", res)
	}

	result, err := decodeChatResponse("Groq", res.body)
	if err != nil {
		return nil, err
	}

	// Some Llama checkpoints skip tool_calls and inline the invocation in
	// the message text instead.
	if result.ToolCall == nil && result.Text != "" {
		if strings.Contains(result.Text, "<function=") {
			tc, ok := recoverFunctionTag(result.Text)
			if !ok {
				return nil, &ProviderError{Vendor: "Groq", Err: fmt.Errorf("%w: unparseable function tag: %s", ErrBadToolArgs, result.Text)}
			}
			log.WithField("skill", tc.Skill).Info("groq: extracted tool call from function tag")
			result.ToolCall = tc
			result.Text = ""
		}
	}
	return result, nil
}

// recoverFunctionTag parses a <function=name>{...} tag, repairing a missing
// opening or closing brace before decoding the argument JSON.
func recoverFunctionTag(text string) (*models.ToolCall, bool) {
	caps := functionTagRE.FindStringSubmatch(text)
	if caps == nil {
		return nil, false
	}

	args := strings.TrimSpace(caps[2])
	if !strings.HasPrefix(args, "{") {
		args = "{" + args
	}
	if !strings.HasSuffix(args, "}") {
		args += "}"
	}
	if !json.Valid([]byte(args)) {
		return nil, false
	}
	return &models.ToolCall{Skill: caps[1], Params: json.RawMessage(args)}, true
}
