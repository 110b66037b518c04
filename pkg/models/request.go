package models

import "encoding/json"

// Message is a single turn in a conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ModelConfig identifies which model/provider pair to call and the quotas
// that apply to it. It is supplied by the caller per request and never
// mutated by the governor or the adapters.
type ModelConfig struct {
	ModelID      string   `json:"modelId" yaml:"model_id"`
	Provider     string   `json:"provider" yaml:"provider"`
	BaseURL      string   `json:"baseUrl,omitempty" yaml:"base_url,omitempty"`
	SystemPrompt string   `json:"systemPrompt,omitempty" yaml:"system_prompt,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`

	// Quota dimensions. A nil limit means that dimension is never checked.
	RPM *int64 `json:"rpm,omitempty" yaml:"rpm,omitempty"`
	TPM *int64 `json:"tpm,omitempty" yaml:"tpm,omitempty"`
	RPD *int64 `json:"rpd,omitempty" yaml:"rpd,omitempty"`
	TPD *int64 `json:"tpd,omitempty" yaml:"tpd,omitempty"`
}

// ToolDefinition declares a callable capability offered to the model.
// Parameters is a JSON Schema object in the vendor-neutral form; each
// adapter translates it to its vendor's tool schema.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ToolCall is the normalized record of a model's decision to invoke a tool,
// regardless of the vendor wire format it arrived in.
type ToolCall struct {
	Skill  string          `json:"skill"`
	Params json.RawMessage `json:"params"`
}

// GenerateResult is the normalized outcome of one provider call.
// Text is empty when the model chose a tool call instead. Usage is nil when
// the vendor omitted token accounting.
type GenerateResult struct {
	Text     string    `json:"text"`
	ToolCall *ToolCall `json:"toolCall,omitempty"`
	Usage    *Usage    `json:"usage,omitempty"`
}
