package models

import "time"

// Usage is the normalized token accounting for one provider call.
type Usage struct {
	InputTokens  int64 `json:"inputTokens"`
	OutputTokens int64 `json:"outputTokens"`
	TotalTokens  int64 `json:"totalTokens"`
}

// CallRecord is one completed provider call as written to the journal.
type CallRecord struct {
	ID           int64     `json:"id"`
	Model        string    `json:"model"`
	Provider     string    `json:"provider"`
	InputTokens  int64     `json:"input_tokens"`
	OutputTokens int64     `json:"output_tokens"`
	TotalTokens  int64     `json:"total_tokens"`
	CostUSD      float64   `json:"cost_usd"`
	CreatedAt    time.Time `json:"created_at"`
}

// CallSummary aggregates journal records per model.
type CallSummary struct {
	Model       string  `json:"model"`
	Provider    string  `json:"provider"`
	Calls       int64   `json:"calls"`
	TotalInput  int64   `json:"total_input"`
	TotalOutput int64   `json:"total_output"`
	TotalTokens int64   `json:"total_tokens"`
	CostUSD     float64 `json:"cost_usd"`
}
