// Package rates prices token usage in USD per model.
package rates

// ModelRate is the cost in USD per 1,000 tokens.
type ModelRate struct {
	InputCostPer1K  float64
	OutputCostPer1K float64
}

// fallbackRate applies to models missing from the table.
var fallbackRate = ModelRate{InputCostPer1K: 0.002, OutputCostPer1K: 0.006}

var modelRates = map[string]ModelRate{
	// OpenAI
	"gpt-4o":      {InputCostPer1K: 0.005, OutputCostPer1K: 0.015},
	"gpt-4o-mini": {InputCostPer1K: 0.00015, OutputCostPer1K: 0.0006},

	// Anthropic
	"claude-3-5-sonnet": {InputCostPer1K: 0.003, OutputCostPer1K: 0.015},
	"claude-3-opus":     {InputCostPer1K: 0.015, OutputCostPer1K: 0.075},

	// Google Gemini
	"gemini-1.5-pro":   {InputCostPer1K: 0.00125, OutputCostPer1K: 0.00375},
	"gemini-1.5-flash": {InputCostPer1K: 0.000075, OutputCostPer1K: 0.0003},

	// Groq-hosted
	"llama-3.3-70b-versatile": {InputCostPer1K: 0.00059, OutputCostPer1K: 0.00079},
	"mixtral-8x7b-32768":      {InputCostPer1K: 0.00027, OutputCostPer1K: 0.00027},
}

// Rate returns the rate for a model id, falling back to a standard rate for
// unknown models.
func Rate(modelID string) ModelRate {
	if r, ok := modelRates[modelID]; ok {
		return r
	}
	return fallbackRate
}

// Cost calculates the USD cost of a call given its token counts.
func Cost(modelID string, inputTokens, outputTokens int64) float64 {
	r := Rate(modelID)
	return float64(inputTokens)/1000.0*r.InputCostPer1K + float64(outputTokens)/1000.0*r.OutputCostPer1K
}
