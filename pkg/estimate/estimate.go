// Package estimate produces pre-flight token estimates for prompts. The
// governor charges real token counts after the vendor responds; estimates
// exist for logging, capacity planning and the CLI, and never feed
// admission math.
package estimate

import (
	"sync"
	"unicode"

	"github.com/tiktoken-go/tokenizer"

	"github.com/tollgate-ai/tollgate/pkg/models"
)

// perMessageOverhead approximates the per-turn wrapping cost of chat
// formats (role markers, separators).
const perMessageOverhead = 4

var codecOnce = sync.OnceValues(func() (tokenizer.Codec, error) {
	return tokenizer.Get(tokenizer.Cl100kBase)
})

// Tokens estimates the token count of a piece of text. It uses the cl100k
// tokenizer and falls back to a character heuristic if the codec is
// unavailable.
func Tokens(text string) int {
	if text == "" {
		return 0
	}
	codec, err := codecOnce()
	if err == nil {
		if n, err := codec.Count(text); err == nil {
			return n
		}
	}
	return heuristicTokens(text)
}

// Conversation estimates the total prompt cost of a full request: system
// prompt, history and the new user message.
func Conversation(systemPrompt string, history []models.Message, prompt string) int {
	total := 0
	if systemPrompt != "" {
		total += Tokens(systemPrompt) + perMessageOverhead
	}
	for _, m := range history {
		total += Tokens(m.Content) + perMessageOverhead
	}
	return total + Tokens(prompt) + perMessageOverhead
}

// heuristicTokens approximates token counts from character classes: western
// text averages ~4 characters per token, while CJK and similar scripts run
// close to one token per character.
func heuristicTokens(text string) int {
	western := 0
	other := 0
	for _, r := range text {
		if isWesternChar(r) {
			western++
		} else {
			other++
		}
	}
	n := western/4 + other
	if n == 0 {
		n = 1
	}
	return n
}

func isWesternChar(r rune) bool {
	if r <= 0x024F {
		// ASCII, Latin-1 and Latin Extended blocks.
		return true
	}
	return unicode.Is(unicode.Latin, r)
}
