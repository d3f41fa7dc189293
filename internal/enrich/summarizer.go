package enrich

import (
	"context"
	"fmt"
	"strings"
)

// Completer is the slice of the LLM client the summarizer needs.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// LLMSummarizer condenses text through a chat completion. Inputs below the
// word threshold are not worth a round trip and yield an empty summary.
type LLMSummarizer struct {
	client       Completer
	minWords     int
	maxSentences int
}

// NewLLMSummarizer builds a summarizer over an LLM client.
func NewLLMSummarizer(client Completer, minWords, maxSentences int) *LLMSummarizer {
	if minWords <= 0 {
		minWords = 100
	}
	if maxSentences <= 0 {
		maxSentences = 3
	}
	return &LLMSummarizer{client: client, minWords: minWords, maxSentences: maxSentences}
}

// Summarize returns a short summary, or "" when the input is too short.
func (s *LLMSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	if len(strings.Fields(text)) < s.minWords {
		return "", nil
	}
	system := fmt.Sprintf(
		"You summarize archived chat content. Reply with a plain-text summary of at most %d sentences. No preamble, no markdown.",
		s.maxSentences)
	summary, err := s.client.Complete(ctx, system, text)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(summary), nil
}
