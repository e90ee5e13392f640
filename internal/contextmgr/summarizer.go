package contextmgr

import (
	"context"
	"fmt"
	"strings"

	"deskpilot/internal/types"
)

const summarizerSystemPrompt = "You are a context compressor. Your job is to summarize conversation history so an AI support agent retains memory of everything that matters."

// LLMSummarizer implements types.Summarizer with a completion call.
type LLMSummarizer struct {
	client types.CompletionClient
}

// NewLLMSummarizer creates a summarizer backed by the given client.
func NewLLMSummarizer(client types.CompletionClient) *LLMSummarizer {
	return &LLMSummarizer{client: client}
}

// Summarize condenses the given turns into a single dense paragraph capped at
// 2000 words. Errors propagate; callers must not fabricate a summary.
func (s *LLMSummarizer) Summarize(ctx context.Context, messages []types.Message) (string, error) {
	if len(messages) == 0 {
		return "", nil
	}

	var sb strings.Builder
	for _, m := range messages {
		role := "Assistant"
		if m.Role == types.RoleUser {
			role = "User"
		}
		fmt.Fprintf(&sb, "%s: %s\n", role, m.Content)
	}

	prompt := fmt.Sprintf(`Summarize the following customer support conversation into a single dense paragraph of at most 2000 words.
Retain the customer's questions, commitments made, product details discussed, and any unresolved issues.
Discard small talk and redundant clarifications.

Conversation:
%s

Summary:`, sb.String())

	summary, err := s.client.CompleteWithSystem(ctx, summarizerSystemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("summarization failed: %w", err)
	}
	return strings.TrimSpace(summary), nil
}
