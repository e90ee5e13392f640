// Package tokencount estimates token costs for context budget comparisons.
// The heuristic is calibrated for cl100k-family tokenizers (~4 characters per
// token); exact tokenization is not needed because the same counter is used on
// both sides of every budget comparison.
package tokencount

import (
	"unicode/utf8"

	"deskpilot/internal/types"
)

// Per-message and per-conversation framing overheads of the encoding model.
// These must match the values used when the token budget was calibrated, so
// budget comparisons line up with reference behavior.
const (
	messageOverhead      = 4
	conversationOverhead = 2
)

// Counter provides deterministic token estimation. Zero dependencies, no side
// effects, never fails.
type Counter struct {
	charsPerToken float64
}

// New creates a Counter with the default calibration.
func New() *Counter {
	return &Counter{charsPerToken: 4.0}
}

// Count estimates tokens in a string. Empty input encodes to 0.
func (c *Counter) Count(s string) int {
	if s == "" {
		return 0
	}
	// Rune count for proper unicode handling.
	runes := utf8.RuneCountInString(s)
	return int(float64(runes) / c.charsPerToken)
}

// CountConversation computes the total token cost of an ordered message
// sequence: sum of (messageOverhead + Count(content)) per message, plus one
// conversationOverhead for the sequence framing.
func (c *Counter) CountConversation(messages []types.Message) int {
	total := 0
	for _, m := range messages {
		total += messageOverhead + c.Count(m.Content)
	}
	return total + conversationOverhead
}
