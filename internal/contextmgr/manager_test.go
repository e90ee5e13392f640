package contextmgr

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskpilot/internal/types"
)

// makeHistory builds n alternating user/assistant messages of contentLen
// characters each.
func makeHistory(n, contentLen int) []types.Message {
	msgs := make([]types.Message, n)
	for i := range msgs {
		role := types.RoleUser
		if i%2 == 1 {
			role = types.RoleAssistant
		}
		msgs[i] = types.Message{Role: role, Content: strings.Repeat("x", contentLen)}
	}
	return msgs
}

func TestBuildWithinBudgetPassesThrough(t *testing.T) {
	knowledge := &fakeKnowledge{contents: []string{"Our plans start at $29/month."}}
	summarizer := &fakeSummarizer{}
	m := New(knowledge, summarizer, DefaultConfig())

	history := makeHistory(6, 100)
	tc, err := m.Build(context.Background(), history, []string{"src-1"})
	require.NoError(t, err)

	assert.Equal(t, history, tc.Messages, "history must pass through unmodified")
	assert.False(t, tc.Summarized)
	assert.Zero(t, summarizer.calls, "summarizer must not be invoked within budget")
	assert.Contains(t, tc.SystemPrompt, "Our plans start at $29/month.")
	assert.NotContains(t, tc.SystemPrompt, "PREVIOUS CONVERSATION SUMMARY")
	assert.Equal(t, []string{"src-1"}, knowledge.gotIDs)
}

func TestBuildOverBudgetSummarizesOlder(t *testing.T) {
	knowledge := &fakeKnowledge{contents: []string{"kb text"}}
	summarizer := &fakeSummarizer{summary: "they discussed pricing at length"}
	m := New(knowledge, summarizer, DefaultConfig())

	// 30 messages x 900 chars ~= 6872 tokens, over the 6000 budget.
	history := makeHistory(30, 900)
	tc, err := m.Build(context.Background(), history, nil)
	require.NoError(t, err)

	assert.True(t, tc.Summarized)
	assert.Len(t, tc.Messages, 10, "exactly the last recentWindow messages are retained")
	assert.Equal(t, history[20:], tc.Messages)
	assert.Equal(t, 1, summarizer.calls)
	assert.Len(t, summarizer.got, 20, "everything before the window is summarized")
	assert.Contains(t, tc.SystemPrompt, "PREVIOUS CONVERSATION SUMMARY:\n\nthey discussed pricing at length")
}

func TestBuildOverBudgetFewMessages(t *testing.T) {
	// Over budget but fewer messages than the window: nothing older exists,
	// so no summary and the full list is emitted.
	knowledge := &fakeKnowledge{}
	summarizer := &fakeSummarizer{}
	m := New(knowledge, summarizer, DefaultConfig())

	history := makeHistory(4, 8000)
	tc, err := m.Build(context.Background(), history, nil)
	require.NoError(t, err)

	assert.False(t, tc.Summarized)
	assert.Zero(t, summarizer.calls)
	assert.Len(t, tc.Messages, 4)
}

func TestBuildSummarizerFailureAbortsTurn(t *testing.T) {
	knowledge := &fakeKnowledge{}
	summarizer := &fakeSummarizer{err: errBoom}
	m := New(knowledge, summarizer, DefaultConfig())

	_, err := m.Build(context.Background(), makeHistory(30, 900), nil)
	require.Error(t, err)

	var cae *types.ContextAssemblyError
	require.ErrorAs(t, err, &cae)
	assert.Equal(t, "summarize", cae.Stage)
	assert.ErrorIs(t, err, errBoom)
}

func TestBuildKnowledgeFailureAbortsTurn(t *testing.T) {
	knowledge := &fakeKnowledge{err: errBoom}
	m := New(knowledge, &fakeSummarizer{}, DefaultConfig())

	_, err := m.Build(context.Background(), makeHistory(2, 10), []string{"src-1"})
	require.Error(t, err)

	var cae *types.ContextAssemblyError
	require.ErrorAs(t, err, &cae)
	assert.Equal(t, "knowledge", cae.Stage)
}

func TestBuildJoinsNonEmptyKnowledge(t *testing.T) {
	knowledge := &fakeKnowledge{contents: []string{"first", "", "  ", "second"}}
	m := New(knowledge, &fakeSummarizer{}, DefaultConfig())

	tc, err := m.Build(context.Background(), makeHistory(2, 10), []string{"a", "b", "c", "d"})
	require.NoError(t, err)
	assert.Contains(t, tc.SystemPrompt, "first\n\nsecond")
}

func TestParseReplySentinelExactPrefix(t *testing.T) {
	r := ParseReply("[ESCALATED] I've escalated this to our support team. Someone will be with you shortly.")
	assert.True(t, r.EscalationRequested)
	assert.Equal(t, "I've escalated this to our support team. Someone will be with you shortly.", r.Text)

	// Substring occurrences never trigger escalation.
	r = ParseReply("I said [ESCALATED] already")
	assert.False(t, r.EscalationRequested)
	assert.Equal(t, "I said [ESCALATED] already", r.Text)

	// Case-sensitive.
	r = ParseReply("[escalated] nope")
	assert.False(t, r.EscalationRequested)
}

func TestRenderSystemPromptSubstitution(t *testing.T) {
	got := renderSystemPrompt("CTX-MARKER")
	assert.Contains(t, got, "CTX-MARKER")
	assert.NotContains(t, got, contextPlaceholder)
	assert.Contains(t, got, Sentinel, "template must spell out the sentinel contract")
}

func TestLLMSummarizerPromptShape(t *testing.T) {
	client := &fakeCompletion{response: "  a dense summary  "}
	s := NewLLMSummarizer(client)

	msgs := []types.Message{
		{Role: types.RoleUser, Content: "how much is the pro plan?"},
		{Role: types.RoleAssistant, Content: "The pro plan is $49/month."},
	}
	got, err := s.Summarize(context.Background(), msgs)
	require.NoError(t, err)
	assert.Equal(t, "a dense summary", got)
	assert.Contains(t, client.gotUser, "User: how much is the pro plan?")
	assert.Contains(t, client.gotUser, "Assistant: The pro plan is $49/month.")
	assert.Contains(t, client.gotUser, "2000 words")
	assert.NotEmpty(t, client.gotSystem)
}

func TestLLMSummarizerEmptyInput(t *testing.T) {
	client := &fakeCompletion{response: "should not be called"}
	s := NewLLMSummarizer(client)
	got, err := s.Summarize(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
