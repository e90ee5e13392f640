// Package contextmgr assembles the token-bounded prompt context for a single
// reply turn: knowledge contents, optional recursive summarization of older
// history, and the persona system prompt carrying the escalation protocol.
package contextmgr

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"deskpilot/internal/logging"
	"deskpilot/internal/tokencount"
	"deskpilot/internal/types"
)

// Config bounds a turn's input.
type Config struct {
	// TokenBudget is the maximum CountConversation value before older history
	// is summarized away.
	TokenBudget int
	// RecentWindow is how many trailing messages survive truncation verbatim.
	RecentWindow int
}

// DefaultConfig mirrors the production defaults.
func DefaultConfig() Config {
	return Config{TokenBudget: 6000, RecentWindow: 10}
}

const summaryHeader = "PREVIOUS CONVERSATION SUMMARY:\n\n"

// TurnContext is the manager's output for one reply turn.
type TurnContext struct {
	// SystemPrompt is the persona template with the assembled context
	// substituted in.
	SystemPrompt string
	// Messages is the (possibly trimmed) list to submit to the completion
	// service.
	Messages []types.Message
	// Summarized reports whether older history was replaced by a summary.
	Summarized bool
	// TotalTokens is the token count of the full, untrimmed history.
	TotalTokens int
}

// Manager builds turn contexts. Safe for concurrent use; it holds no
// per-conversation state.
type Manager struct {
	knowledge  types.KnowledgeLookup
	summarizer types.Summarizer
	counter    *tokencount.Counter
	cfg        Config
	log        *zap.Logger
}

// New creates a Manager.
func New(knowledge types.KnowledgeLookup, summarizer types.Summarizer, cfg Config) *Manager {
	return &Manager{
		knowledge:  knowledge,
		summarizer: summarizer,
		counter:    tokencount.New(),
		cfg:        cfg,
		log:        logging.Get(logging.CategoryContext),
	}
}

// Build assembles the context for one reply turn from the full ordered
// history and the conversation's knowledge-source ids.
//
// Histories within the token budget pass through unmodified and the
// summarizer is never invoked. Over budget, exactly the last RecentWindow
// messages are kept verbatim and everything before them is summarized; a
// summarization or knowledge-lookup failure aborts the turn with a
// ContextAssemblyError rather than proceeding with an unbounded context.
func (m *Manager) Build(ctx context.Context, history []types.Message, knowledgeIDs []string) (*TurnContext, error) {
	total := m.counter.CountConversation(history)

	working := history
	summarize := false
	var older []types.Message
	if total > m.cfg.TokenBudget {
		older, working = splitRecent(history, m.cfg.RecentWindow)
		summarize = len(older) > 0
		m.log.Info("history over budget, truncating",
			zap.Int("total_tokens", total),
			zap.Int("token_budget", m.cfg.TokenBudget),
			zap.Int("older", len(older)),
			zap.Int("recent", len(working)))
	}

	// Knowledge fetch and summarization are independent; run them together.
	var knowledgeContext, summary string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		contents, err := m.knowledge.GetContents(gctx, knowledgeIDs)
		if err != nil {
			return &types.ContextAssemblyError{Stage: "knowledge", Err: err}
		}
		knowledgeContext = joinNonEmpty(contents)
		return nil
	})
	if summarize {
		g.Go(func() error {
			s, err := m.summarizer.Summarize(gctx, older)
			if err != nil {
				return &types.ContextAssemblyError{Stage: "summarize", Err: err}
			}
			summary = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	contextStr := knowledgeContext
	if summarize {
		contextStr = summaryHeader + summary + "\n\n" + knowledgeContext
	}

	return &TurnContext{
		SystemPrompt: renderSystemPrompt(contextStr),
		Messages:     working,
		Summarized:   summarize,
		TotalTokens:  total,
	}, nil
}

// splitRecent separates history into everything before the recent window and
// the last window messages.
func splitRecent(history []types.Message, window int) (older, recent []types.Message) {
	if len(history) <= window {
		return nil, history
	}
	cut := len(history) - window
	return history[:cut], history[cut:]
}

func joinNonEmpty(contents []string) string {
	var parts []string
	for _, c := range contents {
		if strings.TrimSpace(c) != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, "\n\n")
}
