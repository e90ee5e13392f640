package types

import (
	"context"
	"time"
)

// ConversationStore persists conversation rows.
//
// SetMode deliberately performs a single blind UPDATE rather than a
// read-modify-write under a lock: concurrent takeovers both succeed and the
// last write wins. This is an advisory assignment model; the audit ledger
// records every attempt.
type ConversationStore interface {
	Get(ctx context.Context, conversationID string) (*Conversation, error)
	GetByAddress(ctx context.Context, channel, channelAddress string) (*Conversation, error)
	Create(ctx context.Context, conv *Conversation) error
	// SetMode switches who serves the conversation. For ModeHuman, agentID and
	// startedAt are recorded; for ModeBot both columns are cleared and the
	// arguments are ignored.
	SetMode(ctx context.Context, conversationID string, mode Mode, agentID string, startedAt time.Time) error
	SetStatus(ctx context.Context, conversationID string, status ConversationStatus) error
}

// MessageStore persists append-only message history.
type MessageStore interface {
	Append(ctx context.Context, msg *Message) error
	// ListRecent returns up to limit newest messages in chronological order.
	ListRecent(ctx context.Context, conversationID string, limit int) ([]Message, error)
	// List returns the full ordered history.
	List(ctx context.Context, conversationID string) ([]Message, error)
}

// AuditLog is the append-only agent activity ledger.
type AuditLog interface {
	Append(ctx context.Context, entry *AgentActivityLogEntry) error
	ListByConversation(ctx context.Context, conversationID string) ([]AgentActivityLogEntry, error)
}

// KnowledgeLookup resolves knowledge-source ids to their content fields.
// Missing or empty sources yield empty strings, not errors.
type KnowledgeLookup interface {
	GetContents(ctx context.Context, sourceIDs []string) ([]string, error)
}

// Summarizer condenses older conversation history into a dense paragraph.
// May fail; callers must not fall back to the untruncated history.
type Summarizer interface {
	Summarize(ctx context.Context, messages []Message) (string, error)
}

// CompletionClient is the minimal LLM interface the core calls.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Notifier publishes operator notification events. Implementations must be
// safe for concurrent use.
type Notifier interface {
	Publish(ctx context.Context, event NotificationEvent) error
}

// NopNotifier discards events; used when no broker is configured.
type NopNotifier struct{}

func (NopNotifier) Publish(context.Context, NotificationEvent) error { return nil }
