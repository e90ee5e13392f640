// Package types defines the shared domain model for deskpilot: conversations,
// messages, the agent activity ledger, and the collaborator interfaces the core
// components consume. Keeping these here avoids import cycles between the
// handoff, context, and turn packages.
package types

import "time"

// Mode is who currently serves a conversation.
type Mode string

const (
	ModeBot   Mode = "bot"
	ModeHuman Mode = "human"
)

// ConversationStatus is orthogonal to Mode.
type ConversationStatus string

const (
	StatusActive   ConversationStatus = "active"
	StatusResolved ConversationStatus = "resolved"
	StatusArchived ConversationStatus = "archived"
)

// Conversation is keyed by (Channel, ChannelAddress): at most one open
// conversation per contact point per channel. The ID is a stable handle for
// references from messages and audit entries, not the identity key.
//
// Invariant: Mode == ModeHuman implies AssignedAgentID and TakeoverStartedAt
// are both set; Mode == ModeBot implies both are nil.
type Conversation struct {
	ID             string
	OrganizationID string
	ChatbotID      string
	Channel        string
	ChannelAddress string

	Mode              Mode
	AssignedAgentID   *string
	TakeoverStartedAt *time.Time

	Status    ConversationStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Role is the speaker of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is an append-only conversation entry. Ordering by CreatedAt defines
// the history used for context assembly.
type Message struct {
	ID               string
	ConversationID   string
	Role             Role
	Content          string
	SentByHuman      bool
	AgentID          *string
	ChannelMessageID *string
	CreatedAt        time.Time
}

// AgentAction enumerates the audit ledger actions.
type AgentAction string

const (
	ActionTakeover    AgentAction = "takeover"
	ActionRelease     AgentAction = "release"
	ActionMessageSent AgentAction = "message_sent"
)

// AgentActivityLogEntry is an append-only audit record. It is never mutated or
// deleted; consecutive takeover entries for the same conversation are valid
// under concurrent agent actions, and the ledger (not the conversation row) is
// the source of truth for who did what.
type AgentActivityLogEntry struct {
	ID             string
	ConversationID string
	AgentID        string
	Action         AgentAction
	Timestamp      time.Time
}

// NotificationKind is the routing key family for operator notifications.
type NotificationKind string

const (
	// NotifyInboundHuman: an inbound message arrived on a human-mode
	// conversation and the bot was suppressed.
	NotifyInboundHuman NotificationKind = "conversation.inbound.human"
	// NotifyEscalated: the bot asked for a handoff via the escalation sentinel.
	NotifyEscalated NotificationKind = "conversation.escalated"
	NotifyTakeover  NotificationKind = "conversation.takeover"
	NotifyRelease   NotificationKind = "conversation.release"
)

// NotificationEvent is published on the operator notification path.
type NotificationEvent struct {
	Kind           NotificationKind `json:"kind"`
	ConversationID string           `json:"conversation_id"`
	OrganizationID string           `json:"organization_id"`
	AgentID        string           `json:"agent_id,omitempty"`
	Body           string           `json:"body,omitempty"`
	OccurredAt     time.Time        `json:"occurred_at"`
}
