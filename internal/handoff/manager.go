// Package handoff implements the escalation and handoff state machine that
// decides whether a conversation is served by the bot or a human operator.
//
// The state machine is deliberately advisory: takeover from human mode
// reassigns without requiring a release, release carries no ownership check,
// and concurrent takeovers are last-write-wins. The audit ledger, not the
// conversation row, is the record of who did what: every transition appends
// an entry regardless of who wins the row.
package handoff

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"deskpilot/internal/logging"
	"deskpilot/internal/types"
)

// Status is the pure-read view of a conversation's handoff state.
type Status struct {
	Mode              types.Mode
	AssignedAgentID   *string
	TakeoverStartedAt *time.Time
}

// Manager drives takeover/release transitions over the conversation store and
// audit ledger.
type Manager struct {
	conversations types.ConversationStore
	messages      types.MessageStore
	audit         types.AuditLog
	notifier      types.Notifier
	log           *zap.Logger
	now           func() time.Time
}

// New creates a Manager.
func New(conversations types.ConversationStore, messages types.MessageStore, audit types.AuditLog, notifier types.Notifier) *Manager {
	return &Manager{
		conversations: conversations,
		messages:      messages,
		audit:         audit,
		notifier:      notifier,
		log:           logging.Get(logging.CategoryHandoff),
		now:           time.Now,
	}
}

// Takeover assigns the conversation to agentID and switches it to human mode.
// Valid from either state: taking over a human-mode conversation reassigns it
// to the new agent without a prior release.
func (m *Manager) Takeover(ctx context.Context, conversationID, agentID string) error {
	conv, err := m.conversations.Get(ctx, conversationID)
	if err != nil {
		return err
	}

	startedAt := m.now().UTC()
	if err := m.conversations.SetMode(ctx, conv.ID, types.ModeHuman, agentID, startedAt); err != nil {
		return err
	}
	if err := m.appendAudit(ctx, conv.ID, agentID, types.ActionTakeover); err != nil {
		return err
	}

	m.log.Info("conversation taken over",
		zap.String("conversation_id", conv.ID),
		zap.String("agent_id", agentID))
	m.publish(ctx, types.NotifyTakeover, conv, agentID, "")
	return nil
}

// Release returns the conversation to bot mode and clears the assignment. Any
// operator may release a conversation assigned to someone else; the ledger
// records who did it.
func (m *Manager) Release(ctx context.Context, conversationID, agentID string) error {
	conv, err := m.conversations.Get(ctx, conversationID)
	if err != nil {
		return err
	}

	if err := m.conversations.SetMode(ctx, conv.ID, types.ModeBot, "", time.Time{}); err != nil {
		return err
	}
	if err := m.appendAudit(ctx, conv.ID, agentID, types.ActionRelease); err != nil {
		return err
	}

	m.log.Info("conversation released",
		zap.String("conversation_id", conv.ID),
		zap.String("agent_id", agentID))
	m.publish(ctx, types.NotifyRelease, conv, agentID, "")
	return nil
}

// GetStatus is a pure read of the current handoff state.
func (m *Manager) GetStatus(ctx context.Context, conversationID string) (*Status, error) {
	conv, err := m.conversations.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return &Status{
		Mode:              conv.Mode,
		AssignedAgentID:   conv.AssignedAgentID,
		TakeoverStartedAt: conv.TakeoverStartedAt,
	}, nil
}

// AgentMessage is an outbound message sent by a human operator.
type AgentMessage struct {
	OrganizationID   string
	ChatbotID        string
	Channel          string
	ChannelAddress   string
	AgentID          string
	Content          string
	ChannelMessageID string
}

// SendAgentMessage persists an operator-sent message, creating the
// conversation directly in human mode when none exists for the address
// (implicit takeover) and taking over when the conversation is still in bot
// mode. Sending into an already-human conversation does not re-trigger a
// takeover.
func (m *Manager) SendAgentMessage(ctx context.Context, am AgentMessage) (*types.Conversation, error) {
	conv, err := m.conversations.GetByAddress(ctx, am.Channel, am.ChannelAddress)
	switch {
	case err == nil:
		if conv.Mode == types.ModeBot {
			if err := m.Takeover(ctx, conv.ID, am.AgentID); err != nil {
				return nil, err
			}
			conv, err = m.conversations.Get(ctx, conv.ID)
			if err != nil {
				return nil, err
			}
		}
	case errors.Is(err, types.ErrNotFound):
		conv, err = m.createInHumanMode(ctx, am)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	agentID := am.AgentID
	msg := &types.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           types.RoleAssistant,
		Content:        am.Content,
		SentByHuman:    true,
		AgentID:        &agentID,
		CreatedAt:      m.now().UTC(),
	}
	if am.ChannelMessageID != "" {
		msg.ChannelMessageID = &am.ChannelMessageID
	}
	if err := m.messages.Append(ctx, msg); err != nil {
		return nil, err
	}
	if err := m.appendAudit(ctx, conv.ID, am.AgentID, types.ActionMessageSent); err != nil {
		return nil, err
	}
	return conv, nil
}

// createInHumanMode creates a conversation for an operator-originated thread,
// recording a synthetic takeover entry.
func (m *Manager) createInHumanMode(ctx context.Context, am AgentMessage) (*types.Conversation, error) {
	now := m.now().UTC()
	agentID := am.AgentID
	conv := &types.Conversation{
		ID:                uuid.NewString(),
		OrganizationID:    am.OrganizationID,
		ChatbotID:         am.ChatbotID,
		Channel:           am.Channel,
		ChannelAddress:    am.ChannelAddress,
		Mode:              types.ModeHuman,
		AssignedAgentID:   &agentID,
		TakeoverStartedAt: &now,
		Status:            types.StatusActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := m.conversations.Create(ctx, conv); err != nil {
		return nil, err
	}
	if err := m.appendAudit(ctx, conv.ID, am.AgentID, types.ActionTakeover); err != nil {
		return nil, err
	}
	m.log.Info("conversation created in human mode",
		zap.String("conversation_id", conv.ID),
		zap.String("agent_id", am.AgentID))
	return conv, nil
}

func (m *Manager) appendAudit(ctx context.Context, conversationID, agentID string, action types.AgentAction) error {
	return m.audit.Append(ctx, &types.AgentActivityLogEntry{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		AgentID:        agentID,
		Action:         action,
		Timestamp:      m.now().UTC(),
	})
}

// publish sends a best-effort operator notification. Delivery failures are
// logged, not propagated: the state transition already committed.
func (m *Manager) publish(ctx context.Context, kind types.NotificationKind, conv *types.Conversation, agentID, body string) {
	if m.notifier == nil {
		return
	}
	event := types.NotificationEvent{
		Kind:           kind,
		ConversationID: conv.ID,
		OrganizationID: conv.OrganizationID,
		AgentID:        agentID,
		Body:           body,
		OccurredAt:     m.now().UTC(),
	}
	if err := m.notifier.Publish(ctx, event); err != nil {
		m.log.Warn("notification publish failed",
			zap.String("kind", string(kind)),
			zap.String("conversation_id", conv.ID),
			zap.Error(err))
	}
}
