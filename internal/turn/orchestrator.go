// Package turn sequences one inbound customer message through the core:
// conversation lookup, message persistence, the mode gate, context assembly,
// the completion call, and escalation handling.
package turn

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"deskpilot/internal/contextmgr"
	"deskpilot/internal/logging"
	"deskpilot/internal/scoring"
	"deskpilot/internal/types"
)

// Apology is the fixed user-visible reply for any failed or timed-out turn.
// Internal errors are logged, never shown to the customer.
const Apology = "I'm sorry, I'm having trouble responding right now. Please try again in a moment."

// Inbound is one customer message arriving from a channel adapter.
type Inbound struct {
	OrganizationID   string
	ChatbotID        string
	Channel          string
	ChannelAddress   string
	Content          string
	ChannelMessageID *string
	// KnowledgeSourceIDs selects the knowledge contents assembled into the
	// reply context.
	KnowledgeSourceIDs []string
}

// Outcome is the result of one turn. When Suppressed is true the conversation
// is human-operated and no reply was generated. When the turn fails, Reply
// carries the apology text alongside the returned error.
type Outcome struct {
	ConversationID string
	Reply          string
	Suppressed     bool
	Escalated      bool
	Summarized     bool
	TotalTokens    int
}

// Orchestrator coordinates the per-turn pipeline. Stateless between turns;
// safe for concurrent use across conversations.
type Orchestrator struct {
	conversations types.ConversationStore
	messages      types.MessageStore
	ctxmgr        *contextmgr.Manager
	completion    types.CompletionClient
	scorer        *scoring.Service
	notifier      types.Notifier
	log           *zap.Logger
	now           func() time.Time
}

// New creates an Orchestrator.
func New(
	conversations types.ConversationStore,
	messages types.MessageStore,
	ctxmgr *contextmgr.Manager,
	completion types.CompletionClient,
	scorer *scoring.Service,
	notifier types.Notifier,
) *Orchestrator {
	return &Orchestrator{
		conversations: conversations,
		messages:      messages,
		ctxmgr:        ctxmgr,
		completion:    completion,
		scorer:        scorer,
		notifier:      notifier,
		log:           logging.Get(logging.CategoryTurn),
		now:           time.Now,
	}
}

// HandleInbound processes one customer message.
//
// The inbound message is always persisted first. If the conversation is
// human-operated, the turn stops there: no context is assembled, no
// completion call is made, and the assigned operator is notified instead.
// Context assembly or completion failures abort the turn after the inbound
// write; the returned Outcome carries the apology text and the error explains
// the failure to the caller.
func (o *Orchestrator) HandleInbound(ctx context.Context, in Inbound) (*Outcome, error) {
	conv, err := o.findOrCreate(ctx, in)
	if err != nil {
		return nil, err
	}

	inboundMsg := &types.Message{
		ID:               uuid.NewString(),
		ConversationID:   conv.ID,
		Role:             types.RoleUser,
		Content:          in.Content,
		ChannelMessageID: in.ChannelMessageID,
		CreatedAt:        o.now().UTC(),
	}
	if err := o.messages.Append(ctx, inboundMsg); err != nil {
		return nil, fmt.Errorf("failed to persist inbound message: %w", err)
	}

	if conv.Mode == types.ModeHuman {
		o.log.Info("conversation is human-operated, bot suppressed",
			zap.String("conversation_id", conv.ID))
		o.publish(ctx, conv, types.NotifyInboundHuman, in.Content)
		return &Outcome{ConversationID: conv.ID, Suppressed: true}, nil
	}

	history, err := o.messages.List(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	tc, err := o.ctxmgr.Build(ctx, history, in.KnowledgeSourceIDs)
	if err != nil {
		o.log.Error("context assembly failed",
			zap.String("conversation_id", conv.ID),
			zap.String("organization_id", conv.OrganizationID),
			zap.Error(err))
		return &Outcome{ConversationID: conv.ID, Reply: Apology}, err
	}

	raw, err := o.completion.CompleteWithSystem(ctx, tc.SystemPrompt, renderTranscript(tc.Messages))
	if err != nil {
		cerr := &types.CompletionError{Err: err}
		o.log.Error("completion failed",
			zap.String("conversation_id", conv.ID),
			zap.String("organization_id", conv.OrganizationID),
			zap.Error(cerr))
		return &Outcome{ConversationID: conv.ID, Reply: Apology}, cerr
	}

	reply := contextmgr.ParseReply(raw)

	assistantMsg := &types.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           types.RoleAssistant,
		Content:        reply.Text,
		CreatedAt:      o.now().UTC(),
	}
	if err := o.messages.Append(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("failed to persist reply: %w", err)
	}

	if reply.EscalationRequested {
		o.log.Info("escalation requested by reply",
			zap.String("conversation_id", conv.ID))
		o.publish(ctx, conv, types.NotifyEscalated, reply.Text)
	}

	return &Outcome{
		ConversationID: conv.ID,
		Reply:          reply.Text,
		Escalated:      reply.EscalationRequested,
		Summarized:     tc.Summarized,
		TotalTokens:    tc.TotalTokens,
	}, nil
}

// ScoreLead evaluates the organization's active scoring rules against the
// given factors. The result is returned to the caller, not persisted here.
func (o *Orchestrator) ScoreLead(ctx context.Context, organizationID string, factors scoring.Factors) (scoring.Result, error) {
	return o.scorer.Score(ctx, organizationID, factors)
}

// findOrCreate resolves the conversation for a contact point, creating it in
// bot mode on first contact.
func (o *Orchestrator) findOrCreate(ctx context.Context, in Inbound) (*types.Conversation, error) {
	conv, err := o.conversations.GetByAddress(ctx, in.Channel, in.ChannelAddress)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		return nil, fmt.Errorf("failed to resolve conversation: %w", err)
	}

	now := o.now().UTC()
	conv = &types.Conversation{
		ID:             uuid.NewString(),
		OrganizationID: in.OrganizationID,
		ChatbotID:      in.ChatbotID,
		Channel:        in.Channel,
		ChannelAddress: in.ChannelAddress,
		Mode:           types.ModeBot,
		Status:         types.StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := o.conversations.Create(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	o.log.Info("conversation created",
		zap.String("conversation_id", conv.ID),
		zap.String("channel", conv.Channel))
	return conv, nil
}

// publish sends a notification event without failing the turn. Delivery is
// best effort; failures are logged.
func (o *Orchestrator) publish(ctx context.Context, conv *types.Conversation, kind types.NotificationKind, body string) {
	agentID := ""
	if conv.AssignedAgentID != nil {
		agentID = *conv.AssignedAgentID
	}
	event := types.NotificationEvent{
		Kind:           kind,
		ConversationID: conv.ID,
		OrganizationID: conv.OrganizationID,
		AgentID:        agentID,
		Body:           body,
		OccurredAt:     o.now().UTC(),
	}
	if err := o.notifier.Publish(ctx, event); err != nil {
		o.log.Warn("notification publish failed",
			zap.String("kind", string(kind)),
			zap.String("conversation_id", conv.ID),
			zap.Error(err))
	}
}

// renderTranscript flattens the trimmed history into the user-prompt format
// the completion clients accept.
func renderTranscript(messages []types.Message) string {
	var sb strings.Builder
	for _, m := range messages {
		role := "Assistant"
		if m.Role == types.RoleUser {
			role = "User"
		}
		fmt.Fprintf(&sb, "%s: %s\n", role, m.Content)
	}
	return sb.String()
}
