package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"deskpilot/internal/types"
)

const conversationColumns = `id, organization_id, chatbot_id, channel, channel_address,
	mode, assigned_agent_id, takeover_started_at, status, created_at, updated_at`

// Get returns a conversation by id.
func (s *LocalStore) Get(ctx context.Context, conversationID string) (*types.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = ?`, conversationID)
	return scanConversation(row)
}

// GetByAddress returns the conversation for a contact point, if any.
func (s *LocalStore) GetByAddress(ctx context.Context, channel, channelAddress string) (*types.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE channel = ? AND channel_address = ?`,
		channel, channelAddress)
	return scanConversation(row)
}

// Create inserts a conversation row. The unique index on
// (channel, channel_address) rejects a second conversation for the same
// contact point.
func (s *LocalStore) Create(ctx context.Context, conv *types.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var agentID, startedAt sql.NullString
	if conv.AssignedAgentID != nil {
		agentID = sql.NullString{String: *conv.AssignedAgentID, Valid: true}
	}
	if conv.TakeoverStartedAt != nil {
		startedAt = sql.NullString{String: formatTime(*conv.TakeoverStartedAt), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (`+conversationColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		conv.ID, conv.OrganizationID, conv.ChatbotID, conv.Channel, conv.ChannelAddress,
		string(conv.Mode), agentID, startedAt, string(conv.Status),
		formatTime(conv.CreatedAt), formatTime(conv.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	s.log.Debug("conversation created",
		zap.String("conversation_id", conv.ID),
		zap.String("channel", conv.Channel))
	return nil
}

// SetMode switches the serving mode in one blind UPDATE. Concurrent callers
// both succeed; the last write wins.
func (s *LocalStore) SetMode(ctx context.Context, conversationID string, mode types.Mode, agentID string, startedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res sql.Result
	var err error
	if mode == types.ModeHuman {
		res, err = s.db.ExecContext(ctx,
			`UPDATE conversations
			 SET mode = ?, assigned_agent_id = ?, takeover_started_at = ?, updated_at = ?
			 WHERE id = ?`,
			string(mode), agentID, formatTime(startedAt), formatTime(time.Now()), conversationID)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE conversations
			 SET mode = ?, assigned_agent_id = NULL, takeover_started_at = NULL, updated_at = ?
			 WHERE id = ?`,
			string(mode), formatTime(time.Now()), conversationID)
	}
	if err != nil {
		return fmt.Errorf("failed to set mode: %w", err)
	}
	return requireRow(res)
}

// SetStatus updates the lifecycle status, orthogonal to mode.
func (s *LocalStore) SetStatus(ctx context.Context, conversationID string, status types.ConversationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), formatTime(time.Now()), conversationID)
	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

func scanConversation(row *sql.Row) (*types.Conversation, error) {
	var conv types.Conversation
	var mode, status, createdAt, updatedAt string
	var agentID, startedAt sql.NullString

	err := row.Scan(&conv.ID, &conv.OrganizationID, &conv.ChatbotID, &conv.Channel, &conv.ChannelAddress,
		&mode, &agentID, &startedAt, &status, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan conversation: %w", err)
	}

	conv.Mode = types.Mode(mode)
	conv.Status = types.ConversationStatus(status)
	conv.CreatedAt = parseTime(createdAt)
	conv.UpdatedAt = parseTime(updatedAt)
	if agentID.Valid {
		conv.AssignedAgentID = &agentID.String
	}
	if startedAt.Valid {
		t := parseTime(startedAt.String)
		conv.TakeoverStartedAt = &t
	}
	return &conv, nil
}
