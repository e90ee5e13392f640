package store

import (
	"context"
	"database/sql"
	"fmt"

	"deskpilot/internal/types"
)

const messageColumns = `id, conversation_id, role, content, sent_by_human, agent_id, channel_message_id, created_at`

// Append persists a message. Messages are append-only; there is no update or
// delete path.
func (s *LocalStore) Append(ctx context.Context, msg *types.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var agentID, channelMessageID sql.NullString
	if msg.AgentID != nil {
		agentID = sql.NullString{String: *msg.AgentID, Valid: true}
	}
	if msg.ChannelMessageID != nil {
		channelMessageID = sql.NullString{String: *msg.ChannelMessageID, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (`+messageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, string(msg.Role), msg.Content,
		boolToInt(msg.SentByHuman), agentID, channelMessageID, formatTime(msg.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// List returns the full ordered history for a conversation.
func (s *LocalStore) List(ctx context.Context, conversationID string) ([]types.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM messages
		 WHERE conversation_id = ?
		 ORDER BY created_at ASC, rowid ASC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()
	return collectMessages(rows)
}

// ListRecent returns up to limit newest messages, oldest first.
func (s *LocalStore) ListRecent(ctx context.Context, conversationID string, limit int) ([]types.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM messages
		 WHERE conversation_id = ?
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent messages: %w", err)
	}
	defer rows.Close()

	msgs, err := collectMessages(rows)
	if err != nil {
		return nil, err
	}
	// Reverse back into chronological order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func collectMessages(rows *sql.Rows) ([]types.Message, error) {
	var msgs []types.Message
	for rows.Next() {
		var m types.Message
		var role, createdAt string
		var sentByHuman int
		var agentID, channelMessageID sql.NullString
		if err := rows.Scan(&m.ID, &m.ConversationID, &role, &m.Content,
			&sentByHuman, &agentID, &channelMessageID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Role = types.Role(role)
		m.SentByHuman = sentByHuman != 0
		m.CreatedAt = parseTime(createdAt)
		if agentID.Valid {
			m.AgentID = &agentID.String
		}
		if channelMessageID.Valid {
			m.ChannelMessageID = &channelMessageID.String
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
