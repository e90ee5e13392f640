package store

import (
	"context"
	"fmt"

	"deskpilot/internal/types"
)

// AuditLog returns a view of the store satisfying types.AuditLog. A view is
// needed because the message store already claims the Append method name.
func (s *LocalStore) AuditLog() types.AuditLog { return auditView{s} }

type auditView struct{ s *LocalStore }

func (v auditView) Append(ctx context.Context, entry *types.AgentActivityLogEntry) error {
	return v.s.AppendAudit(ctx, entry)
}

func (v auditView) ListByConversation(ctx context.Context, conversationID string) ([]types.AgentActivityLogEntry, error) {
	return v.s.ListAuditByConversation(ctx, conversationID)
}

// AppendAudit writes an audit entry. The ledger is append-only: no update or
// delete exists, and duplicate consecutive actions are expected under
// concurrent agent activity.
func (s *LocalStore) AppendAudit(ctx context.Context, entry *types.AgentActivityLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO agent_activity_log (id, conversation_id, agent_id, action, timestamp)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.ConversationID, entry.AgentID, string(entry.Action), formatTime(entry.Timestamp))
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// ListAuditByConversation returns a conversation's ledger in order.
func (s *LocalStore) ListAuditByConversation(ctx context.Context, conversationID string) ([]types.AgentActivityLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, agent_id, action, timestamp
		 FROM agent_activity_log
		 WHERE conversation_id = ?
		 ORDER BY timestamp ASC, rowid ASC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []types.AgentActivityLogEntry
	for rows.Next() {
		var e types.AgentActivityLogEntry
		var action, ts string
		if err := rows.Scan(&e.ID, &e.ConversationID, &e.AgentID, &action, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Action = types.AgentAction(action)
		e.Timestamp = parseTime(ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
