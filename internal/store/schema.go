package store

import "fmt"

// Schema notes:
//   - conversations are keyed for lookup by (channel, channel_address); the
//     unique index guarantees at most one conversation per contact point.
//   - agent_activity_log and messages are append-only; nothing updates or
//     deletes rows there.
//   - the unique index on scoring_rules(organization_id, rule_name) is the
//     seeding race guard: concurrent first seedings cannot duplicate rules.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		chatbot_id TEXT NOT NULL DEFAULT '',
		channel TEXT NOT NULL,
		channel_address TEXT NOT NULL,
		mode TEXT NOT NULL DEFAULT 'bot',
		assigned_agent_id TEXT,
		takeover_started_at TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_conversations_address
		ON conversations(channel, channel_address)`,
	`CREATE INDEX IF NOT EXISTS idx_conversations_org
		ON conversations(organization_id)`,

	`CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL REFERENCES conversations(id),
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		sent_by_human INTEGER NOT NULL DEFAULT 0,
		agent_id TEXT,
		channel_message_id TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_conversation
		ON messages(conversation_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS agent_activity_log (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		agent_id TEXT NOT NULL,
		action TEXT NOT NULL,
		timestamp TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_conversation
		ON agent_activity_log(conversation_id, timestamp)`,

	`CREATE TABLE IF NOT EXISTS scoring_rules (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		rule_name TEXT NOT NULL,
		rule_type TEXT NOT NULL,
		condition_json TEXT NOT NULL,
		score_change INTEGER NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_rules_org_name
		ON scoring_rules(organization_id, rule_name)`,

	`CREATE TABLE IF NOT EXISTS knowledge_sources (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL DEFAULT ''
	)`,
}

func (s *LocalStore) initialize() error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}
