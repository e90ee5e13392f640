package store

import (
	"context"
	"database/sql"
	"fmt"
)

// GetContents resolves knowledge-source ids to their content fields,
// preserving the requested order. Missing sources yield empty strings; only a
// query failure is an error.
func (s *LocalStore) GetContents(ctx context.Context, sourceIDs []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contents := make([]string, 0, len(sourceIDs))
	for _, id := range sourceIDs {
		var content string
		err := s.db.QueryRowContext(ctx,
			`SELECT content FROM knowledge_sources WHERE id = ?`, id).Scan(&content)
		if err == sql.ErrNoRows {
			contents = append(contents, "")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to fetch knowledge source %s: %w", id, err)
		}
		contents = append(contents, content)
	}
	return contents, nil
}

// UpsertKnowledgeSource stores or replaces a knowledge source's content.
func (s *LocalStore) UpsertKnowledgeSource(ctx context.Context, id, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO knowledge_sources (id, content) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET content = excluded.content`, id, content)
	if err != nil {
		return fmt.Errorf("failed to upsert knowledge source %s: %w", id, err)
	}
	return nil
}
