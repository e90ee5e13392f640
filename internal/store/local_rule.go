package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"deskpilot/internal/scoring"
	"deskpilot/internal/types"
)

// ListActive returns an organization's active rules in insertion order, which
// fixes the evaluation (and reasoning) order.
func (s *LocalStore) ListActive(ctx context.Context, organizationID string) ([]scoring.ScoringRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, organization_id, rule_name, rule_type, condition_json, score_change, is_active, created_at
		 FROM scoring_rules
		 WHERE organization_id = ? AND is_active = 1
		 ORDER BY rowid ASC`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var rules []scoring.ScoringRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}
	return rules, rows.Err()
}

// SeedDefaults inserts the canonical default rules for an organization with
// none. The whole seeding is one transaction and each insert is
// INSERT OR IGNORE against the (organization_id, rule_name) unique index, so
// concurrent first requests cannot produce duplicates and a partial seed
// cannot be observed.
func (s *LocalStore) SeedDefaults(ctx context.Context, organizationID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin seeding: %w", err)
	}
	defer tx.Rollback()

	inserted := int64(0)
	for _, rule := range scoring.DefaultRules(organizationID) {
		condition, err := scoring.EncodeCondition(rule.Condition)
		if err != nil {
			return false, err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO scoring_rules
			 (id, organization_id, rule_name, rule_type, condition_json, score_change, is_active, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), rule.OrganizationID, rule.RuleName, string(rule.RuleType),
			condition, rule.ScoreChange, boolToInt(rule.IsActive), formatTime(time.Now()))
		if err != nil {
			return false, fmt.Errorf("failed to seed rule %s: %w", rule.RuleName, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return false, err
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit seeding: %w", err)
	}

	if inserted > 0 {
		s.log.Info("seeded default scoring rules",
			zap.String("organization_id", organizationID),
			zap.Int64("inserted", inserted))
	}
	return inserted > 0, nil
}

// UpdateRule patches score_change and is_active after verifying ownership.
// A rule belonging to another organization fails with an AuthorizationError,
// never a silent no-op.
func (s *LocalStore) UpdateRule(ctx context.Context, id, organizationID string, patch scoring.RulePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ownerID string
	var scoreChange, isActive int
	err := s.db.QueryRowContext(ctx,
		`SELECT organization_id, score_change, is_active FROM scoring_rules WHERE id = ?`, id).
		Scan(&ownerID, &scoreChange, &isActive)
	if err == sql.ErrNoRows {
		return types.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load rule: %w", err)
	}
	if ownerID != organizationID {
		return &types.AuthorizationError{OrganizationID: organizationID, ResourceID: id}
	}

	if patch.ScoreChange != nil {
		scoreChange = *patch.ScoreChange
	}
	if patch.IsActive != nil {
		isActive = boolToInt(*patch.IsActive)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE scoring_rules SET score_change = ?, is_active = ? WHERE id = ?`,
		scoreChange, isActive, id)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}
	return nil
}

// ListRules returns all of an organization's rules, active or not, for the
// admin surface.
func (s *LocalStore) ListRules(ctx context.Context, organizationID string) ([]scoring.ScoringRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, organization_id, rule_name, rule_type, condition_json, score_change, is_active, created_at
		 FROM scoring_rules
		 WHERE organization_id = ?
		 ORDER BY rowid ASC`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var rules []scoring.ScoringRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}
	return rules, rows.Err()
}

func scanRule(rows *sql.Rows) (*scoring.ScoringRule, error) {
	var rule scoring.ScoringRule
	var ruleType, conditionJSON, createdAt string
	var isActive int
	if err := rows.Scan(&rule.ID, &rule.OrganizationID, &rule.RuleName, &ruleType,
		&conditionJSON, &rule.ScoreChange, &isActive, &createdAt); err != nil {
		return nil, fmt.Errorf("failed to scan rule: %w", err)
	}
	rule.RuleType = scoring.RuleType(ruleType)
	rule.IsActive = isActive != 0
	rule.CreatedAt = parseTime(createdAt)

	condition, err := scoring.DecodeCondition(rule.RuleType, conditionJSON)
	if err != nil {
		return nil, err
	}
	rule.Condition = condition
	return &rule, nil
}
