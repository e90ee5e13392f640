package scoring

import (
	"context"

	"go.uber.org/zap"

	"deskpilot/internal/logging"
)

// RuleStore persists tenant-scoped rule rows. Implementations must guarantee
// race-safe seeding: concurrent first requests for the same organization must
// never produce duplicate rule sets.
type RuleStore interface {
	// ListActive returns active rules in insertion order.
	ListActive(ctx context.Context, organizationID string) ([]ScoringRule, error)
	// SeedDefaults inserts the canonical default rules if the organization has
	// none. Idempotent; reports whether this call inserted anything.
	SeedDefaults(ctx context.Context, organizationID string) (bool, error)
	// UpdateRule applies a patch after verifying the rule belongs to the
	// organization. Cross-tenant mutation fails with an AuthorizationError.
	UpdateRule(ctx context.Context, id, organizationID string, patch RulePatch) error
}

// RulePatch is the only mutable surface of a rule.
type RulePatch struct {
	ScoreChange *int
	IsActive    *bool
}

// Service ties the rule store to the evaluator and owns default seeding.
type Service struct {
	store RuleStore
	log   *zap.Logger
}

// NewService creates a scoring Service.
func NewService(store RuleStore) *Service {
	return &Service{store: store, log: logging.Get(logging.CategoryScoring)}
}

// Score evaluates the organization's active rules against the factors,
// seeding the canonical defaults first if the organization has none.
func (s *Service) Score(ctx context.Context, organizationID string, factors Factors) (Result, error) {
	rules, err := s.store.ListActive(ctx, organizationID)
	if err != nil {
		return Result{}, err
	}

	if len(rules) == 0 {
		seeded, err := s.store.SeedDefaults(ctx, organizationID)
		if err != nil {
			return Result{}, err
		}
		if seeded {
			s.log.Info("seeded default scoring rules", zap.String("organization_id", organizationID))
		}
		rules, err = s.store.ListActive(ctx, organizationID)
		if err != nil {
			return Result{}, err
		}
	}

	result := Evaluate(factors, rules)
	s.log.Debug("lead scored",
		zap.String("organization_id", organizationID),
		zap.Int("score", result.Score),
		zap.String("quality", string(result.Quality)),
		zap.Int("rules_fired", len(result.Reasoning)))
	return result, nil
}

// UpdateRule forwards a tenant-verified patch to the store.
func (s *Service) UpdateRule(ctx context.Context, id, organizationID string, patch RulePatch) error {
	return s.store.UpdateRule(ctx, id, organizationID, patch)
}
