package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"deskpilot/internal/scoring"
	"deskpilot/internal/types"
)

func TestSeedDefaultsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seeded, err := s.SeedDefaults(ctx, "org-1")
	if err != nil {
		t.Fatalf("SeedDefaults failed: %v", err)
	}
	if !seeded {
		t.Error("first seeding should report seeded=true")
	}

	seeded, err = s.SeedDefaults(ctx, "org-1")
	if err != nil {
		t.Fatalf("second SeedDefaults failed: %v", err)
	}
	if seeded {
		t.Error("second seeding should report seeded=false")
	}

	rules, err := s.ListActive(ctx, "org-1")
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if len(rules) != 7 {
		t.Fatalf("got %d rules, want exactly 7", len(rules))
	}
	if rules[0].RuleName != "Corporate Email Domain" {
		t.Errorf("first rule = %q, insertion order not preserved", rules[0].RuleName)
	}
	if rules[6].RuleName != "High Engagement - Multiple Questions" {
		t.Errorf("last rule = %q, insertion order not preserved", rules[6].RuleName)
	}
}

func TestSeedDefaultsConcurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	seededCount := make(chan bool, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seeded, err := s.SeedDefaults(ctx, "org-race")
			if err != nil {
				t.Errorf("SeedDefaults failed: %v", err)
				return
			}
			seededCount <- seeded
		}()
	}
	wg.Wait()
	close(seededCount)

	trueCount := 0
	for seeded := range seededCount {
		if seeded {
			trueCount++
		}
	}
	if trueCount != 1 {
		t.Errorf("seeded=true reported %d times, want exactly 1", trueCount)
	}

	rules, err := s.ListActive(ctx, "org-race")
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if len(rules) != 7 {
		t.Errorf("got %d rules after concurrent seeding, want exactly 7", len(rules))
	}
}

func TestSeedDefaultsScopedPerOrganization(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.SeedDefaults(ctx, "org-a"); err != nil {
		t.Fatalf("SeedDefaults failed: %v", err)
	}
	if _, err := s.SeedDefaults(ctx, "org-b"); err != nil {
		t.Fatalf("SeedDefaults failed: %v", err)
	}

	a, _ := s.ListActive(ctx, "org-a")
	b, _ := s.ListActive(ctx, "org-b")
	if len(a) != 7 || len(b) != 7 {
		t.Errorf("rules per org = %d/%d, want 7/7", len(a), len(b))
	}
}

func TestUpdateRule(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.SeedDefaults(ctx, "org-1"); err != nil {
		t.Fatalf("SeedDefaults failed: %v", err)
	}
	rules, _ := s.ListActive(ctx, "org-1")
	target := rules[0]

	newScore := 35
	inactive := false
	err := s.UpdateRule(ctx, target.ID, "org-1", scoring.RulePatch{ScoreChange: &newScore, IsActive: &inactive})
	if err != nil {
		t.Fatalf("UpdateRule failed: %v", err)
	}

	all, err := s.ListRules(ctx, "org-1")
	if err != nil {
		t.Fatalf("ListRules failed: %v", err)
	}
	var updated *scoring.ScoringRule
	for i := range all {
		if all[i].ID == target.ID {
			updated = &all[i]
		}
	}
	if updated == nil {
		t.Fatal("updated rule missing from ListRules")
	}
	if updated.ScoreChange != 35 || updated.IsActive {
		t.Errorf("patch not applied: score=%d active=%v", updated.ScoreChange, updated.IsActive)
	}

	// Deactivated rules drop out of ListActive.
	active, _ := s.ListActive(ctx, "org-1")
	if len(active) != 6 {
		t.Errorf("active rules = %d, want 6", len(active))
	}
}

func TestUpdateRuleCrossTenantFails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.SeedDefaults(ctx, "org-1"); err != nil {
		t.Fatalf("SeedDefaults failed: %v", err)
	}
	rules, _ := s.ListActive(ctx, "org-1")

	newScore := 99
	err := s.UpdateRule(ctx, rules[0].ID, "org-2", scoring.RulePatch{ScoreChange: &newScore})
	var authErr *types.AuthorizationError
	if !errors.As(err, &authErr) {
		t.Fatalf("UpdateRule error = %v, want AuthorizationError", err)
	}

	// And the rule must be untouched.
	after, _ := s.ListActive(ctx, "org-1")
	if after[0].ScoreChange != rules[0].ScoreChange {
		t.Error("cross-tenant update must not modify the rule")
	}
}

func TestUpdateRuleNotFound(t *testing.T) {
	s := newTestStore(t)
	newScore := 10
	err := s.UpdateRule(context.Background(), "nope", "org-1", scoring.RulePatch{ScoreChange: &newScore})
	if !errors.Is(err, types.ErrNotFound) {
		t.Errorf("UpdateRule error = %v, want ErrNotFound", err)
	}
}

func TestScoringServiceSeedsOnFirstScore(t *testing.T) {
	s := newTestStore(t)
	svc := scoring.NewService(s)

	result, err := svc.Score(context.Background(), "org-fresh", scoring.Factors{
		EmailDomain:       "acme.com",
		PhoneProvided:     true,
		KeywordsMentioned: []string{"pricing"},
	})
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if result.Score != 60 {
		t.Errorf("score = %d, want 60", result.Score)
	}
	if result.Quality != scoring.QualityWarm {
		t.Errorf("quality = %s, want warm", result.Quality)
	}

	rules, _ := s.ListActive(context.Background(), "org-fresh")
	if len(rules) != 7 {
		t.Errorf("rules after first score = %d, want 7", len(rules))
	}
}
