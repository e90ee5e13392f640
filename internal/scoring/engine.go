package scoring

import (
	"fmt"
	"strings"
)

// Quality is the coarse tier derived from the numeric score.
type Quality string

const (
	QualityHot         Quality = "hot"
	QualityWarm        Quality = "warm"
	QualityCold        Quality = "cold"
	QualityUnqualified Quality = "unqualified"
)

// Result is derived per evaluation and not persisted by the core itself.
// Reasoning holds one entry per rule that fired, in rule order, reproducible
// from the same inputs.
type Result struct {
	Score     int
	Quality   Quality
	Reasoning []string
}

// Evaluate runs the active rules against the factors in the given (insertion)
// order, then applies the fixed disqualification check. Pure function.
func Evaluate(factors Factors, rules []ScoringRule) Result {
	score := 0
	var reasoning []string

	for _, rule := range rules {
		if !rule.IsActive || rule.Condition == nil {
			continue
		}
		if rule.Condition.Matches(factors) {
			score += rule.ScoreChange
			reasoning = append(reasoning, fmt.Sprintf("%s (%+d)", rule.RuleName, rule.ScoreChange))
		}
	}

	if hasDisqualifyKeyword(factors.KeywordsMentioned) {
		score -= disqualifyPenalty
		reasoning = append(reasoning, fmt.Sprintf("Low commercial intent keyword detected (-%d)", disqualifyPenalty))
	}

	return Result{
		Score:     score,
		Quality:   QualityForScore(score),
		Reasoning: reasoning,
	}
}

// hasDisqualifyKeyword reports whether any mentioned keyword matches the
// hardcoded low-commercial-intent set. The penalty applies once no matter how
// many terms match.
func hasDisqualifyKeyword(mentioned []string) bool {
	for _, kw := range mentioned {
		k := strings.ToLower(kw)
		for _, term := range disqualifyKeywords {
			if strings.Contains(k, term) {
				return true
			}
		}
	}
	return false
}

// QualityForScore maps a score to its tier. Boundaries are inclusive on the
// lower bound.
func QualityForScore(score int) Quality {
	switch {
	case score >= 70:
		return QualityHot
	case score >= 40:
		return QualityWarm
	case score >= 20:
		return QualityCold
	default:
		return QualityUnqualified
	}
}
