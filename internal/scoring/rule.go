// Package scoring evaluates tenant-configurable lead scoring rules against a
// signal snapshot to produce a priority score and quality tier.
package scoring

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RuleType tags the trigger condition variant a rule carries.
type RuleType string

const (
	RuleEmailDomain   RuleType = "email_domain"
	RulePhoneProvided RuleType = "phone_provided"
	RuleNotesLength   RuleType = "notes_length"
	RuleKeywordMatch  RuleType = "keyword_match"
	RuleResponseTime  RuleType = "response_time"
	RuleEngagement    RuleType = "engagement"
)

// Factors is the signal snapshot a rule set is evaluated against.
type Factors struct {
	EmailDomain         string
	PhoneProvided       bool
	Notes               string
	ResponseTimeSeconds *int
	NumQuestionsAsked   int
	KeywordsMentioned   []string
}

// TriggerCondition is the per-rule predicate, a tagged variant with one case
// per RuleType. Adding a rule type means adding a case here and a decode arm
// in DecodeCondition; the evaluator needs no change.
type TriggerCondition interface {
	Type() RuleType
	Matches(f Factors) bool
}

// EmailDomainCondition fires when the lead's email domain is present and not
// in the excluded (free-provider) list.
type EmailDomainCondition struct {
	NotInList []string `json:"not_in_list"`
}

func (EmailDomainCondition) Type() RuleType { return RuleEmailDomain }

func (c EmailDomainCondition) Matches(f Factors) bool {
	domain := strings.ToLower(strings.TrimSpace(f.EmailDomain))
	if domain == "" {
		return false
	}
	for _, excluded := range c.NotInList {
		if domain == strings.ToLower(excluded) {
			return false
		}
	}
	return true
}

// PhoneProvidedCondition fires when the lead supplied a phone number.
type PhoneProvidedCondition struct{}

func (PhoneProvidedCondition) Type() RuleType         { return RulePhoneProvided }
func (PhoneProvidedCondition) Matches(f Factors) bool { return f.PhoneProvided }

// NotesLengthCondition fires when the lead's notes exceed MinLength characters.
type NotesLengthCondition struct {
	MinLength int `json:"min_length"`
}

func (NotesLengthCondition) Type() RuleType { return RuleNotesLength }

func (c NotesLengthCondition) Matches(f Factors) bool {
	return len(f.Notes) > c.MinLength
}

// KeywordMatchCondition fires when any mentioned keyword contains any of the
// condition's terms (case-insensitive).
type KeywordMatchCondition struct {
	ContainsAny []string `json:"contains_any"`
}

func (KeywordMatchCondition) Type() RuleType { return RuleKeywordMatch }

func (c KeywordMatchCondition) Matches(f Factors) bool {
	for _, mentioned := range f.KeywordsMentioned {
		m := strings.ToLower(mentioned)
		for _, term := range c.ContainsAny {
			if strings.Contains(m, strings.ToLower(term)) {
				return true
			}
		}
	}
	return false
}

// ResponseTimeCondition fires when the lead replied in under MaxSeconds.
type ResponseTimeCondition struct {
	MaxSeconds int `json:"max_seconds"`
}

func (ResponseTimeCondition) Type() RuleType { return RuleResponseTime }

func (c ResponseTimeCondition) Matches(f Factors) bool {
	return f.ResponseTimeSeconds != nil && *f.ResponseTimeSeconds < c.MaxSeconds
}

// EngagementCondition fires when the lead asked at least MinQuestions.
type EngagementCondition struct {
	MinQuestions int `json:"min_questions"`
}

func (EngagementCondition) Type() RuleType { return RuleEngagement }

func (c EngagementCondition) Matches(f Factors) bool {
	return f.NumQuestionsAsked >= c.MinQuestions
}

// ScoringRule is a tenant-scoped rule row. Only ScoreChange and IsActive are
// mutable after creation.
type ScoringRule struct {
	ID             string
	OrganizationID string
	RuleName       string
	RuleType       RuleType
	Condition      TriggerCondition
	ScoreChange    int
	IsActive       bool
	CreatedAt      time.Time
}

// EncodeCondition serializes a condition for storage.
func EncodeCondition(c TriggerCondition) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to encode condition: %w", err)
	}
	return string(data), nil
}

// DecodeCondition deserializes a stored condition by rule type.
func DecodeCondition(ruleType RuleType, raw string) (TriggerCondition, error) {
	decode := func(v any) error {
		if err := json.Unmarshal([]byte(raw), v); err != nil {
			return fmt.Errorf("failed to decode %s condition: %w", ruleType, err)
		}
		return nil
	}

	switch ruleType {
	case RuleEmailDomain:
		var c EmailDomainCondition
		return c, decode(&c)
	case RulePhoneProvided:
		return PhoneProvidedCondition{}, nil
	case RuleNotesLength:
		var c NotesLengthCondition
		return c, decode(&c)
	case RuleKeywordMatch:
		var c KeywordMatchCondition
		return c, decode(&c)
	case RuleResponseTime:
		var c ResponseTimeCondition
		return c, decode(&c)
	case RuleEngagement:
		var c EngagementCondition
		return c, decode(&c)
	default:
		return nil, fmt.Errorf("unknown rule type %q", ruleType)
	}
}
