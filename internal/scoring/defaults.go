package scoring

// freeEmailDomains are the providers the corporate-email rule excludes.
var freeEmailDomains = []string{"gmail.com", "yahoo.com", "hotmail.com", "outlook.com"}

var highIntentKeywords = []string{"pricing", "buy", "purchase", "demo", "quote", "contract"}

var mediumIntentKeywords = []string{"learn more", "interested", "information", "details"}

// disqualifyKeywords is the fixed, non-configurable low-commercial-intent term
// set. The disqualification check always runs, independent of tenant rules.
var disqualifyKeywords = []string{"student", "assignment", "research", "school", "free only"}

// disqualifyPenalty is subtracted once when any mentioned keyword matches the
// disqualification set.
const disqualifyPenalty = 30

// DefaultRules returns the 7 canonical rules seeded the first time an
// organization has zero rules. Order matters: evaluation reasoning is emitted
// in this insertion order.
func DefaultRules(organizationID string) []ScoringRule {
	return []ScoringRule{
		{
			OrganizationID: organizationID,
			RuleName:       "Corporate Email Domain",
			RuleType:       RuleEmailDomain,
			Condition:      EmailDomainCondition{NotInList: freeEmailDomains},
			ScoreChange:    20,
			IsActive:       true,
		},
		{
			OrganizationID: organizationID,
			RuleName:       "Phone Number Provided",
			RuleType:       RulePhoneProvided,
			Condition:      PhoneProvidedCondition{},
			ScoreChange:    15,
			IsActive:       true,
		},
		{
			OrganizationID: organizationID,
			RuleName:       "Detailed Inquiry",
			RuleType:       RuleNotesLength,
			Condition:      NotesLengthCondition{MinLength: 100},
			ScoreChange:    15,
			IsActive:       true,
		},
		{
			OrganizationID: organizationID,
			RuleName:       "High Intent Keywords - Buy/Purchase",
			RuleType:       RuleKeywordMatch,
			Condition:      KeywordMatchCondition{ContainsAny: highIntentKeywords},
			ScoreChange:    25,
			IsActive:       true,
		},
		{
			OrganizationID: organizationID,
			RuleName:       "Medium Intent Keywords",
			RuleType:       RuleKeywordMatch,
			Condition:      KeywordMatchCondition{ContainsAny: mediumIntentKeywords},
			ScoreChange:    15,
			IsActive:       true,
		},
		{
			OrganizationID: organizationID,
			RuleName:       "Quick Response Time",
			RuleType:       RuleResponseTime,
			Condition:      ResponseTimeCondition{MaxSeconds: 30},
			ScoreChange:    15,
			IsActive:       true,
		},
		{
			OrganizationID: organizationID,
			RuleName:       "High Engagement - Multiple Questions",
			RuleType:       RuleEngagement,
			Condition:      EngagementCondition{MinQuestions: 3},
			ScoreChange:    20,
			IsActive:       true,
		},
	}
}
