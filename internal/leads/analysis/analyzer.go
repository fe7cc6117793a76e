// Package analysis turns raw conversation text into the signals and metrics
// the scoring engine consumes. It is deliberately simple keyword matching;
// upstream NLP can replace the provided metrics but the signal extraction
// stays deterministic and explainable.
package analysis

import (
	"strings"

	"github.com/samber/lo"

	"chatlead_backend/internal/leads/domain"
	"chatlead_backend/internal/leads/scoring"
)

// Analyzer extracts lead signals from conversation text using the configured
// keyword lists. It is stateless and safe for concurrent use.
type Analyzer struct {
	keywords scoring.Keywords
}

// NewAnalyzer creates an analyzer from the scoring configuration's keyword lists.
func NewAnalyzer(keywords scoring.Keywords) *Analyzer {
	return &Analyzer{keywords: keywords}
}

// ExtractSignals scans the messages for configured phrases, one category at a
// time. Matches are reported lowercased and de-duplicated.
func (a *Analyzer) ExtractSignals(messages []string) domain.LeadSignals {
	text := strings.ToLower(strings.Join(messages, "\n"))

	return domain.LeadSignals{
		BuyingIntentKeywords: matchPhrases(text, a.keywords.BuyingIntent),
		UrgencyIndicators:    matchPhrases(text, a.keywords.Urgency),
		BudgetMentions:       matchPhrases(text, a.keywords.Budget),
		AuthorityIndicators:  matchPhrases(text, a.keywords.Authority),
		CompetitorMentions:   matchPhrases(text, a.keywords.Competitor),
		PainPointExpressions: matchPhrases(text, a.keywords.PainPoint),
		TimelineMentions:     matchPhrases(text, a.keywords.Timeline),
		DisqualifyingPhrases: matchPhrases(text, a.keywords.Disqualifier),
	}
}

// DeriveMetrics computes conversation metrics from the visitor's messages.
// These are fallback heuristics for callers that bring no NLP metrics of
// their own; provided metrics always take precedence at the service layer.
func (a *Analyzer) DeriveMetrics(messages []string, signals domain.LeadSignals) domain.ConversationMetrics {
	questionCount := 0
	for _, message := range messages {
		questionCount += strings.Count(message, "?")
	}

	return domain.ConversationMetrics{
		EngagementScore:    engagementHeuristic(messages, questionCount),
		IntentStrength:     strengthHeuristic(len(signals.BuyingIntentKeywords), 4),
		UrgencyLevel:       strengthHeuristic(len(signals.UrgencyIndicators), 2),
		QuestionCount:      questionCount,
		ConversationLength: len(messages),
	}
}

// engagementHeuristic grows with message count and average message length.
func engagementHeuristic(messages []string, questionCount int) float64 {
	if len(messages) == 0 {
		return 0
	}

	totalWords := 0
	for _, message := range messages {
		totalWords += len(strings.Fields(message))
	}
	avgWords := float64(totalWords) / float64(len(messages))

	score := 0.2
	score += 0.4 * capRatio(float64(len(messages)), 10)
	score += 0.2 * capRatio(avgWords, 15)
	score += 0.2 * capRatio(float64(questionCount), 3)
	return score
}

func strengthHeuristic(matches, saturation int) float64 {
	return capRatio(float64(matches), float64(saturation))
}

func capRatio(value, limit float64) float64 {
	if limit <= 0 || value <= 0 {
		return 0
	}
	if value >= limit {
		return 1
	}
	return value / limit
}

func matchPhrases(text string, phrases []string) []string {
	matched := lo.Filter(phrases, func(phrase string, _ int) bool {
		return phrase != "" && strings.Contains(text, strings.ToLower(phrase))
	})
	return lo.Uniq(lo.Map(matched, func(phrase string, _ int) string {
		return strings.ToLower(phrase)
	}))
}
