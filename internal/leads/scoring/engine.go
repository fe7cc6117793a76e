package scoring

import (
	"strings"

	"github.com/samber/lo"

	"chatlead_backend/internal/leads/domain"
)

// Factor names, used as keys in Result.Factors and in weight validation.
const (
	FactorEngagement    = "engagement"
	FactorIntent        = "intent"
	FactorQualification = "qualification"
	FactorUrgency       = "urgency"
	FactorFit           = "fit"
)

// Version identifies the scoring formula. Bump when a factor curve or the
// aggregation changes so persisted scores can be told apart.
const Version = "v1"

// Result is one scoring pass over a conversation snapshot.
type Result struct {
	// Score is the weighted total on the 0-100 scale.
	Score float64 `json:"score"`
	// Factors holds each factor sub-score on the 0-1 scale.
	Factors map[string]float64 `json:"factors"`
	// DegradedConfidence marks scores computed from defaulted metrics. Set by
	// the caller, which knows whether metrics were actually provided.
	DegradedConfidence bool `json:"degradedConfidence"`
	// Version is the formula version that produced the score.
	Version string `json:"version"`
}

// ComputeScore runs one scoring pass. It is pure: same inputs and config
// always produce the same result, and no input is mutated. The only error is
// an invalid weight profile.
func ComputeScore(metrics domain.ConversationMetrics, signals domain.LeadSignals, qualification domain.QualificationData, cfg Config) (Result, error) {
	if err := cfg.Weights.Validate(); err != nil {
		return Result{}, err
	}

	factors := map[string]float64{
		FactorEngagement:    engagementFactor(metrics, cfg.Saturation),
		FactorIntent:        intentFactor(metrics, signals, cfg.Saturation),
		FactorQualification: qualificationFactor(qualification),
		FactorUrgency:       urgencyFactor(metrics, signals, cfg.Saturation),
		FactorFit:           fitFactor(qualification, cfg.ICP),
	}

	// Fixed iteration order keeps the floating-point sum bit-identical
	// across passes.
	weights := []struct {
		name   string
		weight float64
	}{
		{FactorEngagement, cfg.Weights.Engagement},
		{FactorIntent, cfg.Weights.Intent},
		{FactorQualification, cfg.Weights.Qualification},
		{FactorUrgency, cfg.Weights.Urgency},
		{FactorFit, cfg.Weights.Fit},
	}

	var weighted, active float64
	for _, w := range weights {
		if w.weight == 0 {
			continue
		}
		weighted += w.weight * factors[w.name]
		active += w.weight
	}

	return Result{
		Score:   domain.ClampScore(weighted / active * 100),
		Factors: factors,
		Version: Version,
	}, nil
}

// engagementFactor starts from the analyzed engagement score and adds
// saturating bonuses for asked questions and conversation length.
func engagementFactor(metrics domain.ConversationMetrics, sat Saturation) float64 {
	base := metrics.EngagementScore
	base += 0.15 * ratio(metrics.QuestionCount, sat.QuestionCap)
	base += 0.10 * ratio(metrics.ConversationLength, sat.LengthCap)
	return clamp01(base)
}

// intentFactor starts from the analyzed intent strength and adds a capped
// bonus per distinct buying-intent keyword.
func intentFactor(metrics domain.ConversationMetrics, signals domain.LeadSignals, sat Saturation) float64 {
	bonus := float64(distinctCount(signals.BuyingIntentKeywords)) * sat.IntentKeywordBonus
	if bonus > sat.IntentBonusCap {
		bonus = sat.IntentBonusCap
	}
	return clamp01(metrics.IntentStrength + bonus)
}

// qualificationFactor is the filled fraction of the four BANT fields.
func qualificationFactor(q domain.QualificationData) float64 {
	return float64(q.FilledCount()) / float64(len(domain.BANTCategories))
}

// urgencyFactor starts from the analyzed urgency level and adds bonuses for
// distinct urgency indicators and any timeline mention.
func urgencyFactor(metrics domain.ConversationMetrics, signals domain.LeadSignals, sat Saturation) float64 {
	base := metrics.UrgencyLevel
	base += 0.1 * ratio(distinctCount(signals.UrgencyIndicators), sat.UrgencyIndicatorCap)
	if len(signals.TimelineMentions) > 0 {
		base += 0.1
	}
	return clamp01(base)
}

// fitFactor averages the match of each configured ICP dimension: 1 for a
// match, 0 for a stated mismatch, 0.5 when the lead's value is unknown.
// Without an ICP profile every lead scores a neutral 0.5.
func fitFactor(q domain.QualificationData, icp *ICPProfile) float64 {
	if !icp.Configured() {
		return 0.5
	}

	var total float64
	var dimensions int
	if len(icp.CompanySizes) > 0 {
		total += dimensionFit(q.CompanySize, icp.CompanySizes)
		dimensions++
	}
	if len(icp.Industries) > 0 {
		total += dimensionFit(q.Industry, icp.Industries)
		dimensions++
	}
	return total / float64(dimensions)
}

func dimensionFit(value *string, accepted []string) float64 {
	if value == nil || *value == "" {
		return 0.5
	}
	needle := strings.ToLower(strings.TrimSpace(*value))
	for _, candidate := range accepted {
		if strings.ToLower(candidate) == needle {
			return 1
		}
	}
	return 0
}

func distinctCount(items []string) int {
	return len(lo.Uniq(lo.Map(items, func(s string, _ int) string {
		return strings.ToLower(strings.TrimSpace(s))
	})))
}

func ratio(count, limit int) float64 {
	if limit <= 0 {
		return 0
	}
	r := float64(count) / float64(limit)
	if r > 1 {
		return 1
	}
	if r < 0 {
		return 0
	}
	return r
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
