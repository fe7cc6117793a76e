package scoring

import (
	"fmt"
	"sort"

	"chatlead_backend/internal/leads/domain"
)

// MapPriority maps a 0-100 score to a priority band. When the urgency factor
// meets the configured override, the priority escalates exactly one band; the
// override never lowers a priority and never skips a band.
func MapPriority(score, urgencyFactor float64, cfg Config) domain.LeadPriority {
	priority := bandFor(score, cfg.Bands)
	if urgencyFactor >= cfg.UrgencyOverride {
		priority = priority.Bump()
	}
	return priority
}

func bandFor(score float64, bands Bands) domain.LeadPriority {
	switch {
	case score >= bands.Urgent:
		return domain.PriorityUrgent
	case score >= bands.High:
		return domain.PriorityHigh
	case score >= bands.Medium:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}

// Recommendation is the advice attached to one scoring pass: what the bot or
// sales team should do next, and which questions would close BANT gaps.
type Recommendation struct {
	NextActions        []string                       `json:"nextActions"`
	SuggestedQuestions []domain.QualificationQuestion `json:"suggestedQuestions,omitempty"`
	RiskFactors        []string                       `json:"riskFactors,omitempty"`
}

// Recommend derives next actions and suggested questions for a lead after a
// scoring pass. Actions are ordered most important first.
func Recommend(lead *domain.EnhancedLead, result Result, cfg Config) Recommendation {
	rec := Recommendation{}

	switch lead.Stage {
	case domain.StageDisqualified:
		rec.NextActions = append(rec.NextActions, "archive lead, no further outreach")
		return rec
	case domain.StageQualified:
		rec.NextActions = append(rec.NextActions, "hand off to sales for direct follow-up")
	}

	switch lead.Priority {
	case domain.PriorityUrgent:
		rec.NextActions = append(rec.NextActions, "notify sales immediately")
	case domain.PriorityHigh:
		rec.NextActions = append(rec.NextActions, "schedule follow-up within one business day")
	case domain.PriorityMedium:
		rec.NextActions = append(rec.NextActions, "add to nurture sequence")
	default:
		rec.NextActions = append(rec.NextActions, "continue conversational qualification")
	}

	if lead.Contact.Email == nil && lead.Contact.Phone == nil {
		rec.NextActions = append(rec.NextActions, "collect contact details")
		rec.RiskFactors = append(rec.RiskFactors, "no contact channel collected")
	}

	if !lead.Stage.IsTerminal() {
		rec.SuggestedQuestions = suggestQuestions(lead, result, cfg)
	}

	if result.DegradedConfidence {
		rec.RiskFactors = append(rec.RiskFactors, "score computed without conversation metrics")
	}
	if result.Factors[FactorEngagement] < 0.2 {
		rec.RiskFactors = append(rec.RiskFactors, "low engagement")
	}

	return rec
}

// questionFactor ties each BANT category to the factor its answer would move
// the most. Used to order non-blocking questions by weighted deficit.
var questionFactor = map[domain.BANTCategory]string{
	domain.BANTNeed:      FactorIntent,
	domain.BANTBudget:    FactorQualification,
	domain.BANTAuthority: FactorQualification,
	domain.BANTTimeline:  FactorUrgency,
}

// suggestQuestions proposes one question per missing BANT field. The current
// stage's blocking field comes first; the remaining gaps are ordered so the
// highest-weighted factor with the lowest current sub-score closes first.
func suggestQuestions(lead *domain.EnhancedLead, result Result, cfg Config) []domain.QualificationQuestion {
	blocking, hasBlocking := domain.BlockingField(lead.Stage)
	if hasBlocking && lead.Qualification.Has(blocking) {
		hasBlocking = false
	}

	rest := make([]domain.BANTCategory, 0, len(domain.BANTCategories))
	for _, category := range domain.BANTCategories {
		if lead.Qualification.Has(category) || (hasBlocking && category == blocking) {
			continue
		}
		rest = append(rest, category)
	}
	sort.SliceStable(rest, func(i, j int) bool {
		return questionDeficit(rest[i], result, cfg) > questionDeficit(rest[j], result, cfg)
	})

	missing := rest
	if hasBlocking {
		missing = append([]domain.BANTCategory{blocking}, rest...)
	}

	questions := make([]domain.QualificationQuestion, 0, len(missing))
	for i, category := range missing {
		templates := cfg.Questions[category]
		if len(templates) == 0 {
			continue
		}
		questions = append(questions, domain.QualificationQuestion{
			Question: templates[0],
			Category: category,
			Priority: i + 1,
			Context:  fmt.Sprintf("missing %s information", category),
		})
	}
	return questions
}

// questionDeficit scores how much closing a BANT gap is worth right now:
// the weight of its tied factor times that factor's distance from full marks.
func questionDeficit(category domain.BANTCategory, result Result, cfg Config) float64 {
	factor := questionFactor[category]
	return factorWeight(cfg.Weights, factor) * (1 - result.Factors[factor])
}

func factorWeight(w Weights, factor string) float64 {
	switch factor {
	case FactorEngagement:
		return w.Engagement
	case FactorIntent:
		return w.Intent
	case FactorQualification:
		return w.Qualification
	case FactorUrgency:
		return w.Urgency
	case FactorFit:
		return w.Fit
	}
	return 0
}
