package analysis

import (
	"testing"

	"chatlead_backend/internal/leads/domain"
	"chatlead_backend/internal/leads/scoring"
)

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(scoring.Default().Keywords)
}

func TestExtractSignals(t *testing.T) {
	analyzer := newTestAnalyzer()

	tests := []struct {
		name     string
		messages []string
		check    func(t *testing.T, signals domain.LeadSignals)
	}{
		{
			name:     "buying intent and urgency",
			messages: []string{"What's your pricing?", "We need this ASAP, deadline is Friday"},
			check: func(t *testing.T, signals domain.LeadSignals) {
				if len(signals.BuyingIntentKeywords) == 0 {
					t.Error("no buying intent detected in pricing question")
				}
				if len(signals.UrgencyIndicators) < 2 {
					t.Errorf("urgency indicators = %v, want asap and deadline", signals.UrgencyIndicators)
				}
			},
		},
		{
			name:     "disqualifying phrase",
			messages: []string{"Thanks but I'm not interested, just browsing"},
			check: func(t *testing.T, signals domain.LeadSignals) {
				if len(signals.DisqualifyingPhrases) < 2 {
					t.Errorf("disqualifying phrases = %v, want both matches", signals.DisqualifyingPhrases)
				}
			},
		},
		{
			name:     "case insensitive matching",
			messages: []string{"Can I get a DEMO? Our CTO wants to see it"},
			check: func(t *testing.T, signals domain.LeadSignals) {
				if len(signals.BuyingIntentKeywords) == 0 {
					t.Error("uppercase DEMO not matched")
				}
				if len(signals.AuthorityIndicators) == 0 {
					t.Error("CTO not matched as authority indicator")
				}
			},
		},
		{
			name:     "no signals in small talk",
			messages: []string{"hello", "nice weather"},
			check: func(t *testing.T, signals domain.LeadSignals) {
				if len(signals.BuyingIntentKeywords)+len(signals.UrgencyIndicators)+len(signals.DisqualifyingPhrases) != 0 {
					t.Errorf("small talk produced signals: %+v", signals)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, analyzer.ExtractSignals(tt.messages))
		})
	}
}

func TestDeriveMetrics(t *testing.T) {
	analyzer := newTestAnalyzer()

	messages := []string{
		"What's your pricing for the pro plan?",
		"Do you integrate with Salesforce?",
		"We're struggling with manual ticket triage and need a fix soon",
	}
	signals := analyzer.ExtractSignals(messages)
	metrics := analyzer.DeriveMetrics(messages, signals)

	if metrics.ConversationLength != 3 {
		t.Errorf("ConversationLength = %d, want 3", metrics.ConversationLength)
	}
	if metrics.QuestionCount != 2 {
		t.Errorf("QuestionCount = %d, want 2", metrics.QuestionCount)
	}
	if metrics.EngagementScore <= 0 || metrics.EngagementScore > 1 {
		t.Errorf("EngagementScore = %v, want in (0,1]", metrics.EngagementScore)
	}
	if metrics.IntentStrength <= 0 {
		t.Errorf("IntentStrength = %v, want > 0 with pricing mention", metrics.IntentStrength)
	}
}

func TestDeriveMetricsEmptyConversation(t *testing.T) {
	analyzer := newTestAnalyzer()
	metrics := analyzer.DeriveMetrics(nil, domain.LeadSignals{})

	if metrics.EngagementScore != 0 || metrics.ConversationLength != 0 || metrics.QuestionCount != 0 {
		t.Errorf("empty conversation produced metrics %+v", metrics)
	}
}

func TestClassifyLeadType(t *testing.T) {
	tests := []struct {
		name    string
		message string
		signals domain.LeadSignals
		want    domain.LeadType
	}{
		{"demo request", "Can I book a demo for my team?", domain.LeadSignals{}, domain.LeadTypeDemoRequest},
		{"enterprise inquiry", "Does your enterprise plan include SSO?", domain.LeadSignals{}, domain.LeadTypeEnterpriseInquiry},
		{"bulk order", "We need a volume discount for 200 seats", domain.LeadSignals{}, domain.LeadTypeBulkOrder},
		{"pricing inquiry", "How much does the starter plan cost?", domain.LeadSignals{}, domain.LeadTypePricingInquiry},
		{"support escalation", "The export is broken again", domain.LeadSignals{}, domain.LeadTypeSupportEscalation},
		{"feature request", "Do you support webhooks?", domain.LeadSignals{}, domain.LeadTypeFeatureRequest},
		{"general inquiry", "Tell me about your company", domain.LeadSignals{}, domain.LeadTypeGeneralInquiry},
		{
			"budget signals imply pricing",
			"We have some money set aside for this",
			domain.LeadSignals{BudgetMentions: []string{"budget"}},
			domain.LeadTypePricingInquiry,
		},
		{"demo wins over pricing", "How much is a demo?", domain.LeadSignals{}, domain.LeadTypeDemoRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyLeadType(tt.message, tt.signals)
			if got != tt.want {
				t.Errorf("ClassifyLeadType(%q) = %s, want %s", tt.message, got, tt.want)
			}
		})
	}
}
