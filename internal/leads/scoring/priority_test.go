package scoring

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"chatlead_backend/internal/leads/domain"
)

func TestMapPriorityBands(t *testing.T) {
	cfg := Default()

	tests := []struct {
		name    string
		score   float64
		urgency float64
		want    domain.LeadPriority
	}{
		{"zero score is low", 0, 0, domain.PriorityLow},
		{"just below medium boundary", 24.9, 0, domain.PriorityLow},
		{"medium boundary inclusive", 25, 0, domain.PriorityMedium},
		{"high boundary inclusive", 60, 0, domain.PriorityHigh},
		{"urgent boundary inclusive", 85, 0, domain.PriorityUrgent},
		{"max score is urgent", 100, 0, domain.PriorityUrgent},
		{"override bumps low to medium", 10, 0.8, domain.PriorityMedium},
		{"override bumps high to urgent", 70, 0.9, domain.PriorityUrgent},
		{"override never skips a band", 10, 1, domain.PriorityMedium},
		{"override caps at urgent", 90, 1, domain.PriorityUrgent},
		{"urgency below override has no effect", 70, 0.79, domain.PriorityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapPriority(tt.score, tt.urgency, cfg)
			if got != tt.want {
				t.Errorf("MapPriority(%v, %v) = %s, want %s", tt.score, tt.urgency, got, tt.want)
			}
		})
	}
}

func TestRecommendSuggestsBlockingFieldFirst(t *testing.T) {
	cfg := Default()
	lead := domain.NewLead(uuid.New(), "conv-1", "bot-1", time.Now())
	lead.Stage = domain.StageBudgetQualification
	lead.Priority = domain.PriorityMedium
	lead.Qualification = domain.QualificationData{Need: strPtr("automate support")}

	rec := Recommend(lead, Result{}, cfg)

	if len(rec.SuggestedQuestions) == 0 {
		t.Fatal("Recommend() returned no suggested questions")
	}
	if rec.SuggestedQuestions[0].Category != domain.BANTBudget {
		t.Errorf("first question category = %s, want %s (blocking field)",
			rec.SuggestedQuestions[0].Category, domain.BANTBudget)
	}
	for _, q := range rec.SuggestedQuestions {
		if q.Category == domain.BANTNeed {
			t.Errorf("suggested question for already-filled category %s", q.Category)
		}
	}
}

func TestRecommendOrdersQuestionsByWeightedDeficit(t *testing.T) {
	cfg := Default()
	// Urgency is far from full marks while intent and qualification are nearly
	// saturated, so the timeline gap carries the largest weighted deficit.
	result := Result{Factors: map[string]float64{
		FactorIntent:        0.9,
		FactorQualification: 0.9,
		FactorUrgency:       0.0,
	}}

	lead := domain.NewLead(uuid.New(), "conv-1", "bot-1", time.Now())
	rec := Recommend(lead, result, cfg)

	got := make([]domain.BANTCategory, 0, len(rec.SuggestedQuestions))
	for _, q := range rec.SuggestedQuestions {
		got = append(got, q.Category)
	}
	want := []domain.BANTCategory{domain.BANTTimeline, domain.BANTNeed, domain.BANTBudget, domain.BANTAuthority}
	if len(got) != len(want) {
		t.Fatalf("suggested categories = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("suggested categories = %v, want %v", got, want)
		}
	}

	// The stage's blocking field still outranks any weighted deficit.
	lead.Stage = domain.StageNeedAssessment
	rec = Recommend(lead, result, cfg)
	if rec.SuggestedQuestions[0].Category != domain.BANTNeed {
		t.Errorf("first question category = %s, want %s (blocking field)",
			rec.SuggestedQuestions[0].Category, domain.BANTNeed)
	}
	if rec.SuggestedQuestions[1].Category != domain.BANTTimeline {
		t.Errorf("second question category = %s, want %s (largest weighted deficit)",
			rec.SuggestedQuestions[1].Category, domain.BANTTimeline)
	}
}

func TestRecommendTerminalStages(t *testing.T) {
	cfg := Default()

	disqualified := domain.NewLead(uuid.New(), "conv-1", "bot-1", time.Now())
	disqualified.Stage = domain.StageDisqualified
	rec := Recommend(disqualified, Result{}, cfg)
	if len(rec.SuggestedQuestions) != 0 {
		t.Errorf("disqualified lead got %d suggested questions, want 0", len(rec.SuggestedQuestions))
	}
	if len(rec.NextActions) != 1 || rec.NextActions[0] != "archive lead, no further outreach" {
		t.Errorf("disqualified next actions = %v", rec.NextActions)
	}

	qualified := domain.NewLead(uuid.New(), "conv-2", "bot-1", time.Now())
	qualified.Stage = domain.StageQualified
	qualified.Priority = domain.PriorityHigh
	rec = Recommend(qualified, Result{}, cfg)
	if len(rec.NextActions) == 0 || rec.NextActions[0] != "hand off to sales for direct follow-up" {
		t.Errorf("qualified next actions = %v, want sales handoff first", rec.NextActions)
	}
	if len(rec.SuggestedQuestions) != 0 {
		t.Errorf("qualified lead got %d suggested questions, want 0", len(rec.SuggestedQuestions))
	}
}

func TestRecommendFlagsMissingContactAndDegradedScore(t *testing.T) {
	cfg := Default()
	lead := domain.NewLead(uuid.New(), "conv-1", "bot-1", time.Now())

	rec := Recommend(lead, Result{DegradedConfidence: true, Factors: map[string]float64{FactorEngagement: 0.1}}, cfg)

	seen := make(map[string]bool, len(rec.RiskFactors))
	for _, risk := range rec.RiskFactors {
		seen[risk] = true
	}
	for _, want := range []string{
		"no contact channel collected",
		"score computed without conversation metrics",
		"low engagement",
	} {
		if !seen[want] {
			t.Errorf("missing risk factor %q in %v", want, rec.RiskFactors)
		}
	}
}
