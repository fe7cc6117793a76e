package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func strPtr(s string) *string { return &s }

var testThresholds = StageThresholds{
	StageNeedAssessment:        20,
	StageBudgetQualification:   30,
	StageAuthorityVerification: 40,
	StageTimelineDiscussion:    50,
	StageQualified:             60,
}

func TestEvaluateStage(t *testing.T) {
	tests := []struct {
		name       string
		current    QualificationStage
		qual       QualificationData
		score      float64
		wantStage  QualificationStage
		wantReason string
	}{
		{
			name:       "initial interest advances on score alone",
			current:    StageInitialInterest,
			qual:       QualificationData{},
			score:      20,
			wantStage:  StageNeedAssessment,
			wantReason: ReasonScoreThresholdMet,
		},
		{
			name:       "initial interest holds below threshold",
			current:    StageInitialInterest,
			qual:       QualificationData{},
			score:      19.9,
			wantStage:  StageInitialInterest,
			wantReason: ReasonScoreBelowThreshold,
		},
		{
			name:       "need assessment blocked without need",
			current:    StageNeedAssessment,
			qual:       QualificationData{Budget: strPtr("approved")},
			score:      95,
			wantStage:  StageNeedAssessment,
			wantReason: ReasonBlockingFieldMissing,
		},
		{
			name:       "need assessment advances with need and score",
			current:    StageNeedAssessment,
			qual:       QualificationData{Need: strPtr("automate support")},
			score:      30,
			wantStage:  StageBudgetQualification,
			wantReason: ReasonScoreThresholdMet,
		},
		{
			name:       "budget qualification blocked without budget",
			current:    StageBudgetQualification,
			qual:       QualificationData{Need: strPtr("automate support")},
			score:      80,
			wantStage:  StageBudgetQualification,
			wantReason: ReasonBlockingFieldMissing,
		},
		{
			name:    "timeline discussion advances to qualified",
			current: StageTimelineDiscussion,
			qual: QualificationData{
				Need:      strPtr("automate support"),
				Budget:    strPtr("10k"),
				Authority: strPtr("cto"),
				Timeline:  strPtr("this quarter"),
			},
			score:      60,
			wantStage:  StageQualified,
			wantReason: ReasonScoreThresholdMet,
		},
		{
			name:       "qualified is terminal",
			current:    StageQualified,
			qual:       QualificationData{},
			score:      100,
			wantStage:  StageQualified,
			wantReason: ReasonTerminalStage,
		},
		{
			name:       "disqualified is terminal",
			current:    StageDisqualified,
			qual:       QualificationData{},
			score:      100,
			wantStage:  StageDisqualified,
			wantReason: ReasonTerminalStage,
		},
		{
			name:    "advances at most one stage per pass",
			current: StageInitialInterest,
			qual: QualificationData{
				Need:     strPtr("automate support"),
				Budget:   strPtr("10k"),
				Timeline: strPtr("asap"),
			},
			score:      99,
			wantStage:  StageNeedAssessment,
			wantReason: ReasonScoreThresholdMet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := EvaluateStage(tt.current, tt.qual, tt.score, testThresholds)
			if decision.To != tt.wantStage {
				t.Errorf("EvaluateStage() stage = %s, want %s", decision.To, tt.wantStage)
			}
			if decision.Reason != tt.wantReason {
				t.Errorf("EvaluateStage() reason = %s, want %s", decision.Reason, tt.wantReason)
			}
			if decision.From != tt.current {
				t.Errorf("EvaluateStage() from = %s, want %s", decision.From, tt.current)
			}
		})
	}
}

func TestEvaluateStageNeverRegresses(t *testing.T) {
	for _, stage := range []QualificationStage{
		StageNeedAssessment,
		StageBudgetQualification,
		StageAuthorityVerification,
		StageTimelineDiscussion,
	} {
		decision := EvaluateStage(stage, QualificationData{}, 0, testThresholds)
		if decision.To != stage {
			t.Errorf("stage %s regressed to %s on zero score", stage, decision.To)
		}
	}
}

func TestEvaluateDisqualification(t *testing.T) {
	rule := DisqualificationRule{Window: 3, Floor: 25}

	tests := []struct {
		name     string
		current  QualificationStage
		signals  LeadSignals
		history  []float64
		want     bool
		wantWhy  string
	}{
		{
			name:    "explicit disqualifying phrase",
			current: StageNeedAssessment,
			signals: LeadSignals{DisqualifyingPhrases: []string{"not interested"}},
			history: []float64{70},
			want:    true,
			wantWhy: ReasonExplicitDisinterest,
		},
		{
			name:    "three strictly declining scores below floor",
			current: StageNeedAssessment,
			history: []float64{40, 30, 20},
			want:    true,
			wantWhy: ReasonDecliningScoreTrend,
		},
		{
			name:    "declining but above floor",
			current: StageNeedAssessment,
			history: []float64{80, 70, 60},
			want:    false,
		},
		{
			name:    "plateau breaks the trend",
			current: StageNeedAssessment,
			history: []float64{40, 40, 20},
			want:    false,
		},
		{
			name:    "too little history",
			current: StageInitialInterest,
			history: []float64{30, 20},
			want:    false,
		},
		{
			name:    "only recent window matters",
			current: StageBudgetQualification,
			history: []float64{10, 50, 40, 30, 20},
			want:    true,
			wantWhy: ReasonDecliningScoreTrend,
		},
		{
			name:    "terminal stage never disqualifies",
			current: StageQualified,
			signals: LeadSignals{DisqualifyingPhrases: []string{"not interested"}},
			history: []float64{40, 30, 20},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, disqualified := EvaluateDisqualification(tt.current, tt.signals, tt.history, rule)
			if disqualified != tt.want {
				t.Fatalf("EvaluateDisqualification() = %v, want %v", disqualified, tt.want)
			}
			if disqualified {
				if decision.To != StageDisqualified {
					t.Errorf("decision.To = %s, want %s", decision.To, StageDisqualified)
				}
				if decision.Reason != tt.wantWhy {
					t.Errorf("decision.Reason = %s, want %s", decision.Reason, tt.wantWhy)
				}
			}
		})
	}
}

func TestClampScore(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  float64
	}{
		{"negative clamps to zero", -5, 0},
		{"above range clamps to hundred", 140, 100},
		{"in range unchanged", 67, 67},
		{"zero boundary", 0, 0},
		{"upper boundary", 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampScore(tt.input)
			if got != tt.want {
				t.Errorf("ClampScore(%v) = %v, want %v", tt.input, got, tt.want)
			}
			if again := ClampScore(got); again != got {
				t.Errorf("ClampScore not idempotent: %v -> %v", got, again)
			}
		})
	}
}

func TestLeadTouchPreservesTimestampInvariant(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lead := NewLead(uuid.New(), "conv-1", "bot-1", created)

	lead.Touch(created.Add(-time.Hour))
	if lead.UpdatedAt.Before(lead.CreatedAt) {
		t.Errorf("UpdatedAt %v before CreatedAt %v", lead.UpdatedAt, lead.CreatedAt)
	}

	later := created.Add(time.Hour)
	lead.ApplyScore(150, later)
	if lead.LeadScore != 100 {
		t.Errorf("ApplyScore(150) = %v, want clamped 100", lead.LeadScore)
	}
	if !lead.UpdatedAt.Equal(later) {
		t.Errorf("UpdatedAt = %v, want %v", lead.UpdatedAt, later)
	}
}

func TestQualificationDataMerge(t *testing.T) {
	base := QualificationData{
		Need:       strPtr("automate support"),
		PainPoints: []string{"slow responses"},
	}
	update := QualificationData{
		Budget:     strPtr("10k"),
		Need:       strPtr(""),
		PainPoints: []string{"slow responses", "manual triage"},
	}

	merged := base.Merge(update)

	if merged.Need == nil || *merged.Need != "automate support" {
		t.Errorf("empty update overwrote need: %v", merged.Need)
	}
	if merged.Budget == nil || *merged.Budget != "10k" {
		t.Errorf("budget not merged: %v", merged.Budget)
	}
	if len(merged.PainPoints) != 2 {
		t.Errorf("pain points = %v, want deduplicated pair", merged.PainPoints)
	}
	if merged.FilledCount() != 2 {
		t.Errorf("FilledCount() = %d, want 2", merged.FilledCount())
	}
}
