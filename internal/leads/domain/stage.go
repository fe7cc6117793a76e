package domain

// QualificationStage is the BANT qualification pipeline stage of a lead.
type QualificationStage string

const (
	StageInitialInterest       QualificationStage = "initial_interest"
	StageNeedAssessment        QualificationStage = "need_assessment"
	StageBudgetQualification   QualificationStage = "budget_qualification"
	StageAuthorityVerification QualificationStage = "authority_verification"
	StageTimelineDiscussion    QualificationStage = "timeline_discussion"
	StageQualified             QualificationStage = "qualified"
	StageDisqualified          QualificationStage = "disqualified"
)

// stageOrder is the forward progression through the pipeline. Disqualified is
// reachable from any non-terminal stage and is not part of the forward path.
var stageOrder = []QualificationStage{
	StageInitialInterest,
	StageNeedAssessment,
	StageBudgetQualification,
	StageAuthorityVerification,
	StageTimelineDiscussion,
	StageQualified,
}

// stageIndex maps each forward stage to its position in the pipeline.
var stageIndex = func() map[QualificationStage]int {
	m := make(map[QualificationStage]int, len(stageOrder))
	for i, s := range stageOrder {
		m[s] = i
	}
	return m
}()

// IsTerminal reports whether the stage accepts no further transitions.
func (s QualificationStage) IsTerminal() bool {
	return s == StageQualified || s == StageDisqualified
}

// Next returns the following stage in the forward progression, or false when
// the stage is terminal or unknown.
func (s QualificationStage) Next() (QualificationStage, bool) {
	idx, ok := stageIndex[s]
	if !ok || idx == len(stageOrder)-1 {
		return s, false
	}
	return stageOrder[idx+1], true
}

// blockingField is the BANT field a lead must have populated before it may
// leave the stage. Initial interest has no field requirement; the first
// advancement is gated on score alone.
var blockingField = map[QualificationStage]BANTCategory{
	StageNeedAssessment:        BANTNeed,
	StageBudgetQualification:   BANTBudget,
	StageAuthorityVerification: BANTAuthority,
	StageTimelineDiscussion:    BANTTimeline,
}

// BlockingField returns the BANT field gating departure from the given stage,
// if any.
func BlockingField(stage QualificationStage) (BANTCategory, bool) {
	category, ok := blockingField[stage]
	return category, ok
}

// StageThresholds maps each stage to the minimum lead score required to enter
// it. Initial interest has no threshold; it is the entry stage.
type StageThresholds map[QualificationStage]float64

// DisqualificationRule configures automatic disqualification on a sustained
// score decline.
type DisqualificationRule struct {
	// Window is how many consecutive scores must strictly decline.
	Window int `yaml:"window"`
	// Floor is the score below which the most recent observation must fall.
	Floor float64 `yaml:"floor"`
}

// StageDecision describes the outcome of one stage evaluation pass.
type StageDecision struct {
	From   QualificationStage `json:"from"`
	To     QualificationStage `json:"to"`
	Reason string             `json:"reason,omitempty"`
}

// Changed reports whether the pass moved the lead to a different stage.
func (d StageDecision) Changed() bool {
	return d.From != d.To
}

// Stage transition reasons recorded on audit entries and decisions.
const (
	ReasonScoreThresholdMet    = "score_threshold_met"
	ReasonBlockingFieldMissing = "blocking_field_missing"
	ReasonScoreBelowThreshold  = "score_below_threshold"
	ReasonTerminalStage        = "terminal_stage"
	ReasonExplicitDisinterest  = "explicit_disinterest"
	ReasonDecliningScoreTrend  = "declining_score_trend"
)

// EvaluateStage runs one stage pass: a lead advances at most one stage when
// the blocking BANT field of its current stage is populated and the score
// meets the next stage's entry threshold. Leads never regress along the
// forward path; the only backward-looking transition is disqualification,
// which is decided separately by EvaluateDisqualification.
func EvaluateStage(current QualificationStage, q QualificationData, score float64, thresholds StageThresholds) StageDecision {
	decision := StageDecision{From: current, To: current}

	if current.IsTerminal() {
		decision.Reason = ReasonTerminalStage
		return decision
	}

	next, ok := current.Next()
	if !ok {
		decision.Reason = ReasonTerminalStage
		return decision
	}

	if category, gated := BlockingField(current); gated && !q.Has(category) {
		decision.Reason = ReasonBlockingFieldMissing
		return decision
	}

	if score < thresholds[next] {
		decision.Reason = ReasonScoreBelowThreshold
		return decision
	}

	decision.To = next
	decision.Reason = ReasonScoreThresholdMet
	return decision
}

// EvaluateDisqualification decides whether a non-terminal lead should move to
// disqualified. It fires on an explicit disqualifying phrase, or when the
// score history shows Window consecutive strictly declining observations with
// the latest below Floor. History is ordered oldest first and includes the
// current pass's score.
func EvaluateDisqualification(current QualificationStage, signals LeadSignals, history []float64, rule DisqualificationRule) (StageDecision, bool) {
	decision := StageDecision{From: current, To: current}

	if current.IsTerminal() {
		return decision, false
	}

	if len(signals.DisqualifyingPhrases) > 0 {
		decision.To = StageDisqualified
		decision.Reason = ReasonExplicitDisinterest
		return decision, true
	}

	if rule.Window >= 2 && hasDecliningTrend(history, rule.Window, rule.Floor) {
		decision.To = StageDisqualified
		decision.Reason = ReasonDecliningScoreTrend
		return decision, true
	}

	return decision, false
}

func hasDecliningTrend(history []float64, window int, floor float64) bool {
	if len(history) < window {
		return false
	}
	recent := history[len(history)-window:]
	for i := 1; i < len(recent); i++ {
		if recent[i] >= recent[i-1] {
			return false
		}
	}
	return recent[len(recent)-1] < floor
}
