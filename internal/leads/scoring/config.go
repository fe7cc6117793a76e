// Package scoring implements the lead score computation: factor sub-scores,
// weighted aggregation, priority mapping, and next-action recommendation.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"chatlead_backend/internal/leads/domain"
)

// ErrInvalidWeights is returned when a weight profile cannot produce a score.
var ErrInvalidWeights = errors.New("invalid scoring weights")

// Weights holds the relative weight of each scoring factor. Weights need not
// sum to exactly one; the engine normalizes by the active weight sum.
type Weights struct {
	Engagement    float64 `yaml:"engagement"`
	Intent        float64 `yaml:"intent"`
	Qualification float64 `yaml:"qualification"`
	Urgency       float64 `yaml:"urgency"`
	Fit           float64 `yaml:"fit"`
}

// Sum returns the total of all factor weights.
func (w Weights) Sum() float64 {
	return w.Engagement + w.Intent + w.Qualification + w.Urgency + w.Fit
}

// Validate rejects profiles with negative weights or a zero sum.
func (w Weights) Validate() error {
	for name, value := range map[string]float64{
		FactorEngagement:    w.Engagement,
		FactorIntent:        w.Intent,
		FactorQualification: w.Qualification,
		FactorUrgency:       w.Urgency,
		FactorFit:           w.Fit,
	} {
		if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
			return fmt.Errorf("%w: factor %s has weight %v", ErrInvalidWeights, name, value)
		}
	}
	if w.Sum() <= 0 {
		return fmt.Errorf("%w: weights sum to %v", ErrInvalidWeights, w.Sum())
	}
	return nil
}

// Bands holds the lower bound of each priority band above low. A score s maps
// to low when s < Medium, medium when Medium <= s < High, high when
// High <= s < Urgent, and urgent when s >= Urgent.
type Bands struct {
	Medium float64 `yaml:"medium"`
	High   float64 `yaml:"high"`
	Urgent float64 `yaml:"urgent"`
}

// Validate rejects band boundaries that are out of range or out of order.
func (b Bands) Validate() error {
	if b.Medium < 0 || b.Urgent > 100 || b.Medium >= b.High || b.High >= b.Urgent {
		return fmt.Errorf("priority bands must satisfy 0 <= medium < high < urgent <= 100, got %v/%v/%v",
			b.Medium, b.High, b.Urgent)
	}
	return nil
}

// Saturation caps the marginal contribution of repeated signals so that
// keyword spam cannot inflate a factor without limit.
type Saturation struct {
	// QuestionCap is the question count at which the engagement bonus maxes out.
	QuestionCap int `yaml:"questionCap"`
	// LengthCap is the message count at which the length bonus maxes out.
	LengthCap int `yaml:"lengthCap"`
	// IntentKeywordBonus is added per distinct buying-intent keyword.
	IntentKeywordBonus float64 `yaml:"intentKeywordBonus"`
	// IntentBonusCap bounds the total keyword bonus on the intent factor.
	IntentBonusCap float64 `yaml:"intentBonusCap"`
	// UrgencyIndicatorCap is the distinct indicator count at which the urgency
	// bonus maxes out.
	UrgencyIndicatorCap int `yaml:"urgencyIndicatorCap"`
}

// ICPProfile describes the ideal customer profile used by the fit factor.
// Empty dimension lists mean the dimension is not part of the profile.
type ICPProfile struct {
	CompanySizes []string `yaml:"companySizes"`
	Industries   []string `yaml:"industries"`
}

// Configured reports whether the profile defines at least one dimension.
func (p *ICPProfile) Configured() bool {
	return p != nil && (len(p.CompanySizes) > 0 || len(p.Industries) > 0)
}

// Keywords holds the phrase lists used by text analysis to derive signals.
type Keywords struct {
	BuyingIntent []string `yaml:"buyingIntent"`
	Urgency      []string `yaml:"urgency"`
	Budget       []string `yaml:"budget"`
	Authority    []string `yaml:"authority"`
	Competitor   []string `yaml:"competitor"`
	PainPoint    []string `yaml:"painPoint"`
	Timeline     []string `yaml:"timeline"`
	Disqualifier []string `yaml:"disqualifier"`
}

// Config is the full scoring configuration. It is loaded once at startup and
// treated as immutable afterwards.
type Config struct {
	Weights Weights `yaml:"weights"`
	Bands   Bands   `yaml:"bands"`

	// UrgencyOverride escalates the priority one band when the urgency factor
	// reaches this value, regardless of the total score.
	UrgencyOverride float64 `yaml:"urgencyOverride"`

	StageThresholds  domain.StageThresholds           `yaml:"stageThresholds"`
	Disqualification domain.DisqualificationRule      `yaml:"disqualification"`
	Saturation       Saturation                       `yaml:"saturation"`
	ICP              *ICPProfile                      `yaml:"icp"`
	Keywords         Keywords                         `yaml:"keywords"`
	Questions        map[domain.BANTCategory][]string `yaml:"questions"`
}

// Default returns the built-in scoring configuration.
func Default() Config {
	return Config{
		Weights: Weights{
			Engagement:    0.2,
			Intent:        0.3,
			Qualification: 0.3,
			Urgency:       0.1,
			Fit:           0.1,
		},
		Bands: Bands{
			Medium: 25,
			High:   60,
			Urgent: 85,
		},
		UrgencyOverride: 0.8,
		StageThresholds: domain.StageThresholds{
			domain.StageNeedAssessment:        20,
			domain.StageBudgetQualification:   30,
			domain.StageAuthorityVerification: 40,
			domain.StageTimelineDiscussion:    50,
			domain.StageQualified:             60,
		},
		Disqualification: domain.DisqualificationRule{
			Window: 3,
			Floor:  25,
		},
		Saturation: Saturation{
			QuestionCap:         5,
			LengthCap:           20,
			IntentKeywordBonus:  0.1,
			IntentBonusCap:      0.4,
			UrgencyIndicatorCap: 3,
		},
		Keywords: Keywords{
			BuyingIntent: []string{
				"pricing", "price", "cost", "quote", "demo", "trial",
				"purchase", "buy", "subscribe", "upgrade", "contract",
				"how much", "interested in",
			},
			Urgency: []string{
				"urgent", "asap", "immediately", "right away", "today",
				"this week", "deadline", "time sensitive",
			},
			Budget: []string{
				"budget", "approved", "spend", "invest", "allocated",
				"per month", "per year", "annually",
			},
			Authority: []string{
				"decision maker", "i decide", "my team", "our company",
				"ceo", "cto", "founder", "director", "manager", "head of",
			},
			Competitor: []string{
				"competitor", "alternative", "switching from", "compared to",
				"currently using", "instead of",
			},
			PainPoint: []string{
				"problem", "struggling", "frustrated", "pain point",
				"doesn't work", "too slow", "too expensive", "manual",
				"time consuming",
			},
			Timeline: []string{
				"this month", "this quarter", "next month", "next quarter",
				"by the end of", "q1", "q2", "q3", "q4", "soon",
			},
			Disqualifier: []string{
				"not interested", "no thanks", "stop contacting",
				"just browsing", "student project", "unsubscribe",
			},
		},
		Questions: map[domain.BANTCategory][]string{
			domain.BANTNeed: {
				"What challenge are you hoping to solve?",
				"What does your current process look like?",
			},
			domain.BANTBudget: {
				"Do you have a budget allocated for this?",
				"What price range were you considering?",
			},
			domain.BANTAuthority: {
				"Who else would be involved in this decision?",
				"Are you the one making the final call?",
			},
			domain.BANTTimeline: {
				"When are you looking to have a solution in place?",
				"Is there a deadline driving this?",
			},
		},
	}
}

// Load reads a YAML override file and overlays it on the defaults. An empty
// path returns the defaults unchanged. The resulting config is validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read scoring config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse scoring config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the full configuration for internal consistency.
func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if err := c.Bands.Validate(); err != nil {
		return err
	}
	if c.UrgencyOverride < 0 || c.UrgencyOverride > 1 {
		return fmt.Errorf("urgency override must be in [0,1], got %v", c.UrgencyOverride)
	}
	if c.Disqualification.Window < 0 {
		return fmt.Errorf("disqualification window must be >= 0, got %d", c.Disqualification.Window)
	}
	if c.Saturation.QuestionCap <= 0 || c.Saturation.LengthCap <= 0 {
		return fmt.Errorf("saturation caps must be positive")
	}

	prev := 0.0
	for _, stage := range []domain.QualificationStage{
		domain.StageNeedAssessment,
		domain.StageBudgetQualification,
		domain.StageAuthorityVerification,
		domain.StageTimelineDiscussion,
		domain.StageQualified,
	} {
		threshold, ok := c.StageThresholds[stage]
		if !ok {
			return fmt.Errorf("missing stage threshold for %s", stage)
		}
		if threshold < prev {
			return fmt.Errorf("stage thresholds must be non-decreasing, %s has %v after %v", stage, threshold, prev)
		}
		prev = threshold
	}
	return nil
}
