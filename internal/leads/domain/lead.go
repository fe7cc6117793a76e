// Package domain provides core business rules for the leads bounded context.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// CollectionStrategy controls how contact data is gathered during a conversation.
type CollectionStrategy string

const (
	CollectionDirect         CollectionStrategy = "direct"
	CollectionConversational CollectionStrategy = "conversational"
	CollectionProgressive    CollectionStrategy = "progressive"
)

// LeadPriority is the routing priority derived from the lead score.
type LeadPriority string

const (
	PriorityLow    LeadPriority = "low"
	PriorityMedium LeadPriority = "medium"
	PriorityHigh   LeadPriority = "high"
	PriorityUrgent LeadPriority = "urgent"
)

// priorityRank orders priorities for upward-only escalation.
var priorityRank = map[LeadPriority]int{
	PriorityLow:    0,
	PriorityMedium: 1,
	PriorityHigh:   2,
	PriorityUrgent: 3,
}

// Rank returns the ordinal position of the priority (low=0 .. urgent=3).
func (p LeadPriority) Rank() int {
	return priorityRank[p]
}

// Bump returns the priority one band higher. Urgent stays urgent.
func (p LeadPriority) Bump() LeadPriority {
	switch p {
	case PriorityLow:
		return PriorityMedium
	case PriorityMedium:
		return PriorityHigh
	case PriorityHigh:
		return PriorityUrgent
	default:
		return p
	}
}

// LeadStatus is the CRM lifecycle status, independent of the qualification stage.
type LeadStatus string

const (
	StatusNew          LeadStatus = "new"
	StatusContacted    LeadStatus = "contacted"
	StatusQualified    LeadStatus = "qualified"
	StatusProposalSent LeadStatus = "proposal_sent"
	StatusNegotiation  LeadStatus = "negotiation"
	StatusClosedWon    LeadStatus = "closed_won"
	StatusClosedLost   LeadStatus = "closed_lost"
)

// LeadType classifies the detected intent of a lead-generating message.
type LeadType string

const (
	LeadTypeDemoRequest       LeadType = "demo_request"
	LeadTypeEnterpriseInquiry LeadType = "enterprise_inquiry"
	LeadTypeBulkOrder         LeadType = "bulk_order"
	LeadTypePricingInquiry    LeadType = "pricing_inquiry"
	LeadTypeSupportEscalation LeadType = "support_escalation"
	LeadTypeFeatureRequest    LeadType = "feature_request"
	LeadTypeGeneralInquiry    LeadType = "general_inquiry"
)

// Classifier maps a message and its signals to a LeadType. The keyword
// implementation lives in the analysis package; the engine only depends on
// this function shape.
type Classifier func(message string, signals LeadSignals) LeadType

// ContactInfo holds progressively collected contact fields.
type ContactInfo struct {
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Name        *string `json:"name,omitempty"`
	Company     *string `json:"company,omitempty"`
	JobTitle    *string `json:"jobTitle,omitempty"`
	LinkedInURL *string `json:"linkedinUrl,omitempty"`
	Website     *string `json:"website,omitempty"`
}

// QualificationData holds BANT qualification fields. Scalar fields are
// progressively filled; list fields are append-only.
type QualificationData struct {
	Budget          *string  `json:"budget,omitempty"`
	Authority       *string  `json:"authority,omitempty"`
	Need            *string  `json:"need,omitempty"`
	Timeline        *string  `json:"timeline,omitempty"`
	CompanySize     *string  `json:"companySize,omitempty"`
	Industry        *string  `json:"industry,omitempty"`
	CurrentSolution *string  `json:"currentSolution,omitempty"`
	PainPoints      []string `json:"painPoints,omitempty"`
}

// BANTCategory names one of the four core qualification dimensions.
type BANTCategory string

const (
	BANTBudget    BANTCategory = "budget"
	BANTAuthority BANTCategory = "authority"
	BANTNeed      BANTCategory = "need"
	BANTTimeline  BANTCategory = "timeline"
)

// BANTCategories lists the core qualification dimensions in stage order.
var BANTCategories = []BANTCategory{BANTNeed, BANTBudget, BANTAuthority, BANTTimeline}

// Has reports whether the given BANT field is populated.
func (q QualificationData) Has(category BANTCategory) bool {
	switch category {
	case BANTBudget:
		return isSet(q.Budget)
	case BANTAuthority:
		return isSet(q.Authority)
	case BANTNeed:
		return isSet(q.Need)
	case BANTTimeline:
		return isSet(q.Timeline)
	default:
		return false
	}
}

// FilledCount returns how many of the four BANT fields are populated.
func (q QualificationData) FilledCount() int {
	count := 0
	for _, category := range BANTCategories {
		if q.Has(category) {
			count++
		}
	}
	return count
}

// Merge overlays newer qualification data onto q. Scalar fields are only
// replaced when the incoming value is set; pain points are appended and
// de-duplicated by the caller.
func (q QualificationData) Merge(update QualificationData) QualificationData {
	merged := q
	if isSet(update.Budget) {
		merged.Budget = update.Budget
	}
	if isSet(update.Authority) {
		merged.Authority = update.Authority
	}
	if isSet(update.Need) {
		merged.Need = update.Need
	}
	if isSet(update.Timeline) {
		merged.Timeline = update.Timeline
	}
	if isSet(update.CompanySize) {
		merged.CompanySize = update.CompanySize
	}
	if isSet(update.Industry) {
		merged.Industry = update.Industry
	}
	if isSet(update.CurrentSolution) {
		merged.CurrentSolution = update.CurrentSolution
	}
	merged.PainPoints = appendUnique(q.PainPoints, update.PainPoints)
	return merged
}

func isSet(s *string) bool {
	return s != nil && *s != ""
}

func appendUnique(base, extra []string) []string {
	seen := make(map[string]bool, len(base))
	out := append([]string(nil), base...)
	for _, item := range base {
		seen[item] = true
	}
	for _, item := range extra {
		if item != "" && !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}

// ConversationMetrics are numeric features recomputed per scoring pass.
// All ranges are validated at the transport boundary, not here.
type ConversationMetrics struct {
	EngagementScore    float64 `json:"engagementScore"`
	IntentStrength     float64 `json:"intentStrength"`
	UrgencyLevel       float64 `json:"urgencyLevel"`
	SentimentScore     float64 `json:"sentimentScore"`
	QuestionCount      int     `json:"questionCount"`
	ResponseTimeAvg    float64 `json:"responseTimeAvg"`
	ConversationLength int     `json:"conversationLength"`
}

// LeadSignals are keyword matches per category, produced by text analysis.
// Read-only input to scoring.
type LeadSignals struct {
	BuyingIntentKeywords []string `json:"buyingIntentKeywords,omitempty"`
	UrgencyIndicators    []string `json:"urgencyIndicators,omitempty"`
	BudgetMentions       []string `json:"budgetMentions,omitempty"`
	AuthorityIndicators  []string `json:"authorityIndicators,omitempty"`
	CompetitorMentions   []string `json:"competitorMentions,omitempty"`
	PainPointExpressions []string `json:"painPointExpressions,omitempty"`
	TimelineMentions     []string `json:"timelineMentions,omitempty"`
	DisqualifyingPhrases []string `json:"disqualifyingPhrases,omitempty"`
}

// QualificationQuestion is a suggested question to close a BANT gap.
type QualificationQuestion struct {
	Question  string       `json:"question"`
	Category  BANTCategory `json:"category"`
	Priority  int          `json:"priority"`
	Context   string       `json:"context,omitempty"`
	FollowUps []string     `json:"followUps,omitempty"`
}

// AuditEntry records a state change on the lead for traceability.
type AuditEntry struct {
	ID        uuid.UUID `json:"id"`
	LeadID    uuid.UUID `json:"leadId"`
	Event     string    `json:"event"`
	FromValue string    `json:"fromValue,omitempty"`
	ToValue   string    `json:"toValue,omitempty"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Audit event names.
const (
	AuditScoreUpdated  = "score_updated"
	AuditStageChanged  = "stage_changed"
	AuditStatusChanged = "status_changed"
	AuditLeadCreated   = "lead_created"
)

// EnhancedLead is the aggregate root for a qualified conversation.
// The caller owns concurrency control; the aggregate itself holds no locks.
type EnhancedLead struct {
	ID              uuid.UUID           `json:"id"`
	TenantID        uuid.UUID           `json:"tenantId"`
	ConversationID  string              `json:"conversationId"`
	ChatbotID       string              `json:"chatbotId"`
	Contact         ContactInfo         `json:"contact"`
	Qualification   QualificationData   `json:"qualification"`
	Metrics         ConversationMetrics `json:"metrics"`
	Strategy        CollectionStrategy  `json:"collectionStrategy"`
	LeadScore       float64             `json:"leadScore"`
	Priority        LeadPriority        `json:"priority"`
	Status          LeadStatus          `json:"status"`
	Stage           QualificationStage  `json:"qualificationStage"`
	Source          string              `json:"source"`
	Tags            []string            `json:"tags,omitempty"`
	Notes           []string            `json:"notes,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
	LastInteraction *time.Time          `json:"lastInteraction,omitempty"`
}

// NewLead creates a lead aggregate for a conversation that produced its first
// lead signal. created_at is immutable afterwards.
func NewLead(tenantID uuid.UUID, conversationID, chatbotID string, now time.Time) *EnhancedLead {
	return &EnhancedLead{
		ID:             uuid.New(),
		TenantID:       tenantID,
		ConversationID: conversationID,
		ChatbotID:      chatbotID,
		Strategy:       CollectionConversational,
		Priority:       PriorityLow,
		Status:         StatusNew,
		Stage:          StageInitialInterest,
		Source:         "chatbot",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// ClampScore clamps a score into the [0,100] aggregate range. This is the one
// place in the engine where clamping is allowed; inputs are validated at the
// boundary instead.
func ClampScore(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}

// ApplyScore sets the lead score, clamping into [0,100], and refreshes
// updated_at. The clamp is idempotent: applying an in-range score is a no-op
// on the value.
func (l *EnhancedLead) ApplyScore(score float64, now time.Time) {
	l.LeadScore = ClampScore(score)
	l.Touch(now)
}

// Touch refreshes updated_at, preserving the updated_at >= created_at invariant.
func (l *EnhancedLead) Touch(now time.Time) {
	if now.Before(l.CreatedAt) {
		now = l.CreatedAt
	}
	l.UpdatedAt = now
}
