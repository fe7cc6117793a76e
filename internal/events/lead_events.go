// Package events defines the domain events exchanged between modules.
// The bus implementation lives in platform/events.
package events

import (
	"github.com/google/uuid"

	"chatlead_backend/internal/leads/domain"
	"chatlead_backend/platform/events"
)

// Event names.
const (
	LeadCreatedEvent      = "lead.created"
	LeadScoredEvent       = "lead.scored"
	StageChangedEvent     = "lead.stage_changed"
	LeadQualifiedEvent    = "lead.qualified"
	LeadDisqualifiedEvent = "lead.disqualified"
	PriorityUrgentEvent   = "lead.priority_urgent"
)

// LeadCreated fires when a conversation produces its first lead record.
type LeadCreated struct {
	events.BaseEvent
	LeadID         uuid.UUID
	TenantID       uuid.UUID
	ConversationID string
	ChatbotID      string
}

func (e LeadCreated) EventName() string { return LeadCreatedEvent }

// LeadScored fires after every scoring pass, including passes that do not
// change the stage or priority.
type LeadScored struct {
	events.BaseEvent
	LeadID        uuid.UUID
	TenantID      uuid.UUID
	Score         float64
	PreviousScore float64
	Priority      domain.LeadPriority
	Stage         domain.QualificationStage
	Factors       map[string]float64
	Degraded      bool
}

func (e LeadScored) EventName() string { return LeadScoredEvent }

// StageChanged fires when a scoring pass moves the lead to a new stage.
type StageChanged struct {
	events.BaseEvent
	LeadID   uuid.UUID
	TenantID uuid.UUID
	From     domain.QualificationStage
	To       domain.QualificationStage
	Reason   string
}

func (e StageChanged) EventName() string { return StageChangedEvent }

// LeadQualified fires when a lead reaches the qualified stage. Subscribers
// sync the lead to the CRM.
type LeadQualified struct {
	events.BaseEvent
	LeadID   uuid.UUID
	TenantID uuid.UUID
	Score    float64
	Priority domain.LeadPriority
}

func (e LeadQualified) EventName() string { return LeadQualifiedEvent }

// LeadDisqualified fires when a lead is disqualified, either explicitly or by
// a declining score trend.
type LeadDisqualified struct {
	events.BaseEvent
	LeadID   uuid.UUID
	TenantID uuid.UUID
	Reason   string
}

func (e LeadDisqualified) EventName() string { return LeadDisqualifiedEvent }

// PriorityUrgent fires when a scoring pass raises a lead to urgent priority.
// Subscribers alert the sales team.
type PriorityUrgent struct {
	events.BaseEvent
	LeadID   uuid.UUID
	TenantID uuid.UUID
	Score    float64
	Previous domain.LeadPriority
}

func (e PriorityUrgent) EventName() string { return PriorityUrgentEvent }
