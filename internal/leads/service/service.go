// Package service orchestrates lead qualification: analysis, scoring, stage
// transitions, persistence, and event publication.
package service

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"chatlead_backend/internal/events"
	"chatlead_backend/internal/leads/analysis"
	"chatlead_backend/internal/leads/domain"
	"chatlead_backend/internal/leads/repository"
	"chatlead_backend/internal/leads/scoring"
	"chatlead_backend/platform/apperr"
	platformevents "chatlead_backend/platform/events"
	"chatlead_backend/platform/logger"
)

// bulkConcurrency bounds parallel conversation analysis in BulkAnalyze.
const bulkConcurrency = 8

// scoreHistoryWindow is how many past observations are loaded per pass. It
// only needs to cover the disqualification window.
const scoreHistoryWindow = 10

// Store is the persistence surface the service needs. The repository package
// provides the PostgreSQL implementation.
type Store interface {
	Create(ctx context.Context, lead *domain.EnhancedLead) error
	GetByID(ctx context.Context, tenantID, leadID uuid.UUID) (*domain.EnhancedLead, error)
	GetByConversation(ctx context.Context, tenantID uuid.UUID, conversationID string) (*domain.EnhancedLead, error)
	Update(ctx context.Context, lead *domain.EnhancedLead, expectedUpdatedAt time.Time) error
	List(ctx context.Context, tenantID uuid.UUID, filter repository.ListFilter) ([]domain.EnhancedLead, error)
	ListStale(ctx context.Context, olderThan time.Time, limit int) ([]domain.EnhancedLead, error)
	AppendScore(ctx context.Context, observation repository.ScoreObservation) error
	LatestScore(ctx context.Context, leadID uuid.UUID) (repository.ScoreObservation, error)
	ScoreHistory(ctx context.Context, leadID uuid.UUID, limit int) ([]float64, error)
	AppendAudit(ctx context.Context, entries ...domain.AuditEntry) error
	AuditTrail(ctx context.Context, tenantID, leadID uuid.UUID) ([]domain.AuditEntry, error)
	Stats(ctx context.Context, tenantID uuid.UUID) (repository.LeadStats, error)
}

// Service implements the lead qualification use cases.
type Service struct {
	store    Store
	analyzer *analysis.Analyzer
	cfg      scoring.Config
	bus      platformevents.Bus
	log      *logger.Logger
	now      func() time.Time
}

// New creates the lead service.
func New(store Store, analyzer *analysis.Analyzer, cfg scoring.Config, bus platformevents.Bus, log *logger.Logger) *Service {
	return &Service{
		store:    store,
		analyzer: analyzer,
		cfg:      cfg,
		bus:      bus,
		log:      log,
		now:      time.Now,
	}
}

// QualifyInput is one qualification pass over a conversation. Metrics are
// optional; when absent they are derived from the messages, and when neither
// is available the score is marked degraded.
type QualifyInput struct {
	TenantID       uuid.UUID
	ConversationID string
	ChatbotID      string
	Messages       []string
	Metrics        *domain.ConversationMetrics
	Contact        *domain.ContactInfo
	Qualification  *domain.QualificationData
	Strategy       domain.CollectionStrategy
}

// QualifyOutcome is the result of one qualification pass.
type QualifyOutcome struct {
	Lead           *domain.EnhancedLead   `json:"lead"`
	Score          scoring.Result         `json:"scoring"`
	StageDecision  domain.StageDecision   `json:"stageDecision"`
	Recommendation scoring.Recommendation `json:"recommendation"`
	Created        bool                   `json:"created"`
}

// Qualify runs one full qualification pass: load or create the lead, merge
// new facts, score, evaluate stage transitions, persist, and publish events.
func (s *Service) Qualify(ctx context.Context, input QualifyInput) (*QualifyOutcome, error) {
	if input.ConversationID == "" {
		return nil, apperr.Validation("conversation id is required")
	}

	now := s.now()
	lead, created, err := s.loadOrCreateLead(ctx, input, now)
	if err != nil {
		return nil, err
	}
	expectedUpdatedAt := lead.UpdatedAt

	s.mergeInput(lead, input, now)

	// Insert first contact before score history so the observation and audit
	// rows always reference an existing lead.
	if created {
		if err := s.store.Create(ctx, lead); err != nil {
			return nil, err
		}
	}

	signals := s.analyzer.ExtractSignals(input.Messages)
	metrics, degraded := s.resolveMetrics(input, signals, lead, created)
	lead.Metrics = metrics

	result, err := scoring.ComputeScore(metrics, signals, lead.Qualification, s.cfg)
	if err != nil {
		return nil, err
	}
	result.DegradedConfidence = degraded

	previousScore := lead.LeadScore
	previousStage := lead.Stage
	previousPriority := lead.Priority

	lead.ApplyScore(result.Score, now)
	lead.Priority = scoring.MapPriority(result.Score, result.Factors[scoring.FactorUrgency], s.cfg)

	if err := s.store.AppendScore(ctx, repository.ScoreObservation{
		ID:        uuid.New(),
		LeadID:    lead.ID,
		Score:     result.Score,
		Factors:   result.Factors,
		Degraded:  degraded,
		Version:   result.Version,
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}

	history, err := s.store.ScoreHistory(ctx, lead.ID, scoreHistoryWindow)
	if err != nil {
		return nil, err
	}

	decision := s.evaluateTransitions(lead, signals, history, result.Score)

	audit := s.auditEntries(lead, created, previousScore, previousStage, decision, now)
	if err := s.store.AppendAudit(ctx, audit...); err != nil {
		return nil, err
	}

	if err := s.store.Update(ctx, lead, expectedUpdatedAt); err != nil {
		return nil, err
	}

	s.publishOutcome(ctx, lead, result, previousScore, previousStage, previousPriority, decision, created)

	s.log.ScoringPass(lead.ConversationID, result.Score, string(lead.Stage), string(lead.Priority), degraded)

	return &QualifyOutcome{
		Lead:           lead,
		Score:          result,
		StageDecision:  decision,
		Recommendation: scoring.Recommend(lead, result, s.cfg),
		Created:        created,
	}, nil
}

func (s *Service) loadOrCreateLead(ctx context.Context, input QualifyInput, now time.Time) (*domain.EnhancedLead, bool, error) {
	lead, err := s.store.GetByConversation(ctx, input.TenantID, input.ConversationID)
	if err == nil {
		return lead, false, nil
	}
	if apperr.GetKind(err) != apperr.KindNotFound {
		return nil, false, err
	}
	return domain.NewLead(input.TenantID, input.ConversationID, input.ChatbotID, now), true, nil
}

func (s *Service) mergeInput(lead *domain.EnhancedLead, input QualifyInput, now time.Time) {
	if input.Contact != nil {
		lead.Contact = mergeContact(lead.Contact, *input.Contact)
	}
	if input.Qualification != nil {
		lead.Qualification = lead.Qualification.Merge(*input.Qualification)
	}
	if input.Strategy != "" {
		lead.Strategy = input.Strategy
	}
	if len(input.Messages) > 0 {
		lead.LastInteraction = &now
	}
}

// resolveMetrics prefers caller-provided metrics, then metrics derived from
// the messages, then the metrics already stored on the lead, so a background
// rescore with an empty payload never wipes what a real pass recorded. Only a
// pass with no source at all scores against zero metrics, with degraded
// confidence.
func (s *Service) resolveMetrics(input QualifyInput, signals domain.LeadSignals, lead *domain.EnhancedLead, created bool) (domain.ConversationMetrics, bool) {
	if input.Metrics != nil {
		return *input.Metrics, false
	}
	if len(input.Messages) > 0 {
		return s.analyzer.DeriveMetrics(input.Messages, signals), false
	}
	if !created {
		return lead.Metrics, lead.Metrics == (domain.ConversationMetrics{})
	}
	return domain.ConversationMetrics{}, true
}

func (s *Service) evaluateTransitions(lead *domain.EnhancedLead, signals domain.LeadSignals, history []float64, score float64) domain.StageDecision {
	if decision, disqualified := domain.EvaluateDisqualification(lead.Stage, signals, history, s.cfg.Disqualification); disqualified {
		lead.Stage = decision.To
		lead.Status = domain.StatusClosedLost
		return decision
	}

	decision := domain.EvaluateStage(lead.Stage, lead.Qualification, score, s.cfg.StageThresholds)
	if decision.Changed() {
		lead.Stage = decision.To
		if decision.To == domain.StageQualified {
			lead.Status = domain.StatusQualified
		}
	}
	return decision
}

func (s *Service) auditEntries(lead *domain.EnhancedLead, created bool, previousScore float64, previousStage domain.QualificationStage, decision domain.StageDecision, now time.Time) []domain.AuditEntry {
	var entries []domain.AuditEntry

	if created {
		entries = append(entries, domain.AuditEntry{
			ID:        uuid.New(),
			LeadID:    lead.ID,
			Event:     domain.AuditLeadCreated,
			ToValue:   string(lead.Stage),
			CreatedAt: now,
		})
	}

	entries = append(entries, domain.AuditEntry{
		ID:        uuid.New(),
		LeadID:    lead.ID,
		Event:     domain.AuditScoreUpdated,
		FromValue: formatScore(previousScore),
		ToValue:   formatScore(lead.LeadScore),
		CreatedAt: now,
	})

	if lead.Stage != previousStage {
		entries = append(entries, domain.AuditEntry{
			ID:        uuid.New(),
			LeadID:    lead.ID,
			Event:     domain.AuditStageChanged,
			FromValue: string(previousStage),
			ToValue:   string(lead.Stage),
			Note:      decision.Reason,
			CreatedAt: now,
		})
	}

	return entries
}

func (s *Service) publishOutcome(ctx context.Context, lead *domain.EnhancedLead, result scoring.Result, previousScore float64, previousStage domain.QualificationStage, previousPriority domain.LeadPriority, decision domain.StageDecision, created bool) {
	if created {
		s.bus.Publish(ctx, events.LeadCreated{
			BaseEvent:      platformevents.NewBaseEvent(),
			LeadID:         lead.ID,
			TenantID:       lead.TenantID,
			ConversationID: lead.ConversationID,
			ChatbotID:      lead.ChatbotID,
		})
	}

	s.bus.Publish(ctx, events.LeadScored{
		BaseEvent:     platformevents.NewBaseEvent(),
		LeadID:        lead.ID,
		TenantID:      lead.TenantID,
		Score:         lead.LeadScore,
		PreviousScore: previousScore,
		Priority:      lead.Priority,
		Stage:         lead.Stage,
		Factors:       result.Factors,
		Degraded:      result.DegradedConfidence,
	})

	if lead.Stage != previousStage {
		s.bus.Publish(ctx, events.StageChanged{
			BaseEvent: platformevents.NewBaseEvent(),
			LeadID:    lead.ID,
			TenantID:  lead.TenantID,
			From:      previousStage,
			To:        lead.Stage,
			Reason:    decision.Reason,
		})

		switch lead.Stage {
		case domain.StageQualified:
			s.bus.Publish(ctx, events.LeadQualified{
				BaseEvent: platformevents.NewBaseEvent(),
				LeadID:    lead.ID,
				TenantID:  lead.TenantID,
				Score:     lead.LeadScore,
				Priority:  lead.Priority,
			})
		case domain.StageDisqualified:
			s.bus.Publish(ctx, events.LeadDisqualified{
				BaseEvent: platformevents.NewBaseEvent(),
				LeadID:    lead.ID,
				TenantID:  lead.TenantID,
				Reason:    decision.Reason,
			})
		}
	}

	if lead.Priority == domain.PriorityUrgent && previousPriority != domain.PriorityUrgent {
		s.bus.Publish(ctx, events.PriorityUrgent{
			BaseEvent: platformevents.NewBaseEvent(),
			LeadID:    lead.ID,
			TenantID:  lead.TenantID,
			Score:     lead.LeadScore,
			Previous:  previousPriority,
		})
	}
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 2, 64)
}

func mergeContact(base, update domain.ContactInfo) domain.ContactInfo {
	merged := base
	for _, field := range []struct {
		dst **string
		src *string
	}{
		{&merged.Email, update.Email},
		{&merged.Phone, update.Phone},
		{&merged.Name, update.Name},
		{&merged.Company, update.Company},
		{&merged.JobTitle, update.JobTitle},
		{&merged.LinkedInURL, update.LinkedInURL},
		{&merged.Website, update.Website},
	} {
		if field.src != nil && *field.src != "" {
			*field.dst = field.src
		}
	}
	return merged
}
