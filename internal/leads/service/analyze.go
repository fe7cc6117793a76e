package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"chatlead_backend/internal/leads/analysis"
	"chatlead_backend/internal/leads/domain"
	"chatlead_backend/internal/leads/repository"
	"chatlead_backend/internal/leads/scoring"
	"chatlead_backend/platform/apperr"
)

// AnalyzeInput is one stateless conversation analysis request. Nothing is
// persisted; the caller gets back what a qualification pass would conclude.
type AnalyzeInput struct {
	ConversationID string
	Messages       []string
	Metrics        *domain.ConversationMetrics
	Qualification  *domain.QualificationData
}

// LeadAnalysis is the stateless analysis verdict for one conversation.
type LeadAnalysis struct {
	ConversationID     string                         `json:"conversationId"`
	IsPotentialLead    bool                           `json:"isPotentialLead"`
	ConfidenceScore    float64                        `json:"confidenceScore"`
	Score              float64                        `json:"score"`
	Priority           domain.LeadPriority            `json:"priority"`
	LeadType           domain.LeadType                `json:"leadType"`
	Signals            domain.LeadSignals             `json:"signals"`
	Metrics            domain.ConversationMetrics     `json:"metrics"`
	Factors            map[string]float64             `json:"factors"`
	SuggestedQuestions []domain.QualificationQuestion `json:"suggestedQuestions,omitempty"`
	NextActions        []string                       `json:"nextActions"`
	RiskFactors        []string                       `json:"riskFactors,omitempty"`
	DegradedConfidence bool                           `json:"degradedConfidence"`
}

// Analyze scores a conversation without touching stored state.
func (s *Service) Analyze(ctx context.Context, input AnalyzeInput) (*LeadAnalysis, error) {
	if len(input.Messages) == 0 && input.Metrics == nil {
		return nil, apperr.Validation("messages or metrics are required")
	}

	signals := s.analyzer.ExtractSignals(input.Messages)

	qualification := domain.QualificationData{}
	if input.Qualification != nil {
		qualification = *input.Qualification
	}

	metrics, degraded := s.resolveMetrics(QualifyInput{
		Messages: input.Messages,
		Metrics:  input.Metrics,
	}, signals, nil, true)

	result, err := scoring.ComputeScore(metrics, signals, qualification, s.cfg)
	if err != nil {
		return nil, err
	}
	result.DegradedConfidence = degraded

	// Build a throwaway lead so recommendation logic sees the same shape a
	// qualification pass would produce.
	scratch := domain.NewLead(uuid.Nil, input.ConversationID, "", s.now())
	scratch.Qualification = qualification
	scratch.LeadScore = result.Score
	scratch.Priority = scoring.MapPriority(result.Score, result.Factors[scoring.FactorUrgency], s.cfg)
	recommendation := scoring.Recommend(scratch, result, s.cfg)

	message := ""
	if len(input.Messages) > 0 {
		message = input.Messages[len(input.Messages)-1]
	}

	return &LeadAnalysis{
		ConversationID:     input.ConversationID,
		IsPotentialLead:    result.Score >= s.cfg.Bands.Medium,
		ConfidenceScore:    result.Score / 100,
		Score:              result.Score,
		Priority:           scratch.Priority,
		LeadType:           analysis.ClassifyLeadType(message, signals),
		Signals:            signals,
		Metrics:            metrics,
		Factors:            result.Factors,
		SuggestedQuestions: recommendation.SuggestedQuestions,
		NextActions:        recommendation.NextActions,
		RiskFactors:        recommendation.RiskFactors,
		DegradedConfidence: degraded,
	}, nil
}

// BulkAnalysisItem pairs one analysis result or failure with its input index.
type BulkAnalysisItem struct {
	ConversationID string        `json:"conversationId"`
	Analysis       *LeadAnalysis `json:"analysis,omitempty"`
	Error          string        `json:"error,omitempty"`
}

// BulkAnalyze analyzes many conversations concurrently. Individual failures
// are reported per item and never abort the batch.
func (s *Service) BulkAnalyze(ctx context.Context, inputs []AnalyzeInput) ([]BulkAnalysisItem, error) {
	if len(inputs) == 0 {
		return nil, apperr.Validation("at least one conversation is required")
	}

	items := make([]BulkAnalysisItem, len(inputs))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(bulkConcurrency)

	for i, input := range inputs {
		group.Go(func() error {
			item := BulkAnalysisItem{ConversationID: input.ConversationID}
			analysisResult, err := s.Analyze(groupCtx, input)
			if err != nil {
				item.Error = err.Error()
			} else {
				item.Analysis = analysisResult
			}
			items[i] = item
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

// Get returns a lead scoped to its tenant.
func (s *Service) Get(ctx context.Context, tenantID, leadID uuid.UUID) (*domain.EnhancedLead, error) {
	return s.store.GetByID(ctx, tenantID, leadID)
}

// List returns leads for a tenant with optional filtering.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filter repository.ListFilter) ([]domain.EnhancedLead, error) {
	return s.store.List(ctx, tenantID, filter)
}

// AuditTrail returns the audit history of a lead.
func (s *Service) AuditTrail(ctx context.Context, tenantID, leadID uuid.UUID) ([]domain.AuditEntry, error) {
	return s.store.AuditTrail(ctx, tenantID, leadID)
}

// Stats aggregates qualification outcomes for a tenant.
func (s *Service) Stats(ctx context.Context, tenantID uuid.UUID) (repository.LeadStats, error) {
	return s.store.Stats(ctx, tenantID)
}

// UpdateStatus moves a lead to a new CRM lifecycle status with an audit entry.
func (s *Service) UpdateStatus(ctx context.Context, tenantID, leadID uuid.UUID, status domain.LeadStatus) (*domain.EnhancedLead, error) {
	lead, err := s.store.GetByID(ctx, tenantID, leadID)
	if err != nil {
		return nil, err
	}
	if lead.Status == status {
		return lead, nil
	}

	previous := lead.Status
	now := s.now()
	expectedUpdatedAt := lead.UpdatedAt
	lead.Status = status
	lead.Touch(now)

	if err := s.store.Update(ctx, lead, expectedUpdatedAt); err != nil {
		return nil, err
	}
	if err := s.store.AppendAudit(ctx, domain.AuditEntry{
		ID:        uuid.New(),
		LeadID:    lead.ID,
		Event:     domain.AuditStatusChanged,
		FromValue: string(previous),
		ToValue:   string(status),
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}
	return lead, nil
}

// CRMExport builds the flattened CRM projection of a lead. The factor
// breakdown comes from the latest persisted observation so it always matches
// the lead score it accompanies; leads that predate score persistence fall
// back to a fresh computation.
func (s *Service) CRMExport(ctx context.Context, tenantID, leadID uuid.UUID) (domain.CRMLeadData, error) {
	lead, err := s.store.GetByID(ctx, tenantID, leadID)
	if err != nil {
		return domain.CRMLeadData{}, err
	}

	factors, err := s.exportFactors(ctx, lead)
	if err != nil {
		return domain.CRMLeadData{}, err
	}

	return domain.BuildCRMLeadData(lead, domain.LeadSignals{}, factors, analysis.ClassifyLeadType, ""), nil
}

func (s *Service) exportFactors(ctx context.Context, lead *domain.EnhancedLead) (map[string]float64, error) {
	observation, err := s.store.LatestScore(ctx, lead.ID)
	if err == nil {
		return observation.Factors, nil
	}
	if apperr.GetKind(err) != apperr.KindNotFound {
		return nil, err
	}

	result, err := scoring.ComputeScore(lead.Metrics, domain.LeadSignals{}, lead.Qualification, s.cfg)
	if err != nil {
		return nil, err
	}
	return result.Factors, nil
}

// RescoreStale re-runs the scoring pass for non-terminal leads that have not
// been written since the cutoff. Used by the background rescoring job.
func (s *Service) RescoreStale(ctx context.Context, staleAfter time.Duration, limit int) (int, error) {
	cutoff := s.now().Add(-staleAfter)
	leads, err := s.store.ListStale(ctx, cutoff, limit)
	if err != nil {
		return 0, err
	}

	rescored := 0
	for i := range leads {
		lead := &leads[i]
		if _, err := s.Qualify(ctx, QualifyInput{
			TenantID:       lead.TenantID,
			ConversationID: lead.ConversationID,
			ChatbotID:      lead.ChatbotID,
			Metrics:        &lead.Metrics,
		}); err != nil {
			s.log.Error("rescore failed", "leadId", lead.ID, "error", err)
			continue
		}
		rescored++
	}
	return rescored, nil
}
