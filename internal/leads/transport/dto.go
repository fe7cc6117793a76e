// Package transport defines the HTTP request and response shapes for the
// leads module and their mapping to service inputs.
package transport

import (
	"github.com/google/uuid"

	"chatlead_backend/internal/leads/domain"
	"chatlead_backend/internal/leads/repository"
	"chatlead_backend/internal/leads/service"
)

// MetricsRequest carries caller-provided conversation metrics. All scores are
// normalized fractions; out-of-range values are rejected, not clamped.
type MetricsRequest struct {
	EngagementScore    float64 `json:"engagementScore" validate:"gte=0,lte=1"`
	IntentStrength     float64 `json:"intentStrength" validate:"gte=0,lte=1"`
	UrgencyLevel       float64 `json:"urgencyLevel" validate:"gte=0,lte=1"`
	SentimentScore     float64 `json:"sentimentScore" validate:"gte=-1,lte=1"`
	QuestionCount      int     `json:"questionCount" validate:"gte=0"`
	ResponseTimeAvg    float64 `json:"responseTimeAvg" validate:"gte=0"`
	ConversationLength int     `json:"conversationLength" validate:"gte=0"`
}

func (m *MetricsRequest) toDomain() *domain.ConversationMetrics {
	if m == nil {
		return nil
	}
	return &domain.ConversationMetrics{
		EngagementScore:    m.EngagementScore,
		IntentStrength:     m.IntentStrength,
		UrgencyLevel:       m.UrgencyLevel,
		SentimentScore:     m.SentimentScore,
		QuestionCount:      m.QuestionCount,
		ResponseTimeAvg:    m.ResponseTimeAvg,
		ConversationLength: m.ConversationLength,
	}
}

// ContactRequest carries progressively collected contact fields.
type ContactRequest struct {
	Email       *string `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone" validate:"omitempty,max=32"`
	Name        *string `json:"name" validate:"omitempty,max=200"`
	Company     *string `json:"company" validate:"omitempty,max=200"`
	JobTitle    *string `json:"jobTitle" validate:"omitempty,max=200"`
	LinkedInURL *string `json:"linkedinUrl" validate:"omitempty,url"`
	Website     *string `json:"website" validate:"omitempty,url"`
}

func (c *ContactRequest) toDomain() *domain.ContactInfo {
	if c == nil {
		return nil
	}
	return &domain.ContactInfo{
		Email:       c.Email,
		Phone:       c.Phone,
		Name:        c.Name,
		Company:     c.Company,
		JobTitle:    c.JobTitle,
		LinkedInURL: c.LinkedInURL,
		Website:     c.Website,
	}
}

// QualificationRequest carries BANT updates gathered by the bot.
type QualificationRequest struct {
	Budget          *string  `json:"budget" validate:"omitempty,max=500"`
	Authority       *string  `json:"authority" validate:"omitempty,max=500"`
	Need            *string  `json:"need" validate:"omitempty,max=2000"`
	Timeline        *string  `json:"timeline" validate:"omitempty,max=500"`
	CompanySize     *string  `json:"companySize" validate:"omitempty,max=100"`
	Industry        *string  `json:"industry" validate:"omitempty,max=200"`
	CurrentSolution *string  `json:"currentSolution" validate:"omitempty,max=500"`
	PainPoints      []string `json:"painPoints" validate:"omitempty,max=20,dive,max=500"`
}

func (q *QualificationRequest) toDomain() *domain.QualificationData {
	if q == nil {
		return nil
	}
	return &domain.QualificationData{
		Budget:          q.Budget,
		Authority:       q.Authority,
		Need:            q.Need,
		Timeline:        q.Timeline,
		CompanySize:     q.CompanySize,
		Industry:        q.Industry,
		CurrentSolution: q.CurrentSolution,
		PainPoints:      q.PainPoints,
	}
}

// QualifyRequest is one qualification pass over a conversation.
type QualifyRequest struct {
	ConversationID string                `json:"conversationId" validate:"required,max=128"`
	ChatbotID      string                `json:"chatbotId" validate:"required,max=128"`
	Messages       []string              `json:"messages" validate:"omitempty,max=200,dive,max=8000"`
	Metrics        *MetricsRequest       `json:"metrics"`
	Contact        *ContactRequest       `json:"contact"`
	Qualification  *QualificationRequest `json:"qualification"`
	Strategy       string                `json:"collectionStrategy" validate:"omitempty,oneof=direct conversational progressive"`
}

// ToInput maps the request to a service input for the given tenant.
func (r QualifyRequest) ToInput(tenantID uuid.UUID) service.QualifyInput {
	return service.QualifyInput{
		TenantID:       tenantID,
		ConversationID: r.ConversationID,
		ChatbotID:      r.ChatbotID,
		Messages:       r.Messages,
		Metrics:        r.Metrics.toDomain(),
		Contact:        r.Contact.toDomain(),
		Qualification:  r.Qualification.toDomain(),
		Strategy:       domain.CollectionStrategy(r.Strategy),
	}
}

// AnalyzeRequest is one stateless analysis request.
type AnalyzeRequest struct {
	ConversationID string                `json:"conversationId" validate:"required,max=128"`
	Messages       []string              `json:"messages" validate:"omitempty,max=200,dive,max=8000"`
	Metrics        *MetricsRequest       `json:"metrics"`
	Qualification  *QualificationRequest `json:"qualification"`
}

// ToInput maps the request to a service input.
func (r AnalyzeRequest) ToInput() service.AnalyzeInput {
	return service.AnalyzeInput{
		ConversationID: r.ConversationID,
		Messages:       r.Messages,
		Metrics:        r.Metrics.toDomain(),
		Qualification:  r.Qualification.toDomain(),
	}
}

// BulkAnalyzeRequest analyzes up to 50 conversations in one call.
type BulkAnalyzeRequest struct {
	Conversations []AnalyzeRequest `json:"conversations" validate:"required,min=1,max=50,dive"`
}

// UpdateStatusRequest moves a lead to a new lifecycle status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=new contacted qualified proposal_sent negotiation closed_won closed_lost"`
}

// ListQuery filters the lead listing.
type ListQuery struct {
	Stage    string  `form:"stage" validate:"omitempty,oneof=initial_interest need_assessment budget_qualification authority_verification timeline_discussion qualified disqualified"`
	Priority string  `form:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Status   string  `form:"status" validate:"omitempty,oneof=new contacted qualified proposal_sent negotiation closed_won closed_lost"`
	MinScore float64 `form:"minScore" validate:"omitempty,gte=0,lte=100"`
	Limit    int     `form:"limit" validate:"omitempty,gte=1,lte=200"`
	Offset   int     `form:"offset" validate:"omitempty,gte=0"`
}

// ToFilter maps the query to a repository filter.
func (q ListQuery) ToFilter() repository.ListFilter {
	return repository.ListFilter{
		Stage:    domain.QualificationStage(q.Stage),
		Priority: domain.LeadPriority(q.Priority),
		Status:   domain.LeadStatus(q.Status),
		MinScore: q.MinScore,
		Limit:    q.Limit,
		Offset:   q.Offset,
	}
}
