package domain

import "time"

// CRMLeadData is the flattened, CRM-ready projection of a lead. It carries no
// behavior; it exists so downstream systems never need to understand the
// aggregate shape.
type CRMLeadData struct {
	LeadID         string             `json:"leadId"`
	ConversationID string             `json:"conversationId"`
	ChatbotID      string             `json:"chatbotId"`
	LeadType       LeadType           `json:"leadType"`
	LeadScore      float64            `json:"leadScore"`
	Priority       LeadPriority       `json:"priority"`
	Status         LeadStatus         `json:"status"`
	Stage          QualificationStage `json:"qualificationStage"`

	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Name     string `json:"name,omitempty"`
	Company  string `json:"company,omitempty"`
	JobTitle string `json:"jobTitle,omitempty"`

	Budget     string   `json:"budget,omitempty"`
	Authority  string   `json:"authority,omitempty"`
	Need       string   `json:"need,omitempty"`
	Timeline   string   `json:"timeline,omitempty"`
	Industry   string   `json:"industry,omitempty"`
	PainPoints []string `json:"painPoints,omitempty"`

	DemoRequested      bool `json:"demoRequested"`
	EnterpriseInquiry  bool `json:"enterpriseInquiry"`
	BulkOrderInquiry   bool `json:"bulkOrderInquiry"`
	PricingDiscussed   bool `json:"pricingDiscussed"`
	CompetitorMentions bool `json:"competitorMentions"`

	Factors         map[string]float64 `json:"scoringFactors,omitempty"`
	OriginalMessage string             `json:"originalMessage,omitempty"`
	Source          string             `json:"source"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// BuildCRMLeadData flattens a lead for CRM delivery. The classifier decides
// the lead type from the triggering message; factors come from the latest
// scoring pass and may be nil for leads that predate factor persistence.
func BuildCRMLeadData(lead *EnhancedLead, signals LeadSignals, factors map[string]float64, classify Classifier, originalMessage string) CRMLeadData {
	leadType := LeadTypeGeneralInquiry
	if classify != nil {
		leadType = classify(originalMessage, signals)
	}

	return CRMLeadData{
		LeadID:         lead.ID.String(),
		ConversationID: lead.ConversationID,
		ChatbotID:      lead.ChatbotID,
		LeadType:       leadType,
		LeadScore:      lead.LeadScore,
		Priority:       lead.Priority,
		Status:         lead.Status,
		Stage:          lead.Stage,

		Email:    deref(lead.Contact.Email),
		Phone:    deref(lead.Contact.Phone),
		Name:     deref(lead.Contact.Name),
		Company:  deref(lead.Contact.Company),
		JobTitle: deref(lead.Contact.JobTitle),

		Budget:     deref(lead.Qualification.Budget),
		Authority:  deref(lead.Qualification.Authority),
		Need:       deref(lead.Qualification.Need),
		Timeline:   deref(lead.Qualification.Timeline),
		Industry:   deref(lead.Qualification.Industry),
		PainPoints: lead.Qualification.PainPoints,

		DemoRequested:      leadType == LeadTypeDemoRequest,
		EnterpriseInquiry:  leadType == LeadTypeEnterpriseInquiry,
		BulkOrderInquiry:   leadType == LeadTypeBulkOrder,
		PricingDiscussed:   leadType == LeadTypePricingInquiry || len(signals.BudgetMentions) > 0,
		CompetitorMentions: len(signals.CompetitorMentions) > 0,

		Factors:         factors,
		OriginalMessage: originalMessage,
		Source:          lead.Source,
		CreatedAt:       lead.CreatedAt,
		UpdatedAt:       lead.UpdatedAt,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
