package analysis

import (
	"strings"

	"chatlead_backend/internal/leads/domain"
)

// classifierRules map message phrases to a lead type, checked in order. The
// first matching rule wins, so more specific intents come before generic ones.
var classifierRules = []struct {
	leadType domain.LeadType
	phrases  []string
}{
	{domain.LeadTypeDemoRequest, []string{"demo", "walkthrough", "show me", "trial"}},
	{domain.LeadTypeEnterpriseInquiry, []string{"enterprise", "sso", "security review", "procurement", "compliance"}},
	{domain.LeadTypeBulkOrder, []string{"bulk", "volume discount", "multiple seats", "licenses for"}},
	{domain.LeadTypePricingInquiry, []string{"pricing", "price", "cost", "how much", "quote"}},
	{domain.LeadTypeSupportEscalation, []string{"broken", "not working", "bug", "urgent issue", "escalate"}},
	{domain.LeadTypeFeatureRequest, []string{"feature request", "would be great if", "do you support", "integration with"}},
}

// ClassifyLeadType maps a message and its extracted signals to a lead type.
// It satisfies domain.Classifier.
func ClassifyLeadType(message string, signals domain.LeadSignals) domain.LeadType {
	text := strings.ToLower(message)

	for _, rule := range classifierRules {
		for _, phrase := range rule.phrases {
			if strings.Contains(text, phrase) {
				return rule.leadType
			}
		}
	}

	// Budget talk without a direct phrase match still signals pricing interest.
	if len(signals.BudgetMentions) > 0 {
		return domain.LeadTypePricingInquiry
	}

	return domain.LeadTypeGeneralInquiry
}
