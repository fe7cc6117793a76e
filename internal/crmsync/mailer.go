package crmsync

import (
	"context"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"

	"chatlead_backend/internal/leads/domain"
	"chatlead_backend/platform/config"
)

// AlertMailer sends urgent-lead notifications to the sales team.
type AlertMailer struct {
	cfg config.CRMSyncConfig
}

// NewAlertMailer creates a mailer from SMTP configuration.
func NewAlertMailer(cfg config.CRMSyncConfig) *AlertMailer {
	return &AlertMailer{cfg: cfg}
}

// SendUrgentLeadAlert emails the sales inbox about a lead that reached urgent
// priority.
func (m *AlertMailer) SendUrgentLeadAlert(ctx context.Context, lead domain.CRMLeadData) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.GetAlertFromAddress()); err != nil {
		return fmt.Errorf("alert from address: %w", err)
	}
	if err := msg.To(m.cfg.GetAlertToAddress()); err != nil {
		return fmt.Errorf("alert to address: %w", err)
	}

	msg.Subject(fmt.Sprintf("Urgent lead: %s (score %.0f)", leadLabel(lead), lead.LeadScore))
	msg.SetBodyString(mail.TypeTextPlain, alertBody(lead))

	client, err := mail.NewClient(m.cfg.GetSMTPHost(),
		mail.WithPort(m.cfg.GetSMTPPort()),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.GetSMTPUsername()),
		mail.WithPassword(m.cfg.GetSMTPPassword()),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send alert: %w", err)
	}
	return nil
}

func leadLabel(lead domain.CRMLeadData) string {
	switch {
	case lead.Name != "" && lead.Company != "":
		return lead.Name + " @ " + lead.Company
	case lead.Name != "":
		return lead.Name
	case lead.Company != "":
		return lead.Company
	default:
		return "conversation " + lead.ConversationID
	}
}

func alertBody(lead domain.CRMLeadData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A lead reached urgent priority.\n\n")
	fmt.Fprintf(&b, "Score:    %.1f\n", lead.LeadScore)
	fmt.Fprintf(&b, "Stage:    %s\n", lead.Stage)
	fmt.Fprintf(&b, "Type:     %s\n", lead.LeadType)
	if lead.Email != "" {
		fmt.Fprintf(&b, "Email:    %s\n", lead.Email)
	}
	if lead.Phone != "" {
		fmt.Fprintf(&b, "Phone:    %s\n", lead.Phone)
	}
	if lead.Need != "" {
		fmt.Fprintf(&b, "Need:     %s\n", lead.Need)
	}
	if lead.Timeline != "" {
		fmt.Fprintf(&b, "Timeline: %s\n", lead.Timeline)
	}
	fmt.Fprintf(&b, "\nConversation: %s\n", lead.ConversationID)
	return b.String()
}
