// Package crmsync delivers qualified leads to the configured CRM webhook and
// alerts the sales team about urgent leads. It is driven entirely by domain
// events; nothing else in the system knows the CRM exists.
package crmsync

import (
	"context"

	"github.com/google/uuid"

	"chatlead_backend/internal/events"
	"chatlead_backend/internal/leads/domain"
	"chatlead_backend/platform/config"
	platformevents "chatlead_backend/platform/events"
	"chatlead_backend/platform/logger"
	"chatlead_backend/platform/phone"
)

// LeadExporter provides the CRM projection of a lead. The leads service
// implements it.
type LeadExporter interface {
	CRMExport(ctx context.Context, tenantID, leadID uuid.UUID) (domain.CRMLeadData, error)
}

// Module wires CRM delivery and sales alerting to the event bus.
type Module struct {
	cfg      config.CRMSyncConfig
	exporter LeadExporter
	webhook  *WebhookClient
	mailer   *AlertMailer
	log      *logger.Logger
}

// NewModule creates the crmsync module and subscribes it to the bus. Webhook
// delivery and email alerting are each enabled only when configured.
func NewModule(cfg config.CRMSyncConfig, exporter LeadExporter, bus platformevents.Bus, log *logger.Logger) *Module {
	m := &Module{
		cfg:      cfg,
		exporter: exporter,
		log:      log,
	}
	if cfg.IsCRMSyncEnabled() {
		m.webhook = NewWebhookClient(cfg.GetCRMWebhookURL(), cfg.GetCRMWebhookToken())
	}
	if cfg.IsAlertEmailEnabled() {
		m.mailer = NewAlertMailer(cfg)
	}

	bus.Subscribe(events.LeadQualifiedEvent, platformevents.HandlerFunc(m.onLeadQualified))
	bus.Subscribe(events.PriorityUrgentEvent, platformevents.HandlerFunc(m.onPriorityUrgent))

	return m
}

func (m *Module) onLeadQualified(ctx context.Context, event platformevents.Event) error {
	e, ok := event.(events.LeadQualified)
	if !ok {
		return nil
	}
	if m.webhook == nil {
		return nil
	}

	crm, err := m.exporter.CRMExport(ctx, e.TenantID, e.LeadID)
	if err != nil {
		return err
	}
	crm.Phone = phone.NormalizeE164(crm.Phone, m.cfg.GetDefaultPhoneRegion())

	if err := m.webhook.Deliver(ctx, crm); err != nil {
		m.log.Error("crm webhook delivery failed", "leadId", e.LeadID, "error", err)
		return err
	}
	m.log.Info("lead delivered to crm", "leadId", e.LeadID, "score", e.Score)
	return nil
}

func (m *Module) onPriorityUrgent(ctx context.Context, event platformevents.Event) error {
	e, ok := event.(events.PriorityUrgent)
	if !ok {
		return nil
	}
	if m.mailer == nil {
		return nil
	}

	crm, err := m.exporter.CRMExport(ctx, e.TenantID, e.LeadID)
	if err != nil {
		return err
	}

	if err := m.mailer.SendUrgentLeadAlert(ctx, crm); err != nil {
		m.log.Error("urgent lead alert failed", "leadId", e.LeadID, "error", err)
		return err
	}
	m.log.Info("urgent lead alert sent", "leadId", e.LeadID, "score", e.Score)
	return nil
}
