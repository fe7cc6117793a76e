package crmsync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"chatlead_backend/internal/events"
	"chatlead_backend/internal/leads/domain"
	platformevents "chatlead_backend/platform/events"
	"chatlead_backend/platform/logger"
)

type fakeConfig struct {
	webhookURL string
}

func (f fakeConfig) GetCRMWebhookURL() string      { return f.webhookURL }
func (f fakeConfig) GetCRMWebhookToken() string    { return "test-token" }
func (f fakeConfig) IsCRMSyncEnabled() bool        { return f.webhookURL != "" }
func (f fakeConfig) GetSMTPHost() string           { return "" }
func (f fakeConfig) GetSMTPPort() int              { return 587 }
func (f fakeConfig) GetSMTPUsername() string       { return "" }
func (f fakeConfig) GetSMTPPassword() string       { return "" }
func (f fakeConfig) GetAlertFromAddress() string   { return "" }
func (f fakeConfig) GetAlertToAddress() string     { return "" }
func (f fakeConfig) IsAlertEmailEnabled() bool     { return false }
func (f fakeConfig) GetDefaultPhoneRegion() string { return "US" }

type fakeExporter struct {
	crm domain.CRMLeadData
}

func (f fakeExporter) CRMExport(context.Context, uuid.UUID, uuid.UUID) (domain.CRMLeadData, error) {
	return f.crm, nil
}

func TestQualifiedLeadIsDeliveredToWebhook(t *testing.T) {
	var received domain.CRMLeadData
	var authHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode webhook body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	leadID := uuid.New()
	exporter := fakeExporter{crm: domain.CRMLeadData{
		LeadID:         leadID.String(),
		ConversationID: "conv-1",
		Phone:          "(212) 555-0100",
		LeadScore:      72,
		Priority:       domain.PriorityHigh,
		Stage:          domain.StageQualified,
	}}

	log := logger.New("development")
	bus := platformevents.NewInMemoryBus(log)
	NewModule(fakeConfig{webhookURL: server.URL}, exporter, bus, log)

	err := bus.PublishSync(context.Background(), events.LeadQualified{
		BaseEvent: platformevents.NewBaseEvent(),
		LeadID:    leadID,
		TenantID:  uuid.New(),
		Score:     72,
		Priority:  domain.PriorityHigh,
	})
	if err != nil {
		t.Fatalf("PublishSync() error = %v", err)
	}

	if received.LeadID != leadID.String() {
		t.Errorf("webhook lead id = %s, want %s", received.LeadID, leadID)
	}
	if authHeader != "Bearer test-token" {
		t.Errorf("auth header = %q, want bearer token", authHeader)
	}
	if received.Phone != "+12125550100" {
		t.Errorf("phone = %q, want normalized E.164", received.Phone)
	}
}

func TestWebhookFailureIsReported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	log := logger.New("development")
	bus := platformevents.NewInMemoryBus(log)
	NewModule(fakeConfig{webhookURL: server.URL}, fakeExporter{}, bus, log)

	err := bus.PublishSync(context.Background(), events.LeadQualified{
		BaseEvent: platformevents.NewBaseEvent(),
		LeadID:    uuid.New(),
		TenantID:  uuid.New(),
	})
	if err == nil {
		t.Error("PublishSync() returned nil for failing webhook")
	}
}

func TestDisabledSyncIgnoresEvents(t *testing.T) {
	log := logger.New("development")
	bus := platformevents.NewInMemoryBus(log)
	NewModule(fakeConfig{}, fakeExporter{}, bus, log)

	err := bus.PublishSync(context.Background(), events.LeadQualified{
		BaseEvent: platformevents.NewBaseEvent(),
		LeadID:    uuid.New(),
		TenantID:  uuid.New(),
	})
	if err != nil {
		t.Errorf("PublishSync() error = %v for disabled sync", err)
	}
}
