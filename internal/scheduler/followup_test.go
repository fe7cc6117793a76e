package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"chatlead_backend/internal/events"
	platformevents "chatlead_backend/platform/events"
	"chatlead_backend/platform/logger"
)

func TestFollowUpSchedulesRescoreOnLeadCreated(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := fakeSchedulerConfig{redisURL: "redis://" + mr.Addr(), queue: "leads"}

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer client.Close()

	log := logger.New("test")
	bus := platformevents.NewInMemoryBus(log)
	NewFollowUp(client, 6*time.Hour, bus, log)

	tenantID := uuid.New()
	err = bus.PublishSync(context.Background(), events.LeadCreated{
		BaseEvent:      platformevents.NewBaseEvent(),
		LeadID:         uuid.New(),
		TenantID:       tenantID,
		ConversationID: "conv-followup",
		ChatbotID:      "bot-1",
	})
	if err != nil {
		t.Fatalf("PublishSync() error = %v", err)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer inspector.Close()

	tasks, err := inspector.ListScheduledTasks("leads")
	if err != nil {
		t.Fatalf("ListScheduledTasks() error = %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("scheduled tasks = %d, want 1", len(tasks))
	}
	if tasks[0].Type != TaskRescoreLead {
		t.Errorf("task type = %s, want %s", tasks[0].Type, TaskRescoreLead)
	}

	payload, err := ParseRescoreLeadPayload(asynq.NewTask(tasks[0].Type, tasks[0].Payload))
	if err != nil {
		t.Fatalf("ParseRescoreLeadPayload() error = %v", err)
	}
	if payload.TenantID != tenantID.String() {
		t.Errorf("payload tenant = %s, want %s", payload.TenantID, tenantID)
	}
	if payload.ConversationID != "conv-followup" {
		t.Errorf("payload conversation = %s, want conv-followup", payload.ConversationID)
	}
}

func TestFollowUpIgnoresOtherEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := fakeSchedulerConfig{redisURL: "redis://" + mr.Addr()}

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer client.Close()

	log := logger.New("test")
	bus := platformevents.NewInMemoryBus(log)
	f := NewFollowUp(client, time.Hour, bus, log)

	if err := f.onLeadCreated(context.Background(), events.LeadScored{}); err != nil {
		t.Fatalf("onLeadCreated() error = %v", err)
	}

	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("redis keys = %v, want none", keys)
	}
}
