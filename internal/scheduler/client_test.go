package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
)

type fakeSchedulerConfig struct {
	redisURL string
	queue    string
}

func (f fakeSchedulerConfig) GetRedisURL() string       { return f.redisURL }
func (f fakeSchedulerConfig) GetRedisTLSInsecure() bool { return false }
func (f fakeSchedulerConfig) GetAsynqQueueName() string { return f.queue }

func TestScheduleLeadRescoreEnqueuesTask(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := fakeSchedulerConfig{redisURL: "redis://" + mr.Addr(), queue: "leads"}

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer client.Close()

	err = client.ScheduleLeadRescore(context.Background(), RescoreLeadPayload{
		TenantID:       "2f0a3f1e-14c6-4f7e-9a66-0a9c2ef0f001",
		ConversationID: "conv-1",
		ChatbotID:      "bot-1",
	}, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("ScheduleLeadRescore() error = %v", err)
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
	if payload.ConversationID != "conv-1" {
		t.Errorf("payload conversation = %s, want conv-1", payload.ConversationID)
	}
}

func TestEnqueueStaleSweep(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := fakeSchedulerConfig{redisURL: "redis://" + mr.Addr()}

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer client.Close()

	err = client.EnqueueStaleSweep(context.Background(), RescoreStaleLeadsPayload{
		StaleAfter: "12h",
		BatchSize:  50,
	})
	if err != nil {
		t.Fatalf("EnqueueStaleSweep() error = %v", err)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer inspector.Close()

	tasks, err := inspector.ListPendingTasks("default")
	if err != nil {
		t.Fatalf("ListPendingTasks() error = %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("pending tasks = %d, want 1", len(tasks))
	}
	if tasks[0].Type != TaskRescoreStaleLeads {
		t.Errorf("task type = %s, want %s", tasks[0].Type, TaskRescoreStaleLeads)
	}
}

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(fakeSchedulerConfig{}); err == nil {
		t.Error("NewClient() accepted empty redis url")
	}
}
