package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskRescoreStaleLeads = "leads.rescore.stale"

const TaskRescoreLead = "leads.rescore.one"

type RescoreStaleLeadsPayload struct {
	StaleAfter string `json:"staleAfter"`
	BatchSize  int    `json:"batchSize"`
}

type RescoreLeadPayload struct {
	TenantID       string `json:"tenantId"`
	ConversationID string `json:"conversationId"`
	ChatbotID      string `json:"chatbotId"`
}

func NewRescoreStaleLeadsTask(payload RescoreStaleLeadsPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRescoreStaleLeads, data), nil
}

func ParseRescoreStaleLeadsPayload(task *asynq.Task) (RescoreStaleLeadsPayload, error) {
	var payload RescoreStaleLeadsPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RescoreStaleLeadsPayload{}, err
	}
	return payload, nil
}

func NewRescoreLeadTask(payload RescoreLeadPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRescoreLead, data), nil
}

func ParseRescoreLeadPayload(task *asynq.Task) (RescoreLeadPayload, error) {
	var payload RescoreLeadPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RescoreLeadPayload{}, err
	}
	return payload, nil
}
