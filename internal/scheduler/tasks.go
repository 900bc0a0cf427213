package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskProcessLead = "leads.process"

const TaskProcessLeadBatch = "leads.process_batch"

type ProcessLeadPayload struct {
	LeadID string `json:"leadId,omitempty"`
	Source string `json:"source,omitempty"`
	Text   string `json:"text"`
}

type ProcessLeadBatchPayload struct {
	LeadIDs []string `json:"leadIds"`
}

func NewProcessLeadTask(payload ProcessLeadPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskProcessLead, data), nil
}

func ParseProcessLeadPayload(task *asynq.Task) (ProcessLeadPayload, error) {
	var payload ProcessLeadPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ProcessLeadPayload{}, err
	}
	return payload, nil
}

func NewProcessLeadBatchTask(payload ProcessLeadBatchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskProcessLeadBatch, data), nil
}

func ParseProcessLeadBatchPayload(task *asynq.Task) (ProcessLeadBatchPayload, error) {
	var payload ProcessLeadBatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ProcessLeadBatchPayload{}, err
	}
	return payload, nil
}
