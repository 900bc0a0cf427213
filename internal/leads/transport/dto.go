package transport

import (
	"nordflytt_backend/internal/leads/parser"
)

// ParseRequest is the body for POST /leads/parse.
type ParseRequest struct {
	Text string `json:"text" validate:"required,max=20000"`
}

// ParseResponse shows what the parser read and what the processor would send.
type ParseResponse struct {
	Format         parser.Format     `json:"format"`
	Parsed         parser.ParsedLead `json:"parsed"`
	Filled         parser.FilledLead `json:"filled"`
	Confidence     string            `json:"confidence"`
	CanAutoProcess bool              `json:"canAutoProcess"`
	EstimatedPrice int64             `json:"estimatedPrice,omitempty"`
}

// ProcessRequest is the body for POST /leads/process.
type ProcessRequest struct {
	ID     string `json:"id" validate:"omitempty,max=100"`
	Text   string `json:"text" validate:"required,max=20000"`
	Source string `json:"source" validate:"omitempty,max=50"`
}

// BatchRequest is the body for POST /leads/batch.
type BatchRequest struct {
	LeadIDs []string `json:"leadIds" validate:"required,min=1,max=100,dive,required,max=100"`
}

// QueuedResponse is returned when work was handed to the scheduler.
type QueuedResponse struct {
	TaskID string `json:"taskId"`
	Status string `json:"status"`
}

// LogQuery holds the query parameters for GET /leads/log.
type LogQuery struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=500"`
}
