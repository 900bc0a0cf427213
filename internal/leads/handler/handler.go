package handler

import (
	"context"
	"net/http"
	"strconv"

	"nordflytt_backend/internal/leads/repository"
	"nordflytt_backend/internal/leads/service"
	"nordflytt_backend/internal/leads/transport"
	"nordflytt_backend/internal/scheduler"
	"nordflytt_backend/platform/apperr"
	"nordflytt_backend/platform/httpkit"
	"nordflytt_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgQueueUnavailable = "background processing is not configured"
	statusQueued        = "queued"
)

// LogReader lists recent processing outcomes.
type LogReader interface {
	Recent(ctx context.Context, limit int) ([]repository.LogEntry, error)
}

// Handler exposes the lead processor to back-office staff.
type Handler struct {
	processor *service.Processor
	logs      LogReader
	queue     scheduler.LeadEnqueuer
	val       *validator.Validator
}

// New creates a lead handler. logs and queue may be nil.
func New(processor *service.Processor, logs LogReader, queue scheduler.LeadEnqueuer, val *validator.Validator) *Handler {
	return &Handler{processor: processor, logs: logs, queue: queue, val: val}
}

// RegisterRoutes mounts the lead routes. adminOnly guards bulk submission.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, adminOnly ...gin.HandlerFunc) {
	rg.POST("/parse", h.Parse)
	rg.POST("/process", h.Process)
	rg.POST("/batch", append(adminOnly, h.Batch)...)
	rg.GET("/log", h.Log)
}

// Parse handles POST /leads/parse. Nothing is submitted.
func (h *Handler) Parse(c *gin.Context) {
	var req transport.ParseRequest
	if !h.bind(c, &req) {
		return
	}

	p := h.processor.Parser()
	parsed := p.Parse(req.Text)
	filled := p.FillWithDefaults(parsed)

	httpkit.OK(c, transport.ParseResponse{
		Format:         parsed.LeadSource,
		Parsed:         parsed,
		Filled:         filled,
		Confidence:     string(service.AssessConfidence(parsed)),
		CanAutoProcess: h.processor.CanAutoProcess(req.Text),
		EstimatedPrice: h.processor.Estimate(c.Request.Context(), filled),
	})
}

// Process handles POST /leads/process. With ?async=true the lead is queued
// and 202 is returned.
func (h *Handler) Process(c *gin.Context) {
	var req transport.ProcessRequest
	if !h.bind(c, &req) {
		return
	}

	if isAsync(c) {
		if h.queue == nil {
			httpkit.HandleError(c, apperr.Unavailable(msgQueueUnavailable))
			return
		}
		taskID, err := h.queue.EnqueueLead(c.Request.Context(), scheduler.ProcessLeadPayload{
			LeadID: req.ID,
			Source: req.Source,
			Text:   req.Text,
		})
		if httpkit.HandleError(c, wrapQueueError(err)) {
			return
		}
		httpkit.JSON(c, http.StatusAccepted, transport.QueuedResponse{TaskID: taskID, Status: statusQueued})
		return
	}

	res := h.processor.ProcessLead(c.Request.Context(), service.LeadInput{
		ID:     req.ID,
		Text:   req.Text,
		Source: req.Source,
	})
	httpkit.JSON(c, resultStatus(res), res)
}

// Batch handles POST /leads/batch.
func (h *Handler) Batch(c *gin.Context) {
	var req transport.BatchRequest
	if !h.bind(c, &req) {
		return
	}

	if isAsync(c) {
		if h.queue == nil {
			httpkit.HandleError(c, apperr.Unavailable(msgQueueUnavailable))
			return
		}
		taskID, err := h.queue.EnqueueLeadBatch(c.Request.Context(), scheduler.ProcessLeadBatchPayload{LeadIDs: req.LeadIDs})
		if httpkit.HandleError(c, wrapQueueError(err)) {
			return
		}
		httpkit.JSON(c, http.StatusAccepted, transport.QueuedResponse{TaskID: taskID, Status: statusQueued})
		return
	}

	httpkit.OK(c, h.processor.ProcessBatch(c.Request.Context(), req.LeadIDs))
}

// Log handles GET /leads/log.
func (h *Handler) Log(c *gin.Context) {
	if h.logs == nil {
		httpkit.HandleError(c, apperr.Unavailable("processing log is not configured"))
		return
	}

	var q transport.LogQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	entries, err := h.logs.Recent(c.Request.Context(), q.Limit)
	if err != nil {
		httpkit.HandleError(c, apperr.Wrap(apperr.KindInternal, "failed to load processing log", err))
		return
	}
	httpkit.OK(c, entries)
}

func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return false
	}
	return true
}

func isAsync(c *gin.Context) bool {
	v, err := strconv.ParseBool(c.Query("async"))
	return err == nil && v
}

func wrapQueueError(err error) error {
	if err == nil {
		return nil
	}
	return apperr.Wrap(apperr.KindUnavailable, "failed to queue lead", err)
}

// resultStatus maps a failed result onto the closest HTTP status. The body
// is the ProcessingResult either way.
func resultStatus(res service.ProcessingResult) int {
	if res.Success {
		return http.StatusOK
	}
	switch res.ErrorKind {
	case service.KindIncompleteLead:
		return http.StatusUnprocessableEntity
	case service.KindDuplicate:
		return http.StatusConflict
	case service.KindClientRejection:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
