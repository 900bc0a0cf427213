package handler

import (
	"net/http"

	"nordflytt_backend/internal/pricing/engine"
	"nordflytt_backend/internal/pricing/transport"
	"nordflytt_backend/platform/httpkit"
	"nordflytt_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler serves price quotes.
type Handler struct {
	engine *engine.Engine
	val    *validator.Validator
}

// New creates a new pricing handler
func New(eng *engine.Engine, val *validator.Validator) *Handler {
	return &Handler{engine: eng, val: val}
}

// RegisterRoutes registers the pricing routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, quoteMiddleware ...gin.HandlerFunc) {
	rg.POST("/quote", append(quoteMiddleware, h.Quote)...)
	rg.GET("/table", h.GetTable)
}

// Quote handles POST /api/v1/pricing/quote
func (h *Handler) Quote(c *gin.Context) {
	var req transport.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	table := h.engine.Table()
	breakdown, err := h.engine.Compute(req.ToMoveRequest(table.LongCarry.FreeMeters))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.NewQuoteResponse(breakdown, table.Currency))
}

// GetTable handles GET /api/v1/pricing/table
func (h *Handler) GetTable(c *gin.Context) {
	httpkit.OK(c, h.engine.Table())
}

// RegisterValidations adds the custom tags used by the pricing DTOs.
func RegisterValidations(val *validator.Validator) error {
	return val.RegisterStringRule("elevator", func(s string) bool {
		_, err := engine.ParseElevatorType(s)
		return err == nil
	})
}
