// Package pricing provides the moving-quote module.
package pricing

import (
	"fmt"

	apphttp "nordflytt_backend/internal/http"
	"nordflytt_backend/internal/pricing/engine"
	"nordflytt_backend/internal/pricing/handler"
	"nordflytt_backend/platform/config"
	"nordflytt_backend/platform/validator"
)

// Module represents the pricing domain module
type Module struct {
	handler *handler.Handler
	engine  *engine.Engine
}

// NewModule loads the configured price sheet and wires the handler.
func NewModule(cfg config.PricingConfig, val *validator.Validator) (*Module, error) {
	table, err := engine.LoadTable(cfg.GetPricingTablePath())
	if err != nil {
		return nil, err
	}
	if err := handler.RegisterValidations(val); err != nil {
		return nil, fmt.Errorf("pricing validations: %w", err)
	}
	eng := engine.New(table)
	return &Module{
		handler: handler.New(eng, val),
		engine:  eng,
	}, nil
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "pricing"
}

// Engine returns the engine for use by other modules.
func (m *Module) Engine() *engine.Engine {
	return m.engine
}

// RegisterRoutes registers the module's routes. Quotes are public and rate limited.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/pricing"), ctx.QuoteRateLimiter.RateLimit())
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
