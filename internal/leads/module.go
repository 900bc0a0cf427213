// Package leads provides the lead intake bounded context module.
// This file wires the parser, the processor and the HTTP handler.
package leads

import (
	"nordflytt_backend/internal/events"
	apphttp "nordflytt_backend/internal/http"
	"nordflytt_backend/internal/leads/handler"
	"nordflytt_backend/internal/leads/offers"
	"nordflytt_backend/internal/leads/parser"
	"nordflytt_backend/internal/leads/repository"
	"nordflytt_backend/internal/leads/service"
	"nordflytt_backend/internal/scheduler"
	"nordflytt_backend/platform/config"
	"nordflytt_backend/platform/httpkit"
	"nordflytt_backend/platform/logger"
	"nordflytt_backend/platform/validator"

	"github.com/redis/go-redis/v9"
)

// roleAdmin may resubmit leads in bulk.
const roleAdmin = "admin"

// Config combines the config interfaces the leads module reads.
type Config interface {
	config.OfferAPIConfig
	config.DedupeConfig
}

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler   *handler.Handler
	processor *service.Processor
	repo      *repository.Repository
}

// NewModule creates the leads module. rdb and queue may be nil; without
// them duplicate detection and ?async=true are disabled.
func NewModule(db repository.DB, rdb redis.Cmdable, eventBus events.Bus, pricer service.Pricer, queue scheduler.LeadEnqueuer, val *validator.Validator, cfg Config, log *logger.Logger) *Module {
	repo := repository.New(db)

	opts := []service.Option{
		service.WithProcessingLog(repo),
		service.WithEventBus(eventBus),
	}
	if pricer != nil {
		opts = append(opts, service.WithPricer(pricer))
	}
	if rdb != nil {
		opts = append(opts, service.WithDuplicateGuard(service.NewRedisDeduper(rdb, cfg.GetDedupeWindow())))
	}

	processor := service.NewProcessor(parser.New(), offers.NewClient(cfg), log, opts...)

	return &Module{
		handler:   handler.New(processor, repo, queue, val),
		processor: processor,
		repo:      repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Processor returns the lead processor for the scheduler worker.
func (m *Module) Processor() *service.Processor {
	return m.processor
}

// Repository returns the processing log store.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// All leads routes require authentication
	leadsGroup := ctx.Protected.Group("/leads")
	m.handler.RegisterRoutes(leadsGroup, httpkit.RequireRole(roleAdmin))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
