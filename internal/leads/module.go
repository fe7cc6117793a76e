// Package leads provides the lead qualification bounded context module.
// This file defines the module that encapsulates all leads setup and route
// registration.
package leads

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "chatlead_backend/internal/http"
	"chatlead_backend/internal/leads/analysis"
	"chatlead_backend/internal/leads/handler"
	"chatlead_backend/internal/leads/repository"
	"chatlead_backend/internal/leads/scoring"
	"chatlead_backend/internal/leads/service"
	"chatlead_backend/platform/events"
	"chatlead_backend/platform/logger"
	"chatlead_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, scoringCfg scoring.Config, log *logger.Logger) *Module {
	repo := repository.New(pool)
	analyzer := analysis.NewAnalyzer(scoringCfg.Keywords)
	svc := service.New(repo, analyzer, scoringCfg, bus, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the lead service for use by other modules and the worker.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// All leads routes require authentication.
	leadsGroup := ctx.Protected.Group("/leads")
	m.handler.RegisterRoutes(leadsGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
