// Package workorders is the inspection work-order bounded context: lifecycle
// state machine, field validation and photo reconciliation.
package workorders

import (
	"time"

	apphttp "inspection_portal_backend/internal/http"
	"inspection_portal_backend/internal/workorders/handler"
	"inspection_portal_backend/internal/workorders/photos"
	"inspection_portal_backend/internal/workorders/repository"
	"inspection_portal_backend/internal/workorders/service"

	"inspection_portal_backend/internal/adapters/storage"
	"inspection_portal_backend/internal/events"
	"inspection_portal_backend/platform/logger"
	"inspection_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the work-orders bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the work-orders module.
func NewModule(pool *pgxpool.Pool, storageSvc storage.Service, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, photos.NewEngine(storageSvc), bus, log)
	h := handler.New(svc, storageSvc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "workorders"
}

// Service returns the lifecycle service for cross-module wiring.
func (m *Module) Service() *service.Service {
	return m.service
}

// EnableReminders wires a reminder scheduler into the lifecycle service.
func (m *Module) EnableReminders(scheduler service.ReminderScheduler, delay time.Duration) {
	m.service.WithReminders(scheduler, delay)
}

// RegisterRoutes mounts work-order routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/work-orders"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
