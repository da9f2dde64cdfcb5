package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-lifecycle/internal/api/http/handlers"
	"github.com/spec-kit/ticket-lifecycle/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Metrics        *handlers.MetricsHandler
	Tickets        *handlers.TicketsHandler
	Assignments    *handlers.AssignmentsHandler
	Budget         *handlers.BudgetHandler
	SLA            *handlers.SLAHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Get)

	api := app.Group("", cfg.AuthMiddleware.Handle)

	tickets := api.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Get("/:id/history", cfg.Tickets.History)
	tickets.Get("/:id/transitions", cfg.Tickets.Transitions)

	tickets.Post("/:id/status", cfg.Tickets.ChangeStatus)
	tickets.Post("/:id/submit", cfg.Tickets.Submit)
	tickets.Post("/:id/validate", cfg.Tickets.Validate)
	tickets.Post("/:id/invalidate", cfg.Tickets.Invalidate)
	tickets.Post("/:id/close", cfg.Tickets.Close)
	tickets.Post("/:id/reopen", cfg.Tickets.Reopen)

	tickets.Get("/:id/assignees", cfg.Assignments.List)
	tickets.Put("/:id/assignees", cfg.Assignments.Assign)

	tickets.Post("/:id/estimate", cfg.Budget.SetEstimate)
	tickets.Put("/:id/estimate", cfg.Budget.UpdateEstimate)
	tickets.Post("/:id/time-entries", cfg.Budget.RecordTime)
	tickets.Get("/:id/budget", cfg.Budget.Budget)

	tickets.Get("/:id/sla-violations", cfg.SLA.TicketViolations)

	api.Get("/assignees/candidates", cfg.Assignments.Candidates)
	api.Get("/sla/rules", cfg.SLA.Rules)
	api.Get("/reports/sla", cfg.SLA.Compliance)
	api.Post("/reports/sla/recompute", cfg.SLA.Recompute)
}
