package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/api/http/handlers"
	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Support         *handlers.SupportHandler
	AgentTickets    *handlers.AgentTicketsHandler
	AgentAuth       *handlers.AgentAuthHandler
	AgentMiddleware *auth.AgentMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/agent/login", cfg.AgentAuth.Login)

	// Customer widget: no session, no token. The (number, email) pair on
	// each request is the whole credential.
	support := app.Group("/support")
	support.Post("/tickets", cfg.Support.CreateTicket)
	support.Post("/tickets/:number/replies", cfg.Support.AddReply)
	support.Get("/tickets/:number/messages", cfg.Support.PollMessages)

	agent := app.Group("/agent", cfg.AgentMiddleware.Handle)
	// unread-count before :id so the literal segment wins.
	agent.Get("/tickets/unread-count", cfg.AgentTickets.UnreadCount)
	agent.Get("/tickets", cfg.AgentTickets.ListTickets)
	agent.Get("/tickets/:id", cfg.AgentTickets.GetTicket)
	agent.Post("/tickets/:id/replies", cfg.AgentTickets.AddReply)
	agent.Patch("/tickets/:id", cfg.AgentTickets.UpdateTicket)
	agent.Delete("/tickets/:id", cfg.AgentTickets.DeleteTicket)
}
