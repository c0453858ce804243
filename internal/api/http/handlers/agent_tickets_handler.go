package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/api/dto"
	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/domain"
	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/service"
	apperrors "github.com/Dansonhar/QBOTU-System-Support-sub000/pkg/util"
)

// AgentTicketsHandler serves the agent console. Authentication happens in
// the middleware before any of these run.
type AgentTicketsHandler struct {
	conversations *service.ConversationService
}

// NewAgentTicketsHandler constructs handler.
func NewAgentTicketsHandler(conversations *service.ConversationService) *AgentTicketsHandler {
	return &AgentTicketsHandler{conversations: conversations}
}

// ListTickets GET /agent/tickets.
func (h *AgentTicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter := parseListQuery(c)
	tickets, total, err := h.conversations.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.FromTicket(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": dto.TicketListResponse{
		Tickets:    items,
		TotalCount: total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	}})
}

// GetTicket GET /agent/tickets/:id. Opening an unread ticket clears the
// unread flag.
func (h *AgentTicketsHandler) GetTicket(c *fiber.Ctx) error {
	id, err := parseTicketID(c)
	if err != nil {
		return err
	}
	ticket, replies, err := h.conversations.GetTicket(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketWithRepliesResponse{
		Ticket:  dto.FromTicket(ticket),
		Replies: dto.FromReplies(replies),
	}})
}

// AddReply POST /agent/tickets/:id/replies.
func (h *AgentTicketsHandler) AddReply(c *fiber.Ctx) error {
	id, err := parseTicketID(c)
	if err != nil {
		return err
	}
	var req dto.AgentReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, replies, err := h.conversations.AddAgentReply(c.UserContext(), id, req.Message, req.Internal)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.TicketWithRepliesResponse{
		Ticket:  dto.FromTicket(ticket),
		Replies: dto.FromReplies(replies),
	}})
}

// UpdateTicket PATCH /agent/tickets/:id.
func (h *AgentTicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	id, err := parseTicketID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.conversations.UpdateTicket(c.UserContext(), id, service.TicketUpdate{
		Status:      req.Status,
		Priority:    req.Priority,
		Assignee:    req.Assignee.Value,
		AssigneeSet: req.Assignee.Set,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// DeleteTicket DELETE /agent/tickets/:id.
func (h *AgentTicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	id, err := parseTicketID(c)
	if err != nil {
		return err
	}
	if err := h.conversations.DeleteTicket(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UnreadCount GET /agent/tickets/unread-count. The console poller hits this
// on a fixed interval.
func (h *AgentTicketsHandler) UnreadCount(c *fiber.Ctx) error {
	count, err := h.conversations.UnreadCount(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.UnreadCountResponse{Count: count}})
}

func parseTicketID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid ticket id", nil)
	}
	return id, nil
}

func parseListQuery(c *fiber.Ctx) service.ListFilter {
	filter := service.ListFilter{}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := domain.TicketStatus(strings.ToUpper(raw))
		filter.Status = &status
	}
	if raw := strings.TrimSpace(c.Query("priority")); raw != "" {
		priority := domain.TicketPriority(strings.ToUpper(raw))
		filter.Priority = &priority
	}
	if raw := strings.TrimSpace(c.Query("assignee")); raw != "" {
		filter.Assignee = &raw
	}
	if raw := strings.TrimSpace(c.Query("q")); raw != "" {
		filter.SearchTerm = &raw
	}
	filter.UnreadOnly = c.QueryBool("unread")
	filter.Page = parseInt(c.Query("page"), 1)
	filter.PageSize = parseInt(c.Query("page_size"), 20)
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
