package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/api/dto"
	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/service"
	apperrors "github.com/Dansonhar/QBOTU-System-Support-sub000/pkg/util"
)

// SupportHandler serves the customer widget. These endpoints are
// unauthenticated by design: a ticket is bound to its customer only by the
// (ticket number, email) pair.
type SupportHandler struct {
	conversations *service.ConversationService
}

// NewSupportHandler constructs handler.
func NewSupportHandler(conversations *service.ConversationService) *SupportHandler {
	return &SupportHandler{conversations: conversations}
}

// CreateTicket POST /support/tickets.
func (h *SupportHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, replies, err := h.conversations.CreateTicket(c.UserContext(), service.CreateTicketInput{
		Name:    req.Name,
		Email:   req.Email,
		Topic:   req.Topic,
		Message: req.Message,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.TicketWithRepliesResponse{
		Ticket:  dto.FromTicket(ticket),
		Replies: dto.FromReplies(replies),
	}})
}

// AddReply POST /support/tickets/:number/replies.
func (h *SupportHandler) AddReply(c *fiber.Ctx) error {
	var req dto.CustomerReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, replies, err := h.conversations.AddCustomerReply(c.UserContext(), c.Params("number"), req.Email, req.Message)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.TicketWithRepliesResponse{
		Ticket:  dto.FromTicket(ticket),
		Replies: dto.FromReplies(replies),
	}})
}

// PollMessages GET /support/tickets/:number/messages?email=...
// The widget calls this on a fixed interval and diffs against its cached
// reply count; duplicate fetches are expected and harmless.
func (h *SupportHandler) PollMessages(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return apperrors.NewValidationError("email is required", nil)
	}

	status, replies, err := h.conversations.PollMessages(c.UserContext(), c.Params("number"), email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.PollResponse{
		Status:  status,
		Replies: dto.FromReplies(replies),
	}})
}
