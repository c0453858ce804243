package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/api/dto"
	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/service"
	apperrors "github.com/Dansonhar/QBOTU-System-Support-sub000/pkg/util"
)

// AgentAuthHandler serves agent login.
type AgentAuthHandler struct {
	auth *service.AgentAuthService
}

// NewAgentAuthHandler constructs handler.
func NewAgentAuthHandler(auth *service.AgentAuthService) *AgentAuthHandler {
	return &AgentAuthHandler{auth: auth}
}

// Login POST /auth/agent/login.
func (h *AgentAuthHandler) Login(c *fiber.Ctx) error {
	var req dto.AgentLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	token, expiresAt, agent, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AgentLoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		AgentID:   agent.ID,
		Name:      agent.Name,
	}})
}
