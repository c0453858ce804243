package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/auth"
	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/config"
	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/domain"
	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/repository"
	apperrors "github.com/Dansonhar/QBOTU-System-Support-sub000/pkg/util"
)

// AgentAuthService implements the admin-auth boundary: it exchanges agent
// credentials for a bearer token that the console sends on every request.
type AgentAuthService struct {
	agents repository.AgentRepository
	tokens *auth.TokenManager
	cfg    config.AuthConfig
	logger *zap.Logger
}

// NewAgentAuthService constructs the service.
func NewAgentAuthService(cfg config.AuthConfig, agents repository.AgentRepository, logger *zap.Logger) *AgentAuthService {
	return &AgentAuthService{
		agents: agents,
		tokens: auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		cfg:    cfg,
		logger: logger,
	}
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AgentAuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// Login verifies credentials and issues a token.
func (s *AgentAuthService) Login(ctx context.Context, email, password string) (string, time.Time, *domain.Agent, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", time.Time{}, nil, apperrors.NewValidationError("email and password are required", nil)
	}

	agent, err := s.agents.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", time.Time{}, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return "", time.Time{}, nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(agent.PasswordHash, password); err != nil {
		return "", time.Time{}, nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(agent.ID)
	if err != nil {
		return "", time.Time{}, nil, apperrors.NewInternalError(err)
	}
	return token, expiresAt, agent, nil
}

// EnsureBootstrapAgent creates the configured initial agent if one is set.
// Idempotent across restarts.
func (s *AgentAuthService) EnsureBootstrapAgent(ctx context.Context) error {
	if s.cfg.BootstrapAgentEmail == "" || s.cfg.BootstrapAgentPass == "" {
		return nil
	}
	if _, err := s.agents.GetByEmail(ctx, s.cfg.BootstrapAgentEmail); err == nil {
		return nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(s.cfg.BootstrapAgentPass, s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	agent := &domain.Agent{
		Name:         s.cfg.BootstrapAgentName,
		Email:        s.cfg.BootstrapAgentEmail,
		PasswordHash: hash,
	}
	if err := s.agents.Create(ctx, agent); err != nil {
		return err
	}
	s.logger.Info("bootstrap agent ensured", zap.String("email", agent.Email))
	return nil
}
