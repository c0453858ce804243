package dto

import "time"

// AgentLoginRequest payload.
type AgentLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AgentLoginResponse payload.
type AgentLoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	AgentID   int64     `json:"agent_id"`
	Name      string    `json:"name"`
}

// UnreadCountResponse is the poller contract's single read.
type UnreadCountResponse struct {
	Count int `json:"count"`
}
