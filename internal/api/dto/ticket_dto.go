package dto

import (
	"encoding/json"
	"time"

	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/domain"
)

// CreateTicketRequest is the customer widget's opening payload.
type CreateTicketRequest struct {
	Name    string             `json:"name"`
	Email   string             `json:"email"`
	Topic   domain.TicketTopic `json:"topic"`
	Message string             `json:"message"`
}

// CustomerReplyRequest carries a follow-up customer message. Email repeats
// on every request because it is the only credential.
type CustomerReplyRequest struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

// AgentReplyRequest carries a console reply.
type AgentReplyRequest struct {
	Message  string `json:"message"`
	Internal bool   `json:"internal"`
}

// OptionalString distinguishes "field absent" from "field set to null" in a
// partial update: Set is true whenever the key appeared in the payload.
type OptionalString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON implements tri-state decoding.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// UpdateTicketRequest is the agent-driven partial update. Unspecified fields
// retain their prior value.
type UpdateTicketRequest struct {
	Status   *domain.TicketStatus   `json:"status"`
	Priority *domain.TicketPriority `json:"priority"`
	Assignee OptionalString         `json:"assignee"`
}

// TicketResponse is the console view of a ticket.
type TicketResponse struct {
	ID        int64                 `json:"id"`
	Number    string                `json:"number"`
	Name      string                `json:"name"`
	Email     string                `json:"email"`
	Topic     domain.TicketTopic    `json:"topic"`
	Status    domain.TicketStatus   `json:"status"`
	Priority  domain.TicketPriority `json:"priority"`
	Assignee  *string               `json:"assignee"`
	Unread    bool                  `json:"unread"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// ReplyResponse represents one thread message.
type ReplyResponse struct {
	ID         int64              `json:"id"`
	Sender     domain.ReplySender `json:"sender"`
	Body       string             `json:"body"`
	IsInternal bool               `json:"is_internal,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// TicketWithRepliesResponse bundles a ticket with its thread.
type TicketWithRepliesResponse struct {
	Ticket  TicketResponse  `json:"ticket"`
	Replies []ReplyResponse `json:"replies"`
}

// PollResponse is the customer widget's poll result.
type PollResponse struct {
	Status  domain.TicketStatus `json:"status"`
	Replies []ReplyResponse     `json:"replies"`
}

// TicketListResponse is one console page plus the stable total.
type TicketListResponse struct {
	Tickets    []TicketResponse `json:"tickets"`
	TotalCount int              `json:"total_count"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
}

// FromTicket maps a domain ticket.
func FromTicket(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:        ticket.ID,
		Number:    ticket.Number,
		Name:      ticket.Name,
		Email:     ticket.Email,
		Topic:     ticket.Topic,
		Status:    ticket.Status,
		Priority:  ticket.Priority,
		Assignee:  ticket.Assignee,
		Unread:    ticket.Unread,
		CreatedAt: ticket.CreatedAt,
		UpdatedAt: ticket.UpdatedAt,
	}
}

// FromReplies maps a thread.
func FromReplies(replies []domain.Reply) []ReplyResponse {
	result := make([]ReplyResponse, 0, len(replies))
	for _, reply := range replies {
		result = append(result, ReplyResponse{
			ID:         reply.ID,
			Sender:     reply.Sender,
			Body:       reply.Body,
			IsInternal: reply.IsInternal,
			CreatedAt:  reply.CreatedAt,
		})
	}
	return result
}
