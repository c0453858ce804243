package events

import (
	"time"

	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventReplyAdded          EventType = "reply_added"
	EventTicketEscalated     EventType = "ticket_escalated"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketDeleted       EventType = "ticket_deleted"
)

// Event represents a domain event emitted by the conversation engine.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Number   string                `json:"number"`
	Topic    domain.TicketTopic    `json:"topic"`
	Priority domain.TicketPriority `json:"priority"`
	Email    string                `json:"email"`
}

// ReplyAddedPayload payload.
type ReplyAddedPayload struct {
	ReplyID     int64              `json:"reply_id"`
	Sender      domain.ReplySender `json:"sender"`
	IsInternal  bool               `json:"is_internal"`
	BodyPreview string             `json:"body_preview"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	Number     string              `json:"number"`
	FromStatus domain.TicketStatus `json:"from_status"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}
