package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets. The set constrains
// which labels are valid, not reachability: agents may move a ticket from any
// status to any other, including backward (e.g. reopening a closed ticket).
type TicketStatus string

const (
	TicketStatusPending         TicketStatus = "PENDING"
	TicketStatusOpen            TicketStatus = "OPEN"
	TicketStatusInProgress      TicketStatus = "IN_PROGRESS"
	TicketStatusWaitingCustomer TicketStatus = "WAITING_CUSTOMER"
	TicketStatusSolved          TicketStatus = "SOLVED"
	TicketStatusClosed          TicketStatus = "CLOSED"
)

// ValidStatus reports whether s is a member of the status enumeration.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusPending, TicketStatusOpen, TicketStatusInProgress,
		TicketStatusWaitingCustomer, TicketStatusSolved, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityNormal TicketPriority = "NORMAL"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// ValidPriority reports whether p is a member of the priority enumeration.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityNormal, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// TicketTopic categorizes what a ticket is about. The responder keys its
// canned fallbacks off this value; unknown topics fall through to the
// generic acknowledgment.
type TicketTopic string

const (
	TopicBilling   TicketTopic = "BILLING"
	TopicTechnical TicketTopic = "TECHNICAL"
	TopicAccount   TicketTopic = "ACCOUNT"
	TopicShipping  TicketTopic = "SHIPPING"
	TopicGeneral   TicketTopic = "GENERAL"
)

// Ticket is one customer support conversation.
//
// Name and Email are immutable after creation; Email doubles as the customer
// credential together with Number. Unread is set once at creation and cleared
// the first time an agent opens the ticket.
type Ticket struct {
	ID        int64
	Number    string
	Name      string
	Email     string
	Topic     TicketTopic
	Status    TicketStatus
	Priority  TicketPriority
	Assignee  *string
	Unread    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
