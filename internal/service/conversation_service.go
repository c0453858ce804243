package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/autoreply"
	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/domain"
	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/events"
	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/repository"
	apperrors "github.com/Dansonhar/QBOTU-System-Support-sub000/pkg/util"
)

// ConversationService is the ticket conversation engine: it owns the
// lifecycle state machine, runs the auto-responder and escalation detector
// against incoming customer messages, and keeps both sides of a
// conversation consistent through the ticket store.
type ConversationService struct {
	tickets    repository.TicketRepository
	replies    repository.ReplyRepository
	responder  *autoreply.Responder
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// ConversationDependencies bundles collaborators for the engine.
type ConversationDependencies struct {
	TicketRepo repository.TicketRepository
	ReplyRepo  repository.ReplyRepository
	Responder  *autoreply.Responder
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewConversationService constructs the engine.
func NewConversationService(deps ConversationDependencies) *ConversationService {
	return &ConversationService{
		tickets:    deps.TicketRepo,
		replies:    deps.ReplyRepo,
		responder:  deps.Responder,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// CreateTicketInput describes a new customer conversation.
type CreateTicketInput struct {
	Name    string
	Email   string
	Topic   domain.TicketTopic
	Message string
}

// TicketUpdate carries partial-update options for agent-driven edits.
// Status and Priority use nil for "unspecified". Assignee is tri-state:
// AssigneeSet false leaves it untouched; AssigneeSet true with a nil
// Assignee explicitly clears it.
type TicketUpdate struct {
	Status      *domain.TicketStatus
	Priority    *domain.TicketPriority
	Assignee    *string
	AssigneeSet bool
}

// ListFilter describes agent console listing parameters.
type ListFilter struct {
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
	Assignee   *string
	SearchTerm *string
	UnreadOnly bool
	Page       int
	PageSize   int
}

// CreateTicket opens a new conversation: the ticket persists in PENDING with
// the customer's opening message, immediately followed by the bot's
// auto-reply. Resubmitting identical input creates a second ticket; there is
// no deduplication.
func (s *ConversationService) CreateTicket(ctx context.Context, input CreateTicketInput) (*domain.Ticket, []domain.Reply, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)
	message := strings.TrimSpace(input.Message)
	if name == "" || email == "" || input.Topic == "" || message == "" {
		return nil, nil, apperrors.NewValidationError("name, email, topic and message are required", nil)
	}

	ticket := &domain.Ticket{
		Name:     name,
		Email:    email,
		Topic:    domain.TicketTopic(strings.ToUpper(string(input.Topic))),
		Status:   domain.TicketStatusPending,
		Priority: domain.TicketPriorityNormal,
		Unread:   true,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	opening := &domain.Reply{TicketID: ticket.ID, Sender: domain.SenderUser, Body: message}
	if err := s.replies.Append(ctx, opening, nil); err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	botText := s.responder.Respond(ctx, message, ticket.Topic)
	botReply := &domain.Reply{TicketID: ticket.ID, Sender: domain.SenderBot, Body: botText}
	if err := s.replies.Append(ctx, botReply, nil); err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			Number:   ticket.Number,
			Topic:    ticket.Topic,
			Priority: ticket.Priority,
			Email:    ticket.Email,
		},
	})

	return ticket, []domain.Reply{*opening, *botReply}, nil
}

// AddCustomerReply appends a customer message, then applies the automatic
// transitions: an escalation request moves the ticket to OPEN (unless it is
// already OPEN or IN_PROGRESS) and appends the hand-off notice; a reply to a
// WAITING_CUSTOMER ticket moves it to IN_PROGRESS; otherwise only the
// last-updated timestamp refreshes.
func (s *ConversationService) AddCustomerReply(ctx context.Context, number, email, message string) (*domain.Ticket, []domain.Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, nil, apperrors.NewValidationError("message is required", nil)
	}

	ticket, err := s.tickets.GetByNumberAndEmail(ctx, number, email)
	if err != nil {
		return nil, nil, s.mapTicketErr(err)
	}

	escalate := autoreply.DetectEscalation(message) &&
		ticket.Status != domain.TicketStatusOpen &&
		ticket.Status != domain.TicketStatusInProgress

	var newStatus *domain.TicketStatus
	switch {
	case escalate:
		status := domain.TicketStatusOpen
		newStatus = &status
	case ticket.Status == domain.TicketStatusWaitingCustomer:
		status := domain.TicketStatusInProgress
		newStatus = &status
	}

	reply := &domain.Reply{TicketID: ticket.ID, Sender: domain.SenderUser, Body: message}
	if err := s.replies.Append(ctx, reply, newStatus); err != nil {
		return nil, nil, s.mapTicketErr(err)
	}

	if escalate {
		notice := &domain.Reply{TicketID: ticket.ID, Sender: domain.SenderBot, Body: autoreply.EscalationNotice}
		if err := s.replies.Append(ctx, notice, nil); err != nil {
			return nil, nil, s.mapTicketErr(err)
		}
		s.publish(ctx, events.Event{
			Type:     events.EventTicketEscalated,
			TicketID: ticket.ID,
			Payload: events.TicketEscalatedPayload{
				Number:     ticket.Number,
				FromStatus: ticket.Status,
			},
		})
	}
	if newStatus != nil {
		ticket.Status = *newStatus
	}

	s.publish(ctx, events.Event{
		Type:     events.EventReplyAdded,
		TicketID: ticket.ID,
		Payload: events.ReplyAddedPayload{
			ReplyID:     reply.ID,
			Sender:      reply.Sender,
			BodyPreview: bodyPreview(reply.Body, 120),
		},
	})

	visible, err := s.replies.ListByTicket(ctx, ticket.ID, false)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return ticket, visible, nil
}

// PollMessages returns the ticket status and the customer-visible thread.
// Internal notes never appear here. Polling may return rows the client has
// already seen; clients diff against their cached reply count.
func (s *ConversationService) PollMessages(ctx context.Context, number, email string) (domain.TicketStatus, []domain.Reply, error) {
	ticket, err := s.tickets.GetByNumberAndEmail(ctx, number, email)
	if err != nil {
		return "", nil, s.mapTicketErr(err)
	}
	replies, err := s.replies.ListByTicket(ctx, ticket.ID, false)
	if err != nil {
		return "", nil, apperrors.MapError(err)
	}
	return ticket.Status, replies, nil
}

// AddAgentReply appends an agent message. A public reply advances the
// workflow (PENDING→OPEN, OPEN→IN_PROGRESS, WAITING_CUSTOMER→IN_PROGRESS);
// internal notes and replies on IN_PROGRESS, SOLVED or CLOSED tickets leave
// the status alone.
func (s *ConversationService) AddAgentReply(ctx context.Context, ticketID int64, message string, isInternal bool) (*domain.Ticket, []domain.Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, nil, apperrors.NewValidationError("message is required", nil)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, nil, s.mapTicketErr(err)
	}

	var newStatus *domain.TicketStatus
	if !isInternal {
		switch ticket.Status {
		case domain.TicketStatusPending:
			status := domain.TicketStatusOpen
			newStatus = &status
		case domain.TicketStatusOpen, domain.TicketStatusWaitingCustomer:
			status := domain.TicketStatusInProgress
			newStatus = &status
		}
	}

	reply := &domain.Reply{TicketID: ticket.ID, Sender: domain.SenderAdmin, Body: message, IsInternal: isInternal}
	if err := s.replies.Append(ctx, reply, newStatus); err != nil {
		return nil, nil, s.mapTicketErr(err)
	}
	if newStatus != nil {
		ticket.Status = *newStatus
	}

	s.publish(ctx, events.Event{
		Type:     events.EventReplyAdded,
		TicketID: ticket.ID,
		Payload: events.ReplyAddedPayload{
			ReplyID:     reply.ID,
			Sender:      reply.Sender,
			IsInternal:  reply.IsInternal,
			BodyPreview: bodyPreview(reply.Body, 120),
		},
	})

	all, err := s.replies.ListByTicket(ctx, ticket.ID, true)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return ticket, all, nil
}

// UpdateTicket applies a partial update of status, priority and assignee.
// Any status in the enumeration is accepted over any current status; the
// workflow ordering is advisory and agents may move tickets backward.
func (s *ConversationService) UpdateTicket(ctx context.Context, ticketID int64, update TicketUpdate) (*domain.Ticket, error) {
	if update.Status != nil && !domain.ValidStatus(*update.Status) {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": *update.Status})
	}
	if update.Priority != nil && !domain.ValidPriority(*update.Priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": *update.Priority})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, s.mapTicketErr(err)
	}

	oldStatus := ticket.Status
	if update.Status != nil {
		ticket.Status = *update.Status
	}
	if update.Priority != nil {
		ticket.Priority = *update.Priority
	}
	if update.AssigneeSet {
		ticket.Assignee = update.Assignee
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, s.mapTicketErr(err)
	}

	if update.Status != nil && oldStatus != ticket.Status {
		s.publish(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: ticket.ID,
			Payload: events.TicketStatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: ticket.Status,
			},
		})
	}
	return ticket, nil
}

// ListTickets returns one page of tickets plus the total match count.
func (s *ConversationService) ListTickets(ctx context.Context, filter ListFilter) ([]domain.Ticket, int, error) {
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	tickets, total, err := s.tickets.List(ctx, repository.TicketFilter{
		Status:     filter.Status,
		Priority:   filter.Priority,
		Assignee:   filter.Assignee,
		SearchTerm: filter.SearchTerm,
		UnreadOnly: filter.UnreadOnly,
		Limit:      pageSize,
		Offset:     (page - 1) * pageSize,
	})
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return tickets, total, nil
}

// GetTicket returns the ticket with its full thread, internal notes
// included. Opening an unread ticket clears the unread flag as a side
// effect of the read itself.
func (s *ConversationService) GetTicket(ctx context.Context, ticketID int64) (*domain.Ticket, []domain.Reply, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, nil, s.mapTicketErr(err)
	}
	if ticket.Unread {
		if err := s.tickets.MarkRead(ctx, ticket.ID); err != nil {
			return nil, nil, s.mapTicketErr(err)
		}
		ticket.Unread = false
	}
	replies, err := s.replies.ListByTicket(ctx, ticket.ID, true)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return ticket, replies, nil
}

// DeleteTicket removes the ticket and cascades to all of its replies.
func (s *ConversationService) DeleteTicket(ctx context.Context, ticketID int64) error {
	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		return s.mapTicketErr(err)
	}
	if s.logger != nil {
		s.logger.Info("ticket deleted", zap.Int64("ticket_id", ticketID))
	}
	s.publish(ctx, events.Event{Type: events.EventTicketDeleted, TicketID: ticketID})
	return nil
}

// UnreadCount reports how many tickets no agent has opened yet. The count
// is always read from the store, never a cache, so pollers see every
// committed write.
func (s *ConversationService) UnreadCount(ctx context.Context) (int, error) {
	count, err := s.tickets.UnreadCount(ctx)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return count, nil
}

func (s *ConversationService) mapTicketErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("ticket", nil)
	}
	return apperrors.MapError(err)
}

func (s *ConversationService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func bodyPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
