package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/autoreply"
	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/domain"
	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/events"
	apperrors "github.com/Dansonhar/QBOTU-System-Support-sub000/pkg/util"
)

func newTestService(t *testing.T) (*ConversationService, *memStore) {
	t.Helper()
	store := newMemStore("TKT")
	articles := &staticArticles{articles: []domain.Article{
		{ID: 1, Title: "How to Reset Your Password", Description: "password reset steps", Category: "Account"},
	}}
	svc := NewConversationService(ConversationDependencies{
		TicketRepo: store.ticketRepo(),
		ReplyRepo:  store.replyRepo(),
		Responder:  autoreply.NewResponder(articles, zap.NewNop()),
		Dispatcher: events.NewInMemoryDispatcher(),
		Logger:     zap.NewNop(),
	})
	return svc, store
}

func createTicket(t *testing.T, svc *ConversationService, name, email, message string) *domain.Ticket {
	t.Helper()
	ticket, _, err := svc.CreateTicket(context.Background(), CreateTicketInput{
		Name:    name,
		Email:   email,
		Topic:   domain.TopicGeneral,
		Message: message,
	})
	require.NoError(t, err)
	return ticket
}

func TestCreateTicketNumberFormatAndThread(t *testing.T) {
	svc, _ := newTestService(t)

	ticket, replies, err := svc.CreateTicket(context.Background(), CreateTicketInput{
		Name:    "Ada",
		Email:   "ada@example.com",
		Topic:   domain.TopicGeneral,
		Message: "Where is my order?",
	})
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^TKT-\d{4}-\d{6}$`), ticket.Number)
	assert.Equal(t, domain.TicketStatusPending, ticket.Status)
	assert.Equal(t, domain.TicketPriorityNormal, ticket.Priority)
	assert.True(t, ticket.Unread)

	require.Len(t, replies, 2)
	assert.Equal(t, domain.SenderUser, replies[0].Sender)
	assert.Equal(t, "Where is my order?", replies[0].Body)
	assert.Equal(t, domain.SenderBot, replies[1].Sender)
	assert.True(t, replies[1].CreatedAt.After(replies[0].CreatedAt))
}

func TestCreateTicketNoDeduplication(t *testing.T) {
	svc, _ := newTestService(t)

	first := createTicket(t, svc, "Ada", "ada@example.com", "hello")
	second := createTicket(t, svc, "Ada", "ada@example.com", "hello")

	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.Number, second.Number)
}

func TestCreateTicketValidation(t *testing.T) {
	svc, store := newTestService(t)

	_, _, err := svc.CreateTicket(context.Background(), CreateTicketInput{
		Name:  "Ada",
		Email: "ada@example.com",
		Topic: domain.TopicGeneral,
	})
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)

	count, err := store.ticketRepo().UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count, "validation must reject before any store write")
}

func TestCustomerReplyEscalation(t *testing.T) {
	svc, _ := newTestService(t)
	ticket := createTicket(t, svc, "Ada", "ada@example.com", "hello")

	updated, replies, err := svc.AddCustomerReply(context.Background(), ticket.Number, ticket.Email, "please connect to agent")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, updated.Status)
	// opening message, auto-reply, escalation request, hand-off notice
	require.Len(t, replies, 4)
	assert.Equal(t, domain.SenderBot, replies[3].Sender)
	assert.Equal(t, autoreply.EscalationNotice, replies[3].Body)

	// same phrase while already OPEN: no transition, no second notice
	updated, replies, err = svc.AddCustomerReply(context.Background(), ticket.Number, ticket.Email, "connect to agent now")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, updated.Status)
	require.Len(t, replies, 5)
	assert.Equal(t, domain.SenderUser, replies[4].Sender)
}

func TestCustomerReplyWhileWaitingMovesToInProgress(t *testing.T) {
	svc, _ := newTestService(t)
	ticket := createTicket(t, svc, "Ada", "ada@example.com", "hello")

	waiting := domain.TicketStatusWaitingCustomer
	_, err := svc.UpdateTicket(context.Background(), ticket.ID, TicketUpdate{Status: &waiting})
	require.NoError(t, err)

	updated, _, err := svc.AddCustomerReply(context.Background(), ticket.Number, ticket.Email, "here is the info you asked for")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)
}

func TestCustomerReplyWrongCredential(t *testing.T) {
	svc, _ := newTestService(t)
	ticket := createTicket(t, svc, "Ada", "ada@example.com", "hello")

	_, _, err := svc.AddCustomerReply(context.Background(), ticket.Number, "mallory@example.com", "hi")
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestAgentReplyTransitions(t *testing.T) {
	svc, _ := newTestService(t)
	ticket := createTicket(t, svc, "Ada", "ada@example.com", "hello")

	updated, _, err := svc.AddAgentReply(context.Background(), ticket.ID, "looking into it", false)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, updated.Status, "PENDING -> OPEN")

	updated, _, err = svc.AddAgentReply(context.Background(), ticket.ID, "found the cause", false)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status, "OPEN -> IN_PROGRESS")

	updated, _, err = svc.AddAgentReply(context.Background(), ticket.ID, "still on it", false)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status, "IN_PROGRESS unchanged")
}

func TestAgentInternalNoteLeavesStatus(t *testing.T) {
	svc, _ := newTestService(t)
	ticket := createTicket(t, svc, "Ada", "ada@example.com", "hello")

	updated, _, err := svc.AddAgentReply(context.Background(), ticket.ID, "customer is a VIP", true)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusPending, updated.Status)
}

func TestInternalNoteVisibility(t *testing.T) {
	svc, _ := newTestService(t)
	ticket := createTicket(t, svc, "Ada", "ada@example.com", "hello")

	_, _, err := svc.AddAgentReply(context.Background(), ticket.ID, "internal note body", true)
	require.NoError(t, err)

	_, visible, err := svc.PollMessages(context.Background(), ticket.Number, ticket.Email)
	require.NoError(t, err)
	for _, reply := range visible {
		assert.NotEqual(t, "internal note body", reply.Body)
	}

	_, all, err := svc.GetTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	found := false
	for _, reply := range all {
		if reply.Body == "internal note body" {
			found = true
			assert.True(t, reply.IsInternal)
		}
	}
	assert.True(t, found, "internal note must appear in the agent view")
}

func TestGetTicketClearsUnreadOnce(t *testing.T) {
	svc, _ := newTestService(t)
	ticket := createTicket(t, svc, "Ada", "ada@example.com", "hello")
	require.True(t, ticket.Unread)

	got, _, err := svc.GetTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.False(t, got.Unread)

	got, _, err = svc.GetTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.False(t, got.Unread)

	// ordinary replies do not set it true again
	_, _, err = svc.AddCustomerReply(context.Background(), ticket.Number, ticket.Email, "any update?")
	require.NoError(t, err)
	got, _, err = svc.GetTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.False(t, got.Unread)
}

func TestUnreadCount(t *testing.T) {
	svc, _ := newTestService(t)
	first := createTicket(t, svc, "Ada", "ada@example.com", "one")
	createTicket(t, svc, "Bob", "bob@example.com", "two")
	createTicket(t, svc, "Cam", "cam@example.com", "three")

	count, err := svc.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	_, _, err = svc.GetTicket(context.Background(), first.ID)
	require.NoError(t, err)

	count, err = svc.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDeleteTicketCascades(t *testing.T) {
	svc, store := newTestService(t)
	ticket := createTicket(t, svc, "Ada", "ada@example.com", "hello")
	_, _, err := svc.AddAgentReply(context.Background(), ticket.ID, "on it", false)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTicket(context.Background(), ticket.ID))

	_, _, err = svc.GetTicket(context.Background(), ticket.ID)
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "NOT_FOUND", domainErr.Code)

	assert.Zero(t, store.orphanReplyCount())
}

func TestDeleteMissingTicket(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.DeleteTicket(context.Background(), 12345)
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestListTicketsPagination(t *testing.T) {
	svc, _ := newTestService(t)
	for i := 0; i < 25; i++ {
		createTicket(t, svc, "Ada", fmt.Sprintf("user%d@example.com", i), "hello")
	}

	wantCounts := []int{10, 10, 5}
	for page := 1; page <= 3; page++ {
		tickets, total, err := svc.ListTickets(context.Background(), ListFilter{Page: page, PageSize: 10})
		require.NoError(t, err)
		assert.Len(t, tickets, wantCounts[page-1], "page %d", page)
		assert.Equal(t, 25, total, "total stays stable across pages")
	}
}

func TestListTicketsFilters(t *testing.T) {
	svc, _ := newTestService(t)
	first := createTicket(t, svc, "Ada", "ada@example.com", "hello")
	createTicket(t, svc, "Bob", "bob@example.com", "hello")

	urgent := domain.TicketPriorityUrgent
	_, err := svc.UpdateTicket(context.Background(), first.ID, TicketUpdate{Priority: &urgent})
	require.NoError(t, err)

	tickets, total, err := svc.ListTickets(context.Background(), ListFilter{Priority: &urgent})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, tickets, 1)
	assert.Equal(t, first.ID, tickets[0].ID)

	search := "bob@"
	tickets, total, err = svc.ListTickets(context.Background(), ListFilter{SearchTerm: &search})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, tickets, 1)
	assert.Equal(t, "bob@example.com", tickets[0].Email)
}

func TestUpdateTicketPartialSemantics(t *testing.T) {
	svc, _ := newTestService(t)
	ticket := createTicket(t, svc, "Ada", "ada@example.com", "hello")

	// priority only: status untouched
	high := domain.TicketPriorityHigh
	updated, err := svc.UpdateTicket(context.Background(), ticket.ID, TicketUpdate{Priority: &high})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusPending, updated.Status)
	assert.Equal(t, high, updated.Priority)

	// set assignee
	agent := "agent-7"
	updated, err = svc.UpdateTicket(context.Background(), ticket.ID, TicketUpdate{Assignee: &agent, AssigneeSet: true})
	require.NoError(t, err)
	require.NotNil(t, updated.Assignee)
	assert.Equal(t, "agent-7", *updated.Assignee)
	assert.Equal(t, high, updated.Priority, "unspecified fields retain prior value")

	// explicit clear is distinct from unspecified
	updated, err = svc.UpdateTicket(context.Background(), ticket.ID, TicketUpdate{AssigneeSet: true})
	require.NoError(t, err)
	assert.Nil(t, updated.Assignee)
}

func TestUpdateTicketPermissiveTransitions(t *testing.T) {
	svc, _ := newTestService(t)
	ticket := createTicket(t, svc, "Ada", "ada@example.com", "hello")

	closed := domain.TicketStatusClosed
	updated, err := svc.UpdateTicket(context.Background(), ticket.ID, TicketUpdate{Status: &closed})
	require.NoError(t, err)
	assert.Equal(t, closed, updated.Status)

	// reopening a closed ticket is legitimate
	open := domain.TicketStatusOpen
	updated, err = svc.UpdateTicket(context.Background(), ticket.ID, TicketUpdate{Status: &open})
	require.NoError(t, err)
	assert.Equal(t, open, updated.Status)

	bogus := domain.TicketStatus("ARCHIVED")
	_, err = svc.UpdateTicket(context.Background(), ticket.ID, TicketUpdate{Status: &bogus})
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
}

func TestClosedTicketStillAcceptsReplies(t *testing.T) {
	svc, _ := newTestService(t)
	ticket := createTicket(t, svc, "Ada", "ada@example.com", "hello")

	closed := domain.TicketStatusClosed
	_, err := svc.UpdateTicket(context.Background(), ticket.ID, TicketUpdate{Status: &closed})
	require.NoError(t, err)

	updated, replies, err := svc.AddCustomerReply(context.Background(), ticket.Number, ticket.Email, "actually it broke again")
	require.NoError(t, err)
	assert.Equal(t, closed, updated.Status)
	assert.Len(t, replies, 3)
}

func TestPollMessagesOrdering(t *testing.T) {
	svc, _ := newTestService(t)
	ticket := createTicket(t, svc, "Ada", "ada@example.com", "hello")
	for i := 0; i < 3; i++ {
		_, _, err := svc.AddCustomerReply(context.Background(), ticket.Number, ticket.Email, fmt.Sprintf("follow-up %d", i))
		require.NoError(t, err)
	}

	_, replies, err := svc.PollMessages(context.Background(), ticket.Number, ticket.Email)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(replies), 5)
	assert.Equal(t, domain.SenderUser, replies[0].Sender)
	assert.Equal(t, domain.SenderBot, replies[1].Sender)
	for i := 1; i < len(replies); i++ {
		assert.False(t, replies[i].CreatedAt.Before(replies[i-1].CreatedAt))
	}
}
