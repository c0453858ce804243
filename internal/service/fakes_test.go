package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/domain"
	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/repository"
)

// memStore is an in-memory stand-in for the Postgres-backed repositories,
// honoring the same contracts: two-phase number assignment, pgx.ErrNoRows
// sentinels, ordered replies with a monotonic clock.
type memStore struct {
	mu           sync.Mutex
	prefix       string
	tickets      map[int64]*domain.Ticket
	replies      map[int64][]domain.Reply
	nextTicketID int64
	nextReplyID  int64
	now          time.Time
}

func newMemStore(prefix string) *memStore {
	return &memStore{
		prefix:  prefix,
		tickets: make(map[int64]*domain.Ticket),
		replies: make(map[int64][]domain.Reply),
		now:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) tick() time.Time {
	s.now = s.now.Add(time.Millisecond)
	return s.now
}

type memTicketRepo struct{ store *memStore }
type memReplyRepo struct{ store *memStore }

func (s *memStore) ticketRepo() repository.TicketRepository { return &memTicketRepo{store: s} }
func (s *memStore) replyRepo() repository.ReplyRepository   { return &memReplyRepo{store: s} }

func (r *memTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextTicketID++
	ticket.ID = s.nextTicketID
	ticket.CreatedAt = s.tick()
	ticket.UpdatedAt = ticket.CreatedAt
	ticket.Number = repository.FormatTicketNumber(s.prefix, ticket.CreatedAt.Year(), ticket.ID)

	copied := *ticket
	s.tickets[ticket.ID] = &copied
	return nil
}

func (r *memTicketRepo) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *memTicketRepo) GetByNumberAndEmail(_ context.Context, number, email string) (*domain.Ticket, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ticket := range s.tickets {
		if ticket.Number == number && strings.EqualFold(ticket.Email, email) {
			copied := *ticket
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Status = ticket.Status
	stored.Priority = ticket.Priority
	stored.Assignee = ticket.Assignee
	stored.UpdatedAt = s.tick()
	ticket.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *memTicketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []domain.Ticket
	for _, ticket := range s.tickets {
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && ticket.Priority != *filter.Priority {
			continue
		}
		if filter.Assignee != nil && (ticket.Assignee == nil || *ticket.Assignee != *filter.Assignee) {
			continue
		}
		if filter.UnreadOnly && !ticket.Unread {
			continue
		}
		if filter.SearchTerm != nil {
			term := strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
			if term != "" &&
				!strings.Contains(strings.ToLower(ticket.Number), term) &&
				!strings.Contains(strings.ToLower(ticket.Email), term) &&
				!strings.Contains(strings.ToLower(ticket.Name), term) {
				continue
			}
		}
		matched = append(matched, *ticket)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})

	total := len(matched)
	offset := filter.Offset
	if offset > total {
		offset = total
	}
	end := offset + filter.Limit
	if filter.Limit <= 0 || end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (r *memTicketRepo) MarkRead(_ context.Context, id int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.Unread = false
	return nil
}

func (r *memTicketRepo) Delete(_ context.Context, id int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(s.replies, id)
	delete(s.tickets, id)
	return nil
}

func (r *memTicketRepo) UnreadCount(_ context.Context) (int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, ticket := range s.tickets {
		if ticket.Unread {
			count++
		}
	}
	return count, nil
}

func (r *memReplyRepo) Append(_ context.Context, reply *domain.Reply, newStatus *domain.TicketStatus) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[reply.TicketID]
	if !ok {
		return pgx.ErrNoRows
	}

	s.nextReplyID++
	reply.ID = s.nextReplyID
	reply.CreatedAt = s.tick()
	s.replies[reply.TicketID] = append(s.replies[reply.TicketID], *reply)

	if newStatus != nil {
		ticket.Status = *newStatus
	}
	ticket.UpdatedAt = s.tick()
	return nil
}

func (r *memReplyRepo) ListByTicket(_ context.Context, ticketID int64, includeInternal bool) ([]domain.Reply, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []domain.Reply
	for _, reply := range s.replies[ticketID] {
		if !includeInternal && reply.IsInternal {
			continue
		}
		result = append(result, reply)
	}
	return result, nil
}

// orphanReplyCount reports reply rows with no owning ticket.
func (s *memStore) orphanReplyCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for ticketID, replies := range s.replies {
		if _, ok := s.tickets[ticketID]; !ok {
			count += len(replies)
		}
	}
	return count
}

// staticArticles is an ArticleSource over a fixed corpus.
type staticArticles struct {
	articles []domain.Article
	err      error
}

func (s *staticArticles) ListPublished(context.Context) ([]domain.Article, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.articles, nil
}
