package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/domain"
)

// TicketFilter captures agent console search parameters.
type TicketFilter struct {
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
	Assignee   *string
	SearchTerm *string
	UnreadOnly bool
	Limit      int
	Offset     int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	GetByNumberAndEmail(ctx context.Context, number, email string) (*domain.Ticket, error)
	Update(ctx context.Context, ticket *domain.Ticket) error
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error)
	MarkRead(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	UnreadCount(ctx context.Context) (int, error)
}

type ticketRepository struct {
	pool   *pgxpool.Pool
	prefix string
}

// NewTicketRepository instantiates repository. prefix is the leading segment
// of generated ticket numbers.
func NewTicketRepository(pool *pgxpool.Pool, prefix string) TicketRepository {
	return &ticketRepository{pool: pool, prefix: prefix}
}

// FormatTicketNumber renders the human-readable ticket number from the
// creation year and the store-assigned identifier.
func FormatTicketNumber(prefix string, year int, id int64) string {
	return fmt.Sprintf("%s-%d-%06d", prefix, year, id)
}

// Create inserts the ticket and assigns its number in two steps inside one
// transaction: the number depends on the identifier the database generates,
// so the row is first written with a unique placeholder and then updated to
// the final format. No reader can observe the placeholder because both
// writes commit together.
func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	placeholder := "PENDING-" + uuid.NewString()
	const insert = `
        INSERT INTO tickets (number, name, email, topic, status, priority, assignee, is_unread)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, insert,
		placeholder,
		ticket.Name,
		ticket.Email,
		ticket.Topic,
		ticket.Status,
		ticket.Priority,
		ticket.Assignee,
		ticket.Unread,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt); err != nil {
		return err
	}

	ticket.Number = FormatTicketNumber(r.prefix, ticket.CreatedAt.Year(), ticket.ID)
	if _, err := tx.Exec(ctx, `UPDATE tickets SET number=$1 WHERE id=$2`, ticket.Number, ticket.ID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	const query = `
        SELECT id, number, name, email, topic, status, priority, assignee, is_unread, created_at, updated_at
        FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

// GetByNumberAndEmail resolves the (number, email) pair that customer
// endpoints use as their only credential. Email matches case-insensitively.
func (r *ticketRepository) GetByNumberAndEmail(ctx context.Context, number, email string) (*domain.Ticket, error) {
	const query = `
        SELECT id, number, name, email, topic, status, priority, assignee, is_unread, created_at, updated_at
        FROM tickets WHERE number=$1 AND LOWER(email)=LOWER($2)`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, number, email).Scan(
		&ticket.ID,
		&ticket.Number,
		&ticket.Name,
		&ticket.Email,
		&ticket.Topic,
		&ticket.Status,
		&ticket.Priority,
		&ticket.Assignee,
		&ticket.Unread,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&ticket.ID,
		&ticket.Number,
		&ticket.Name,
		&ticket.Email,
		&ticket.Topic,
		&ticket.Status,
		&ticket.Priority,
		&ticket.Assignee,
		&ticket.Unread,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// Update persists the mutable fields (status, priority, assignee). Name and
// email are immutable after creation and deliberately absent here.
func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET status=$1, priority=$2, assignee=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`
	if err := r.pool.QueryRow(ctx, query,
		ticket.Status,
		ticket.Priority,
		ticket.Assignee,
		ticket.ID,
	).Scan(&ticket.UpdatedAt); err != nil {
		return err
	}
	return nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("priority=$%d", len(args)))
	}
	if filter.Assignee != nil {
		args = append(args, *filter.Assignee)
		clauses = append(clauses, fmt.Sprintf("assignee=$%d", len(args)))
	}
	if filter.UnreadOnly {
		clauses = append(clauses, "is_unread")
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(number) LIKE %s OR LOWER(email) LIKE %s OR LOWER(name) LIKE %s)", placeholder, placeholder, placeholder))
	}

	where := strings.Join(clauses, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM tickets WHERE %s`, where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`
        SELECT id, number, name, email, topic, status, priority, assignee, is_unread, created_at, updated_at
        FROM tickets WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

func (r *ticketRepository) MarkRead(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE tickets SET is_unread=FALSE WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes the ticket and all of its replies. Replies go first even
// though the FK cascades, so the delete order is explicit in one transaction.
func (r *ticketRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM ticket_replies WHERE ticket_id=$1`, id); err != nil {
		return err
	}
	cmd, err := tx.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return tx.Commit(ctx)
}

// UnreadCount is read straight from the tickets table; it must never be
// served from a cache staler than the last committed write.
func (r *ticketRepository) UnreadCount(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE is_unread`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Number,
			&ticket.Name,
			&ticket.Email,
			&ticket.Topic,
			&ticket.Status,
			&ticket.Priority,
			&ticket.Assignee,
			&ticket.Unread,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
