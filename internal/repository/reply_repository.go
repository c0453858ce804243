package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dansonhar/QBOTU-System-Support-sub000/internal/domain"
)

// ReplyRepository manages ticket thread messages.
type ReplyRepository interface {
	// Append inserts the reply and refreshes the ticket's updated_at in one
	// transaction. When newStatus is non-nil the ticket's status changes in
	// the same transaction, so no reader sees the reply without the
	// transition that accompanied it.
	Append(ctx context.Context, reply *domain.Reply, newStatus *domain.TicketStatus) error
	ListByTicket(ctx context.Context, ticketID int64, includeInternal bool) ([]domain.Reply, error)
}

type replyRepository struct {
	pool *pgxpool.Pool
}

// NewReplyRepository builds repository.
func NewReplyRepository(pool *pgxpool.Pool) ReplyRepository {
	return &replyRepository{pool: pool}
}

func (r *replyRepository) Append(ctx context.Context, reply *domain.Reply, newStatus *domain.TicketStatus) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// created_at via clock_timestamp() so two replies appended in the same
	// request remain distinguishably ordered.
	const insert = `
        INSERT INTO ticket_replies (ticket_id, sender, body, is_internal, created_at)
        VALUES ($1,$2,$3,$4,clock_timestamp())
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, insert,
		reply.TicketID,
		reply.Sender,
		reply.Body,
		reply.IsInternal,
	).Scan(&reply.ID, &reply.CreatedAt); err != nil {
		return err
	}

	var cmd pgconn.CommandTag
	if newStatus != nil {
		cmd, err = tx.Exec(ctx, `UPDATE tickets SET status=$1, updated_at=NOW() WHERE id=$2`, *newStatus, reply.TicketID)
	} else {
		cmd, err = tx.Exec(ctx, `UPDATE tickets SET updated_at=NOW() WHERE id=$1`, reply.TicketID)
	}
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return tx.Commit(ctx)
}

func (r *replyRepository) ListByTicket(ctx context.Context, ticketID int64, includeInternal bool) ([]domain.Reply, error) {
	query := `
        SELECT id, ticket_id, sender, body, is_internal, created_at
        FROM ticket_replies WHERE ticket_id=$1`
	if !includeInternal {
		query += ` AND NOT is_internal`
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Reply
	for rows.Next() {
		var reply domain.Reply
		if err := rows.Scan(
			&reply.ID,
			&reply.TicketID,
			&reply.Sender,
			&reply.Body,
			&reply.IsInternal,
			&reply.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, reply)
	}
	return result, rows.Err()
}
