package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

type timeEntryRepository struct {
	pool *pgxpool.Pool
}

// NewTimeEntryRepository builds the repository.
func NewTimeEntryRepository(pool *pgxpool.Pool) TimeEntryRepository {
	return &timeEntryRepository{pool: pool}
}

func insertTimeEntry(ctx context.Context, tx pgx.Tx, entry *domain.TimeEntry) error {
	const query = `
        INSERT INTO time_entries (id, ticket_id, user_id, minutes_spent, entry_date, validated, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := tx.Exec(ctx, query,
		entry.ID,
		entry.TicketID,
		entry.UserID,
		entry.MinutesSpent,
		entry.Date,
		entry.Validated,
		entry.CreatedAt,
	)
	return err
}

func (r *timeEntryRepository) SumMinutes(ctx context.Context, ticketID string, includeUnvalidated bool) (int, error) {
	const query = `
        SELECT COALESCE(SUM(minutes_spent), 0) FROM time_entries
        WHERE ticket_id=$1 AND ($2 OR validated)`
	var total int
	err := r.pool.QueryRow(ctx, query, ticketID, includeUnvalidated).Scan(&total)
	return total, err
}
