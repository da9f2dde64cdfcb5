package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

type ticketHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewTicketHistoryRepository builds repository.
func NewTicketHistoryRepository(pool *pgxpool.Pool) TicketHistoryRepository {
	return &ticketHistoryRepository{pool: pool}
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistoryEvent, error) {
	const query = `
        SELECT id, ticket_id, seq, actor_id, action, transition_trigger, field_name, old_value, new_value, created_at
        FROM ticket_history WHERE ticket_id=$1 ORDER BY seq ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketHistoryEvent
	for rows.Next() {
		var event domain.TicketHistoryEvent
		if err := rows.Scan(
			&event.ID,
			&event.TicketID,
			&event.Seq,
			&event.ActorID,
			&event.Action,
			&event.Trigger,
			&event.FieldName,
			&event.OldValue,
			&event.NewValue,
			&event.Timestamp,
		); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}
