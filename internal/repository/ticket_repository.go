package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

const ticketColumns = `id, external_key, title, category, status, priority, requester_id, requester_name,
       requester_department, created_by, estimated_minutes, actual_minutes, created_at, updated_at,
       closed_at, validated_at, validated_by, resolved_at, version`

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket, created domain.TicketHistoryEvent) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
        INSERT INTO tickets (id, external_key, title, category, status, priority, requester_id, requester_name,
            requester_department, created_by, estimated_minutes, actual_minutes, created_at, updated_at, version)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,1)`
		if _, err := tx.Exec(ctx, query,
			ticket.ID,
			ticket.ExternalKey,
			ticket.Title,
			ticket.Category,
			ticket.Status,
			ticket.Priority,
			ticket.RequesterID,
			ticket.RequesterName,
			ticket.RequesterDepartment,
			ticket.CreatedBy,
			ticket.EstimatedMinutes,
			ticket.ActualMinutes,
			ticket.CreatedAt,
			ticket.UpdatedAt,
		); err != nil {
			return err
		}
		ticket.Version = 1
		events := []domain.TicketHistoryEvent{created}
		if err := appendHistory(ctx, tx, ticket.ID, events); err != nil {
			return err
		}
		return nil
	})
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return ticket, err
}

func (r *ticketRepository) GetAssignment(ctx context.Context, ticketID string) (*domain.Assignment, error) {
	const query = `SELECT user_id, is_lead FROM ticket_assignees WHERE ticket_id=$1 ORDER BY user_id`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignment := &domain.Assignment{TicketID: ticketID}
	for rows.Next() {
		var member domain.Assignee
		if err := rows.Scan(&member.UserID, &member.IsLead); err != nil {
			return nil, err
		}
		assignment.Members = append(assignment.Members, member)
	}
	return assignment, rows.Err()
}

func (r *ticketRepository) Apply(ctx context.Context, m *TicketMutation) error {
	t := m.Ticket
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
        UPDATE tickets SET title=$1, category=$2, status=$3, priority=$4, estimated_minutes=$5,
            actual_minutes=$6, updated_at=$7, closed_at=$8, validated_at=$9, validated_by=$10,
            resolved_at=$11, version=version+1
        WHERE id=$12 AND version=$13
        RETURNING version`
		var version int64
		err := tx.QueryRow(ctx, query,
			t.Title,
			t.Category,
			t.Status,
			t.Priority,
			t.EstimatedMinutes,
			t.ActualMinutes,
			t.UpdatedAt,
			t.ClosedAt,
			t.ValidatedAt,
			t.ValidatedBy,
			t.ResolvedAt,
			t.ID,
			m.ExpectedVersion,
		).Scan(&version)
		if errors.Is(err, pgx.ErrNoRows) {
			return r.missOrConflict(ctx, tx, t.ID)
		}
		if err != nil {
			return err
		}

		if m.Assignment != nil {
			if err := replaceAssignees(ctx, tx, t.ID, m.Assignment); err != nil {
				return err
			}
		}
		if m.TimeEntry != nil {
			if err := insertTimeEntry(ctx, tx, m.TimeEntry); err != nil {
				return err
			}
		}
		if err := appendHistory(ctx, tx, t.ID, m.Events); err != nil {
			return err
		}
		t.Version = version
		return nil
	})
}

func (r *ticketRepository) Delete(ctx context.Context, id string, expectedVersion int64) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `DELETE FROM tickets WHERE id=$1 AND version=$2`, id, expectedVersion)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return r.missOrConflict(ctx, tx, id)
		}
		return nil
	})
}

func (r *ticketRepository) missOrConflict(ctx context.Context, tx pgx.Tx, id string) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrVersionConflict
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("id IN (SELECT ticket_id FROM ticket_assignees WHERE user_id=$%d)", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, max(filter.Offset, 0))
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		ticketColumns, strings.Join(clauses, " AND "), len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTickets(rows)
}

func replaceAssignees(ctx context.Context, tx pgx.Tx, ticketID string, assignment *domain.Assignment) error {
	if _, err := tx.Exec(ctx, `DELETE FROM ticket_assignees WHERE ticket_id=$1`, ticketID); err != nil {
		return err
	}
	if assignment.IsEmpty() {
		return nil
	}
	rows := make([][]any, 0, len(assignment.Members))
	for _, m := range assignment.Members {
		rows = append(rows, []any{ticketID, m.UserID, m.IsLead})
	}
	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"ticket_assignees"},
		[]string{"ticket_id", "user_id", "is_lead"},
		pgx.CopyFromRows(rows),
	)
	return err
}

// appendHistory assigns per-ticket sequence numbers under the ticket row lock
// held by the surrounding transaction.
func appendHistory(ctx context.Context, tx pgx.Tx, ticketID string, events []domain.TicketHistoryEvent) error {
	if len(events) == 0 {
		return nil
	}
	var seq int64
	if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(seq), 0) FROM ticket_history WHERE ticket_id=$1`, ticketID).Scan(&seq); err != nil {
		return err
	}
	const query = `
        INSERT INTO ticket_history (id, ticket_id, seq, actor_id, action, transition_trigger, field_name, old_value, new_value, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	batch := &pgx.Batch{}
	for i := range events {
		seq++
		events[i].Seq = seq
		e := events[i]
		batch.Queue(query, e.ID, ticketID, e.Seq, e.ActorID, e.Action, e.Trigger, e.FieldName, e.OldValue, e.NewValue, e.Timestamp)
	}
	return tx.SendBatch(ctx, batch).Close()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.ExternalKey,
		&ticket.Title,
		&ticket.Category,
		&ticket.Status,
		&ticket.Priority,
		&ticket.RequesterID,
		&ticket.RequesterName,
		&ticket.RequesterDepartment,
		&ticket.CreatedBy,
		&ticket.EstimatedMinutes,
		&ticket.ActualMinutes,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ClosedAt,
		&ticket.ValidatedAt,
		&ticket.ValidatedBy,
		&ticket.ResolvedAt,
		&ticket.Version,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func collectTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
