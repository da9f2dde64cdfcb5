package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

type slaRepository struct {
	pool *pgxpool.Pool
}

// NewSLARepository builds the repository.
func NewSLARepository(pool *pgxpool.Pool) SLARepository {
	return &slaRepository{pool: pool}
}

func (r *slaRepository) ListRules(ctx context.Context) ([]domain.SLARule, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, category, target_minutes, unit FROM sla_rules ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRules(rows)
}

func (r *slaRepository) GetRuleByCategory(ctx context.Context, category string) (*domain.SLARule, error) {
	var rule domain.SLARule
	err := r.pool.QueryRow(ctx,
		`SELECT id, category, target_minutes, unit FROM sla_rules WHERE category=$1`, category,
	).Scan(&rule.ID, &rule.Category, &rule.TargetMinutes, &rule.Unit)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *slaRepository) UpsertRule(ctx context.Context, rule *domain.SLARule) error {
	const query = `
        INSERT INTO sla_rules (id, category, target_minutes, unit)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (category) DO UPDATE SET target_minutes=EXCLUDED.target_minutes, unit=EXCLUDED.unit
        RETURNING id`
	return r.pool.QueryRow(ctx, query, rule.ID, rule.Category, rule.TargetMinutes, rule.Unit).Scan(&rule.ID)
}

// Snapshot reads tickets and rules inside one repeatable-read transaction so
// both come from the same database snapshot.
func (r *slaRepository) Snapshot(ctx context.Context, filter ResolvedFilter) (*SLASnapshot, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	snapshot := &SLASnapshot{}
	if err := tx.QueryRow(ctx, `SELECT NOW()`).Scan(&snapshot.AsOf); err != nil {
		return nil, err
	}

	args := []any{domain.TicketStatusResolved, domain.TicketStatusClosed, filter.From, filter.To}
	query := `SELECT ` + ticketColumns + ` FROM tickets
        WHERE status IN ($1,$2)
          AND COALESCE(resolved_at, closed_at) >= $3
          AND COALESCE(resolved_at, closed_at) < $4`
	if filter.Category != nil {
		args = append(args, *filter.Category)
		query += fmt.Sprintf(" AND category=$%d", len(args))
	}
	query += " ORDER BY id"

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	snapshot.Tickets, err = collectTickets(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	ruleRows, err := tx.Query(ctx, `SELECT id, category, target_minutes, unit FROM sla_rules ORDER BY category`)
	if err != nil {
		return nil, err
	}
	snapshot.Rules, err = collectRules(ruleRows)
	ruleRows.Close()
	if err != nil {
		return nil, err
	}

	return snapshot, tx.Commit(ctx)
}

func (r *slaRepository) UpsertViolations(ctx context.Context, violations []domain.SLAViolation) (int, error) {
	if len(violations) == 0 {
		return 0, nil
	}
	const query = `
        INSERT INTO sla_violations (ticket_id, sla_rule_id, category, violation_minutes, violated_at, computed_at)
        VALUES ($1,$2,$3,$4,$5,NOW())
        ON CONFLICT (ticket_id, sla_rule_id) DO UPDATE
        SET violation_minutes=EXCLUDED.violation_minutes, violated_at=EXCLUDED.violated_at,
            category=EXCLUDED.category, computed_at=EXCLUDED.computed_at`
	batch := &pgx.Batch{}
	for _, v := range violations {
		batch.Queue(query, v.TicketID, v.SLARuleID, v.Category, v.ViolationMinutes, v.ViolatedAt)
	}
	var written int
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		results := tx.SendBatch(ctx, batch)
		for range violations {
			cmd, err := results.Exec()
			if err != nil {
				_ = results.Close()
				return err
			}
			written += int(cmd.RowsAffected())
		}
		return results.Close()
	})
	return written, err
}

func (r *slaRepository) ListViolations(ctx context.Context, ticketID string) ([]domain.SLAViolation, error) {
	const query = `
        SELECT ticket_id, sla_rule_id, category, violation_minutes, violated_at
        FROM sla_violations WHERE ticket_id=$1 ORDER BY sla_rule_id`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SLAViolation
	for rows.Next() {
		var v domain.SLAViolation
		if err := rows.Scan(&v.TicketID, &v.SLARuleID, &v.Category, &v.ViolationMinutes, &v.ViolatedAt); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

func collectRules(rows pgx.Rows) ([]domain.SLARule, error) {
	var result []domain.SLARule
	for rows.Next() {
		var rule domain.SLARule
		if err := rows.Scan(&rule.ID, &rule.Category, &rule.TargetMinutes, &rule.Unit); err != nil {
			return nil, err
		}
		result = append(result, rule)
	}
	return result, rows.Err()
}
