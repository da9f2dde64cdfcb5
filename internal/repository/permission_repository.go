package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

type permissionRepository struct {
	pool *pgxpool.Pool
}

// NewPermissionRepository builds the repository.
func NewPermissionRepository(pool *pgxpool.Pool) PermissionRepository {
	return &permissionRepository{pool: pool}
}

func (r *permissionRepository) HasPermission(ctx context.Context, userID string, permission domain.Permission) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM user_permissions WHERE user_id=$1 AND permission=$2)`,
		userID, permission,
	).Scan(&ok)
	return ok, err
}

func (r *permissionRepository) Grant(ctx context.Context, userID string, permission domain.Permission) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_permissions (user_id, permission) VALUES ($1,$2) ON CONFLICT DO NOTHING`,
		userID, permission)
	return err
}
