package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

type directoryRepository struct {
	pool *pgxpool.Pool
}

// NewDirectoryRepository builds the repository.
func NewDirectoryRepository(pool *pgxpool.Pool) DirectoryRepository {
	return &directoryRepository{pool: pool}
}

func (r *directoryRepository) GetDepartment(ctx context.Context, userID string) (*domain.Department, error) {
	const query = `
        SELECT d.id, d.name, d.is_it_department, f.id, f.name, f.is_software_provider
        FROM members m
        JOIN departments d ON d.id = m.department_id
        JOIN filiales f ON f.id = d.filiale_id
        WHERE m.user_id=$1`
	var dept domain.Department
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&dept.ID,
		&dept.Name,
		&dept.IsITDepartment,
		&dept.Filiale.ID,
		&dept.Filiale.Name,
		&dept.Filiale.IsSoftwareProvider,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *directoryRepository) ListMembers(ctx context.Context, departmentID *string) ([]domain.Member, error) {
	const query = `
        SELECT user_id, name, COALESCE(department_id, '')
        FROM members
        WHERE $1::text IS NULL OR department_id = $1
        ORDER BY name, user_id`
	rows, err := r.pool.Query(ctx, query, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Member
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.UserID, &m.Name, &m.DepartmentID); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (r *directoryRepository) UserExists(ctx context.Context, userID string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM members WHERE user_id=$1)`, userID).Scan(&ok)
	return ok, err
}

func (r *directoryRepository) UpsertFiliale(ctx context.Context, filiale domain.Filiale) error {
	const query = `
        INSERT INTO filiales (id, name, is_software_provider) VALUES ($1,$2,$3)
        ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, is_software_provider=EXCLUDED.is_software_provider`
	_, err := r.pool.Exec(ctx, query, filiale.ID, filiale.Name, filiale.IsSoftwareProvider)
	return err
}

func (r *directoryRepository) UpsertDepartment(ctx context.Context, dept domain.Department) error {
	const query = `
        INSERT INTO departments (id, name, is_it_department, filiale_id) VALUES ($1,$2,$3,$4)
        ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, is_it_department=EXCLUDED.is_it_department,
            filiale_id=EXCLUDED.filiale_id`
	_, err := r.pool.Exec(ctx, query, dept.ID, dept.Name, dept.IsITDepartment, dept.Filiale.ID)
	return err
}

func (r *directoryRepository) UpsertMember(ctx context.Context, member domain.Member) error {
	const query = `
        INSERT INTO members (user_id, name, department_id) VALUES ($1,$2,NULLIF($3,''))
        ON CONFLICT (user_id) DO UPDATE SET name=EXCLUDED.name, department_id=EXCLUDED.department_id`
	_, err := r.pool.Exec(ctx, query, member.UserID, member.Name, member.DepartmentID)
	return err
}
