package superadmin

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore/clinicore/internal/platform/errs"
)

const adminColumns = `id, email, name, password_hash, active, last_login_at,
	last_login_ip, created_at, updated_at`

const activityColumns = `id, admin_id, action, target_id, practice_id, detail, ip, created_at`

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository returns a super-admin Repository backed by Postgres.
func NewPgRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func scanAdmin(row pgx.Row) (*SuperAdmin, error) {
	var a SuperAdmin
	err := row.Scan(
		&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.Active, &a.LastLoginAt,
		&a.LastLoginIP, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NotFound("super-admin not found")
		}
		return nil, errs.Internal("scan super-admin", err)
	}
	return &a, nil
}

func (r *pgRepository) Create(ctx context.Context, a *SuperAdmin) error {
	query := `
		INSERT INTO super_admin (id, email, name, password_hash, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		a.ID, a.Email, a.Name, a.PasswordHash, a.Active,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return errs.Conflict("email already in use")
		}
		return errs.Internal("create super-admin", err)
	}
	return nil
}

func (r *pgRepository) GetByID(ctx context.Context, id uuid.UUID) (*SuperAdmin, error) {
	query := `SELECT ` + adminColumns + ` FROM super_admin WHERE id = $1`
	return scanAdmin(r.pool.QueryRow(ctx, query, id))
}

func (r *pgRepository) GetByEmail(ctx context.Context, email string) (*SuperAdmin, error) {
	query := `SELECT ` + adminColumns + ` FROM super_admin WHERE LOWER(email) = LOWER($1)`
	return scanAdmin(r.pool.QueryRow(ctx, query, email))
}

func (r *pgRepository) StampLastLogin(ctx context.Context, id uuid.UUID, ip string) error {
	query := `UPDATE super_admin SET last_login_at = NOW(), last_login_ip = NULLIF($2, '') WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, id, ip); err != nil {
		return errs.Internal("stamp last login", err)
	}
	return nil
}

type pgActivityRepository struct {
	pool *pgxpool.Pool
}

// NewPgActivityRepository returns an ActivityRepository backed by
// Postgres.
func NewPgActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &pgActivityRepository{pool: pool}
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}

func (r *pgActivityRepository) Append(ctx context.Context, a *Activity) error {
	query := `
		INSERT INTO super_admin_activity (id, admin_id, action, target_id, practice_id, detail, ip)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.pool.QueryRow(ctx, query,
		a.ID, a.AdminID, a.Action, a.TargetID, a.PracticeID, a.Detail, a.IP,
	).Scan(&a.CreatedAt)
	if err != nil {
		return errs.Internal("append activity", err)
	}
	return nil
}

func (r *pgActivityRepository) List(ctx context.Context, filter ActivityFilter, limit, offset int) ([]*Activity, int, error) {
	where := ""
	args := []interface{}{}
	argn := 0
	if filter.AdminID != uuid.Nil {
		argn++
		where += fmt.Sprintf(" AND admin_id = $%d", argn)
		args = append(args, filter.AdminID)
	}
	if filter.PracticeID != uuid.Nil {
		argn++
		where += fmt.Sprintf(" AND practice_id = $%d", argn)
		args = append(args, filter.PracticeID)
	}
	if filter.Action != "" {
		argn++
		where += fmt.Sprintf(" AND action = $%d", argn)
		args = append(args, filter.Action)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM super_admin_activity WHERE 1=1` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		// A deployment that has never written activity may not have the
		// table yet. Readers see an empty log, not an error.
		if isUndefinedTable(err) {
			return []*Activity{}, 0, nil
		}
		return nil, 0, errs.Internal("count activity", err)
	}

	query := `SELECT ` + activityColumns + ` FROM super_admin_activity WHERE 1=1` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argn+1, argn+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		if isUndefinedTable(err) {
			return []*Activity{}, 0, nil
		}
		return nil, 0, errs.Internal("list activity", err)
	}
	defer rows.Close()

	entries := make([]*Activity, 0)
	for rows.Next() {
		var a Activity
		err := rows.Scan(&a.ID, &a.AdminID, &a.Action, &a.TargetID, &a.PracticeID, &a.Detail, &a.IP, &a.CreatedAt)
		if err != nil {
			return nil, 0, errs.Internal("scan activity", err)
		}
		entries = append(entries, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errs.Internal("list activity", err)
	}
	return entries, total, nil
}
