package practice

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore/clinicore/internal/platform/errs"
)

const practiceColumns = `id, name, active, subscription_plan,
	subscription_expires_at, max_users, created_at, updated_at`

const userColumns = `id, practice_id, email, name, role, password_hash,
	active, last_login_at, created_at, updated_at`

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository returns a practice Repository backed by Postgres.
func NewPgRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func scanPractice(row pgx.Row) (*Practice, error) {
	var p Practice
	err := row.Scan(
		&p.ID, &p.Name, &p.Active, &p.SubscriptionPlan,
		&p.SubscriptionExpiresAt, &p.MaxUsers, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NotFound("practice not found")
		}
		return nil, errs.Internal("scan practice", err)
	}
	return &p, nil
}

func (r *pgRepository) Create(ctx context.Context, p *Practice) error {
	query := `
		INSERT INTO practice (id, name, active, subscription_plan, subscription_expires_at, max_users)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		p.ID, p.Name, p.Active, p.SubscriptionPlan, p.SubscriptionExpiresAt, p.MaxUsers,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return errs.Internal("create practice", err)
	}
	return nil
}

func (r *pgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Practice, error) {
	query := `SELECT ` + practiceColumns + ` FROM practice WHERE id = $1`
	return scanPractice(r.pool.QueryRow(ctx, query, id))
}

func (r *pgRepository) List(ctx context.Context, limit, offset int) ([]*Practice, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM practice`).Scan(&total); err != nil {
		return nil, 0, errs.Internal("count practices", err)
	}

	query := `SELECT ` + practiceColumns + ` FROM practice
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, errs.Internal("list practices", err)
	}
	defer rows.Close()

	practices := make([]*Practice, 0)
	for rows.Next() {
		p, err := scanPractice(rows)
		if err != nil {
			return nil, 0, err
		}
		practices = append(practices, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errs.Internal("list practices", err)
	}
	return practices, total, nil
}

func (r *pgRepository) Update(ctx context.Context, p *Practice) error {
	query := `
		UPDATE practice SET
			name = $2, active = $3, subscription_plan = $4,
			subscription_expires_at = $5, max_users = $6,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		p.ID, p.Name, p.Active, p.SubscriptionPlan, p.SubscriptionExpiresAt, p.MaxUsers,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.NotFound("practice not found")
		}
		return errs.Internal("update practice", err)
	}
	return nil
}

type pgUserRepository struct {
	pool *pgxpool.Pool
}

// NewPgUserRepository returns a UserRepository backed by Postgres.
func NewPgUserRepository(pool *pgxpool.Pool) UserRepository {
	return &pgUserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.PracticeID, &u.Email, &u.Name, &u.Role, &u.PasswordHash,
		&u.Active, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NotFound("user not found")
		}
		return nil, errs.Internal("scan user", err)
	}
	return &u, nil
}

func (r *pgUserRepository) Create(ctx context.Context, u *User) error {
	query := `
		INSERT INTO practice_user (id, practice_id, email, name, role, password_hash, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		u.ID, u.PracticeID, u.Email, u.Name, u.Role, u.PasswordHash, u.Active,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return errs.Conflict("email already in use")
		}
		return errs.Internal("create user", err)
	}
	return nil
}

func (r *pgUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM practice_user WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *pgUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM practice_user WHERE LOWER(email) = LOWER($1)`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *pgUserRepository) ListByPractice(ctx context.Context, practiceID uuid.UUID, limit, offset int) ([]*User, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM practice_user WHERE practice_id = $1`
	if err := r.pool.QueryRow(ctx, countQuery, practiceID).Scan(&total); err != nil {
		return nil, 0, errs.Internal("count users", err)
	}

	query := `SELECT ` + userColumns + ` FROM practice_user
		WHERE practice_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, practiceID, limit, offset)
	if err != nil {
		return nil, 0, errs.Internal("list users", err)
	}
	defer rows.Close()

	users := make([]*User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errs.Internal("list users", err)
	}
	return users, total, nil
}

func (r *pgUserRepository) CountByPractice(ctx context.Context, practiceID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM practice_user WHERE practice_id = $1`
	if err := r.pool.QueryRow(ctx, query, practiceID).Scan(&count); err != nil {
		return 0, errs.Internal("count users", err)
	}
	return count, nil
}

func (r *pgUserRepository) Update(ctx context.Context, u *User) error {
	query := `
		UPDATE practice_user SET
			email = $2, name = $3, role = $4, password_hash = $5, active = $6,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		u.ID, u.Email, u.Name, u.Role, u.PasswordHash, u.Active,
	).Scan(&u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.NotFound("user not found")
		}
		return errs.Internal("update user", err)
	}
	return nil
}

func (r *pgUserRepository) StampLastLogin(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE practice_user SET last_login_at = NOW() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return errs.Internal("stamp last login", err)
	}
	return nil
}
