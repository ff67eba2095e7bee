package device

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore/clinicore/internal/platform/errs"
)

const deviceColumns = `id, practice_id, fingerprint, name, type, status,
	approved_by_id, approved_at, revoked_reason, revoked_at,
	last_used_at, last_used_by_user_id, last_seen_ip, user_agent,
	created_at, updated_at`

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository returns a Repository backed by Postgres.
func NewPgRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func scanDevice(row pgx.Row) (*Device, error) {
	var d Device
	err := row.Scan(
		&d.ID, &d.PracticeID, &d.Fingerprint, &d.Name, &d.Type, &d.Status,
		&d.ApprovedByID, &d.ApprovedAt, &d.RevokedReason, &d.RevokedAt,
		&d.LastUsedAt, &d.LastUsedByUserID, &d.LastSeenIP, &d.UserAgent,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NotFound("device not found")
		}
		return nil, errs.Internal("scan device", err)
	}
	return &d, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *pgRepository) Create(ctx context.Context, d *Device) error {
	query := `
		INSERT INTO device (id, practice_id, fingerprint, name, type, status, last_seen_ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		d.ID, d.PracticeID, d.Fingerprint, d.Name, d.Type, d.Status,
		d.LastSeenIP, d.UserAgent,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return errs.Conflict("device fingerprint already registered")
		}
		return errs.Internal("create device", err)
	}
	return nil
}

func (r *pgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM device WHERE id = $1`
	return scanDevice(r.pool.QueryRow(ctx, query, id))
}

func (r *pgRepository) GetByFingerprint(ctx context.Context, fingerprint string) (*Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM device WHERE fingerprint = $1`
	return scanDevice(r.pool.QueryRow(ctx, query, fingerprint))
}

func (r *pgRepository) GetApproved(ctx context.Context, practiceID uuid.UUID, fingerprint string) (*Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM device
		WHERE practice_id = $1 AND fingerprint = $2 AND status = $3`
	return scanDevice(r.pool.QueryRow(ctx, query, practiceID, fingerprint, StatusApproved))
}

func (r *pgRepository) ListByPractice(ctx context.Context, practiceID uuid.UUID, limit, offset int) ([]*Device, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM device WHERE practice_id = $1`
	if err := r.pool.QueryRow(ctx, countQuery, practiceID).Scan(&total); err != nil {
		return nil, 0, errs.Internal("count devices", err)
	}

	query := `SELECT ` + deviceColumns + ` FROM device
		WHERE practice_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, practiceID, limit, offset)
	if err != nil {
		return nil, 0, errs.Internal("list devices", err)
	}
	defer rows.Close()

	devices := make([]*Device, 0)
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, 0, err
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errs.Internal("list devices", err)
	}
	return devices, total, nil
}

func (r *pgRepository) Update(ctx context.Context, d *Device) error {
	query := `
		UPDATE device SET
			name = $2, type = $3, status = $4,
			approved_by_id = $5, approved_at = $6,
			revoked_reason = $7, revoked_at = $8,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		d.ID, d.Name, d.Type, d.Status,
		d.ApprovedByID, d.ApprovedAt, d.RevokedReason, d.RevokedAt,
	).Scan(&d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.NotFound("device not found")
		}
		return errs.Internal("update device", err)
	}
	return nil
}

func (r *pgRepository) TouchLastUsed(ctx context.Context, fingerprint string, userID uuid.UUID, ip string) error {
	query := `
		UPDATE device SET
			last_used_at = NOW(),
			last_used_by_user_id = $2,
			last_seen_ip = COALESCE(NULLIF($3, ''), last_seen_ip)
		WHERE fingerprint = $1`

	if _, err := r.pool.Exec(ctx, query, fingerprint, userID, ip); err != nil {
		return errs.Internal("touch device", err)
	}
	return nil
}

func (r *pgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM device WHERE id = $1`, id)
	if err != nil {
		return errs.Internal("delete device", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound("device not found")
	}
	return nil
}
