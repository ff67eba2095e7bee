package superadmin

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists super-admin accounts.
type Repository interface {
	Create(ctx context.Context, a *SuperAdmin) error
	GetByID(ctx context.Context, id uuid.UUID) (*SuperAdmin, error)
	GetByEmail(ctx context.Context, email string) (*SuperAdmin, error)
	StampLastLogin(ctx context.Context, id uuid.UUID, ip string) error
}

// ActivityRepository persists the append-only activity log. There is no
// update or delete on purpose.
type ActivityRepository interface {
	Append(ctx context.Context, a *Activity) error
	List(ctx context.Context, filter ActivityFilter, limit, offset int) ([]*Activity, int, error)
}

// ActivityFilter narrows an activity listing. Zero values match
// everything.
type ActivityFilter struct {
	AdminID    uuid.UUID
	PracticeID uuid.UUID
	Action     string
}
