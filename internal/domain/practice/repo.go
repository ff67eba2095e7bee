package practice

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists practices.
type Repository interface {
	Create(ctx context.Context, p *Practice) error
	GetByID(ctx context.Context, id uuid.UUID) (*Practice, error)
	List(ctx context.Context, limit, offset int) ([]*Practice, int, error)
	Update(ctx context.Context, p *Practice) error
}

// UserRepository persists practice users.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListByPractice(ctx context.Context, practiceID uuid.UUID, limit, offset int) ([]*User, int, error)
	CountByPractice(ctx context.Context, practiceID uuid.UUID) (int, error)
	Update(ctx context.Context, u *User) error
	StampLastLogin(ctx context.Context, id uuid.UUID) error
}
