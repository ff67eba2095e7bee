package device

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists devices for the registry and the access gate.
type Repository interface {
	Create(ctx context.Context, d *Device) error
	GetByID(ctx context.Context, id uuid.UUID) (*Device, error)
	GetByFingerprint(ctx context.Context, fingerprint string) (*Device, error)
	// GetApproved returns the device only when it is APPROVED and belongs to
	// the given practice.
	GetApproved(ctx context.Context, practiceID uuid.UUID, fingerprint string) (*Device, error)
	ListByPractice(ctx context.Context, practiceID uuid.UUID, limit, offset int) ([]*Device, int, error)
	Update(ctx context.Context, d *Device) error
	TouchLastUsed(ctx context.Context, fingerprint string, userID uuid.UUID, ip string) error
	Delete(ctx context.Context, id uuid.UUID) error
}
