package practice

import (
	"time"

	"github.com/google/uuid"
)

// Subscription plans. The plan names are stable identifiers stored on the
// practice row; pricing and feature gating live outside this service.
const (
	PlanBasic        = "BASIC"
	PlanProfessional = "PROFESSIONAL"
	PlanEnterprise   = "ENTERPRISE"
)

const defaultMaxUsers = 5

// Practice is one tenant of the platform. Every user, device and clinical
// record hangs off a practice row, and deactivating the practice locks all
// of them out at once.
type Practice struct {
	ID                    uuid.UUID  `db:"id" json:"id"`
	Name                  string     `db:"name" json:"name"`
	Active                bool       `db:"active" json:"active"`
	SubscriptionPlan      string     `db:"subscription_plan" json:"subscription_plan"`
	SubscriptionExpiresAt *time.Time `db:"subscription_expires_at" json:"subscription_expires_at,omitempty"`
	MaxUsers              int        `db:"max_users" json:"max_users"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

// ValidPlan reports whether plan is a known subscription plan.
func ValidPlan(plan string) bool {
	switch plan {
	case PlanBasic, PlanProfessional, PlanEnterprise:
		return true
	}
	return false
}

// User is a staff member of a practice. Emails are unique across the whole
// platform so that login needs no practice hint.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	PracticeID   uuid.UUID  `db:"practice_id" json:"practice_id"`
	Email        string     `db:"email" json:"email"`
	Name         string     `db:"name" json:"name"`
	Role         string     `db:"role" json:"role"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Active       bool       `db:"active" json:"active"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}
