package superadmin

import (
	"time"

	"github.com/google/uuid"
)

// Activity action tags. Every privileged mutation appends exactly one
// activity entry carrying one of these.
const (
	ActionLogin               = "LOGIN"
	ActionCreatePractice      = "CREATE_PRACTICE"
	ActionCreatePracticeAdmin = "CREATE_PRACTICE_ADMIN"
	ActionApproveDevice       = "APPROVE_DEVICE"
	ActionUpdateSubscription  = "UPDATE_SUBSCRIPTION"
	ActionTogglePractice      = "TOGGLE_PRACTICE"
)

// SuperAdmin is a platform operator. Super-admins exist outside every
// practice and authenticate through their own login endpoint.
type SuperAdmin struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	Name         string     `db:"name" json:"name"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Active       bool       `db:"active" json:"active"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	LastLoginIP  *string    `db:"last_login_ip" json:"last_login_ip,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Activity is one append-only audit record of a super-admin action.
// Entries are never updated or deleted. PracticeID carries the practice
// the action touched so the log can be read per tenant; logins have none.
type Activity struct {
	ID         uuid.UUID              `db:"id" json:"id"`
	AdminID    uuid.UUID              `db:"admin_id" json:"admin_id"`
	Action     string                 `db:"action" json:"action"`
	TargetID   *uuid.UUID             `db:"target_id" json:"target_id,omitempty"`
	PracticeID *uuid.UUID             `db:"practice_id" json:"practice_id,omitempty"`
	Detail     map[string]interface{} `db:"detail" json:"detail,omitempty"`
	IP         *string                `db:"ip" json:"ip,omitempty"`
	CreatedAt  time.Time              `db:"created_at" json:"created_at"`
}
