package device

import (
	"time"

	"github.com/google/uuid"
)

// Device lifecycle statuses. A new registration starts PENDING; approval
// and revocation move it between APPROVED and REVOKED. There are no other
// states.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRevoked  = "REVOKED"
)

// Device kinds accepted at registration time.
const (
	TypeDesktop = "desktop"
	TypeMobile  = "mobile"
	TypeTablet  = "tablet"
)

// Device is a browser or machine bound to a practice by its fingerprint.
// Fingerprints are globally unique: one device belongs to at most one
// practice for its whole life.
type Device struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	PracticeID       uuid.UUID  `db:"practice_id" json:"practice_id"`
	Fingerprint      string     `db:"fingerprint" json:"fingerprint"`
	Name             string     `db:"name" json:"name"`
	Type             string     `db:"type" json:"type"`
	Status           string     `db:"status" json:"status"`
	ApprovedByID     *uuid.UUID `db:"approved_by_id" json:"approved_by_id,omitempty"`
	ApprovedAt       *time.Time `db:"approved_at" json:"approved_at,omitempty"`
	RevokedReason    *string    `db:"revoked_reason" json:"revoked_reason,omitempty"`
	RevokedAt        *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	LastUsedAt       *time.Time `db:"last_used_at" json:"last_used_at,omitempty"`
	LastUsedByUserID *uuid.UUID `db:"last_used_by_user_id" json:"last_used_by_user_id,omitempty"`
	LastSeenIP       *string    `db:"last_seen_ip" json:"last_seen_ip,omitempty"`
	UserAgent        *string    `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// IsApproved reports whether the device may access the practice.
func (d *Device) IsApproved() bool {
	return d.Status == StatusApproved
}

// ValidType reports whether t is a known device type.
func ValidType(t string) bool {
	switch t {
	case TypeDesktop, TypeMobile, TypeTablet:
		return true
	}
	return false
}
