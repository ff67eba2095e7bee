package superadmin

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/domain/device"
	"github.com/clinicore/clinicore/internal/domain/practice"
	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/internal/platform/errs"
)

// Service implements the platform-operator surface: super-admin login,
// tenant provisioning, subscription management, cross-practice device
// approval and the activity log. Every privileged mutation appends one
// activity entry; a failed append is logged and never fails the
// operation it records.
type Service struct {
	repo      Repository
	activity  ActivityRepository
	practices *practice.Service
	devices   *device.Service
	issuer    *auth.TokenIssuer
	logger    zerolog.Logger

	allowLegacyPasswords bool
}

func NewService(
	repo Repository,
	activity ActivityRepository,
	practices *practice.Service,
	devices *device.Service,
	issuer *auth.TokenIssuer,
	allowLegacyPasswords bool,
	logger zerolog.Logger,
) *Service {
	return &Service{
		repo:                 repo,
		activity:             activity,
		practices:            practices,
		devices:              devices,
		issuer:               issuer,
		allowLegacyPasswords: allowLegacyPasswords,
		logger:               logger,
	}
}

// record appends one activity entry. Failures are surfaced in the log at
// error level and otherwise swallowed: the audit trail is best-effort by
// decision, and a broken log must not take the admin surface down with it.
func (s *Service) record(ctx context.Context, adminID uuid.UUID, action string, targetID, practiceID *uuid.UUID, detail map[string]interface{}, ip string) {
	a := &Activity{
		ID:         uuid.New(),
		AdminID:    adminID,
		Action:     action,
		TargetID:   targetID,
		PracticeID: practiceID,
		Detail:     detail,
	}
	if ip != "" {
		a.IP = &ip
	}
	if err := s.activity.Append(ctx, a); err != nil {
		s.logger.Error().Err(err).
			Str("admin_id", adminID.String()).
			Str("action", action).
			Msg("Failed to append super-admin activity")
	}
}

// CreateAdmin provisions a super-admin account. Used by the CLI seed
// command; there is no HTTP endpoint for it.
func (s *Service) CreateAdmin(ctx context.Context, email, name, password string) (*SuperAdmin, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, errs.Invalid("a valid email is required")
	}
	if name = strings.TrimSpace(name); name == "" {
		name = email
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	a := &SuperAdmin{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Active:       true,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info().Str("admin_id", a.ID.String()).Msg("Super-admin created")
	return a, nil
}

// LoginResult is what a successful super-admin login returns.
type LoginResult struct {
	Token string      `json:"token"`
	Admin *SuperAdmin `json:"admin"`
}

// Login authenticates a super-admin and issues a global token. As with
// tenant login, every failure mode is the same unauthorized error.
func (s *Service) Login(ctx context.Context, email, password, ip string) (*LoginResult, error) {
	invalid := errs.Unauthorized("invalid credentials")

	a, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, invalid
		}
		return nil, err
	}
	if !a.Active {
		return nil, invalid
	}
	if !auth.VerifyPassword(a.PasswordHash, password, s.allowLegacyPasswords) {
		return nil, invalid
	}

	token, err := s.issuer.IssueSuperAdminToken(a.ID)
	if err != nil {
		return nil, errs.Internal("issue token", err)
	}

	if err := s.repo.StampLastLogin(ctx, a.ID, ip); err != nil {
		s.logger.Warn().Err(err).Str("admin_id", a.ID.String()).Msg("Failed to stamp last login")
	}
	s.record(ctx, a.ID, ActionLogin, nil, nil, nil, ip)

	s.logger.Info().Str("admin_id", a.ID.String()).Msg("Super-admin logged in")
	return &LoginResult{Token: token, Admin: a}, nil
}

func (s *Service) ListPractices(ctx context.Context, limit, offset int) ([]*practice.Practice, int, error) {
	return s.practices.ListPractices(ctx, limit, offset)
}

func (s *Service) GetPractice(ctx context.Context, id uuid.UUID) (*practice.Practice, error) {
	return s.practices.GetPractice(ctx, id)
}

// CreatePractice provisions a tenant on behalf of a super-admin.
func (s *Service) CreatePractice(ctx context.Context, adminID uuid.UUID, in practice.CreatePracticeInput, ip string) (*practice.Practice, error) {
	p, err := s.practices.CreatePractice(ctx, in)
	if err != nil {
		return nil, err
	}
	s.record(ctx, adminID, ActionCreatePractice, &p.ID, &p.ID, map[string]interface{}{
		"name": p.Name,
		"plan": p.SubscriptionPlan,
	}, ip)
	return p, nil
}

// CreatePracticeAdmin creates the first admin user of a practice. The
// role is always the practice admin role regardless of the input.
func (s *Service) CreatePracticeAdmin(ctx context.Context, adminID, practiceID uuid.UUID, in practice.CreateUserInput, ip string) (*practice.User, error) {
	in.Role = auth.RolePracticeAdmin
	u, err := s.practices.CreateUser(ctx, practiceID, in)
	if err != nil {
		return nil, err
	}
	s.record(ctx, adminID, ActionCreatePracticeAdmin, &u.ID, &practiceID, map[string]interface{}{
		"email": u.Email,
	}, ip)
	return u, nil
}

// UpdateSubscription changes a tenant's plan, expiry and seat limit.
func (s *Service) UpdateSubscription(ctx context.Context, adminID, practiceID uuid.UUID, plan string, expiresAt *time.Time, maxUsers int, ip string) (*practice.Practice, error) {
	p, err := s.practices.UpdateSubscription(ctx, practiceID, plan, expiresAt, maxUsers)
	if err != nil {
		return nil, err
	}
	s.record(ctx, adminID, ActionUpdateSubscription, &p.ID, &p.ID, map[string]interface{}{
		"plan":      plan,
		"max_users": maxUsers,
	}, ip)
	return p, nil
}

// TogglePractice switches a tenant on or off.
func (s *Service) TogglePractice(ctx context.Context, adminID, practiceID uuid.UUID, active bool, ip string) (*practice.Practice, error) {
	p, err := s.practices.SetActive(ctx, practiceID, active)
	if err != nil {
		return nil, err
	}
	s.record(ctx, adminID, ActionTogglePractice, &p.ID, &p.ID, map[string]interface{}{
		"active": active,
	}, ip)
	return p, nil
}

// ApproveDevice approves a device in any practice, bypassing practice
// ownership.
func (s *Service) ApproveDevice(ctx context.Context, adminID, deviceID uuid.UUID, ip string) (*device.Device, error) {
	d, err := s.devices.ApproveForAdmin(ctx, deviceID, adminID)
	if err != nil {
		return nil, err
	}
	s.record(ctx, adminID, ActionApproveDevice, &d.ID, &d.PracticeID, map[string]interface{}{
		"fingerprint": d.Fingerprint,
	}, ip)
	return d, nil
}

// ListActivity returns activity entries, newest first.
func (s *Service) ListActivity(ctx context.Context, filter ActivityFilter, limit, offset int) ([]*Activity, int, error) {
	return s.activity.List(ctx, filter, limit, offset)
}
