package practice

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/internal/platform/errs"
)

// Service manages practices and their staff, and authenticates tenant
// logins.
type Service struct {
	repo                 Repository
	users                UserRepository
	issuer               *auth.TokenIssuer
	logger               zerolog.Logger
	allowLegacyPasswords bool
}

func NewService(repo Repository, users UserRepository, issuer *auth.TokenIssuer, allowLegacyPasswords bool, logger zerolog.Logger) *Service {
	return &Service{
		repo:                 repo,
		users:                users,
		issuer:               issuer,
		logger:               logger,
		allowLegacyPasswords: allowLegacyPasswords,
	}
}

// CreatePracticeInput describes a new tenant.
type CreatePracticeInput struct {
	Name                  string     `json:"name"`
	SubscriptionPlan      string     `json:"subscription_plan"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at"`
	MaxUsers              int        `json:"max_users"`
}

// CreatePractice provisions a new, active tenant.
func (s *Service) CreatePractice(ctx context.Context, in CreatePracticeInput) (*Practice, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, errs.Invalid("practice name is required")
	}
	if in.SubscriptionPlan == "" {
		in.SubscriptionPlan = PlanBasic
	}
	if !ValidPlan(in.SubscriptionPlan) {
		return nil, errs.Invalid("unknown subscription plan")
	}
	if in.MaxUsers <= 0 {
		in.MaxUsers = defaultMaxUsers
	}

	p := &Practice{
		ID:                    uuid.New(),
		Name:                  in.Name,
		Active:                true,
		SubscriptionPlan:      in.SubscriptionPlan,
		SubscriptionExpiresAt: in.SubscriptionExpiresAt,
		MaxUsers:              in.MaxUsers,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("practice_id", p.ID.String()).
		Str("plan", p.SubscriptionPlan).
		Msg("Practice created")
	return p, nil
}

func (s *Service) GetPractice(ctx context.Context, id uuid.UUID) (*Practice, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListPractices(ctx context.Context, limit, offset int) ([]*Practice, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// UpdateSubscription changes the plan, expiry and seat limit of a
// practice.
func (s *Service) UpdateSubscription(ctx context.Context, id uuid.UUID, plan string, expiresAt *time.Time, maxUsers int) (*Practice, error) {
	if !ValidPlan(plan) {
		return nil, errs.Invalid("unknown subscription plan")
	}
	if maxUsers <= 0 {
		return nil, errs.Invalid("max_users must be positive")
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.SubscriptionPlan = plan
	p.SubscriptionExpiresAt = expiresAt
	p.MaxUsers = maxUsers
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// SetActive switches the whole tenant on or off. A deactivated practice
// rejects every login until it is reactivated.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) (*Practice, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Active = active
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("practice_id", p.ID.String()).
		Bool("active", active).
		Msg("Practice active flag changed")
	return p, nil
}

// CreateUserInput describes a new staff member.
type CreateUserInput struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// CreateUser adds a staff member to a practice, enforcing the seat limit
// from the subscription.
func (s *Service) CreateUser(ctx context.Context, practiceID uuid.UUID, in CreateUserInput) (*User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, errs.Invalid("a valid email is required")
	}
	if in.Name == "" {
		return nil, errs.Invalid("name is required")
	}
	if in.Role == "" {
		in.Role = auth.RoleUser
	}
	if in.Role != auth.RoleUser && in.Role != auth.RolePracticeAdmin {
		return nil, errs.Invalid("unknown role")
	}

	p, err := s.repo.GetByID(ctx, practiceID)
	if err != nil {
		return nil, err
	}
	count, err := s.users.CountByPractice(ctx, practiceID)
	if err != nil {
		return nil, err
	}
	if count >= p.MaxUsers {
		return nil, errs.Conflict("practice has reached its user limit")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           uuid.New(),
		PracticeID:   practiceID,
		Email:        in.Email,
		Name:         in.Name,
		Role:         in.Role,
		PasswordHash: hash,
		Active:       true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", u.ID.String()).
		Str("practice_id", practiceID.String()).
		Str("role", u.Role).
		Msg("Practice user created")
	return u, nil
}

func (s *Service) ListUsers(ctx context.Context, practiceID uuid.UUID, limit, offset int) ([]*User, int, error) {
	return s.users.ListByPractice(ctx, practiceID, limit, offset)
}

// LoginResult is what a successful tenant login returns.
type LoginResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Login authenticates a practice user and issues a tenant token. Every
// failure mode returns the same unauthorized error so that callers cannot
// probe which emails exist.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	invalid := errs.Unauthorized("invalid credentials")

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, invalid
		}
		return nil, err
	}
	if !u.Active {
		return nil, invalid
	}
	if !auth.VerifyPassword(u.PasswordHash, password, s.allowLegacyPasswords) {
		return nil, invalid
	}

	p, err := s.repo.GetByID(ctx, u.PracticeID)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, invalid
		}
		return nil, err
	}
	if !p.Active {
		return nil, invalid
	}

	token, err := s.issuer.IssueTenantToken(u.ID, u.PracticeID, u.Role)
	if err != nil {
		return nil, errs.Internal("issue token", err)
	}

	if err := s.users.StampLastLogin(ctx, u.ID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", u.ID.String()).Msg("Failed to stamp last login")
	}

	s.logger.Info().
		Str("user_id", u.ID.String()).
		Str("practice_id", u.PracticeID.String()).
		Msg("User logged in")
	return &LoginResult{Token: token, User: u}, nil
}
