package device

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/platform/errs"
)

// Service implements the device registry: registration, approval,
// revocation and lookups, always scoped to a single practice.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// RegisterInput carries the self-reported identity of a device asking to
// join a practice.
type RegisterInput struct {
	Fingerprint string `json:"fingerprint"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	IP          string `json:"-"`
	UserAgent   string `json:"-"`
}

func (in *RegisterInput) validate() error {
	in.Fingerprint = strings.TrimSpace(in.Fingerprint)
	in.Name = strings.TrimSpace(in.Name)
	if in.Fingerprint == "" {
		return errs.Invalid("fingerprint is required")
	}
	if in.Name == "" {
		return errs.Invalid("device name is required")
	}
	if in.Type == "" {
		in.Type = TypeDesktop
	}
	if !ValidType(in.Type) {
		return errs.Invalid("unknown device type")
	}
	return nil
}

// Register enrolls a device with a practice in the PENDING state. Calling
// it again for a fingerprint already held by the same practice returns the
// existing record unchanged; a fingerprint held by another practice is a
// conflict, never a transfer.
func (s *Service) Register(ctx context.Context, practiceID uuid.UUID, in RegisterInput) (*Device, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByFingerprint(ctx, in.Fingerprint)
	if err == nil {
		if existing.PracticeID != practiceID {
			return nil, errs.Conflict("device is registered to another practice")
		}
		return existing, nil
	}
	if !errs.IsNotFound(err) {
		return nil, err
	}

	d := &Device{
		ID:          uuid.New(),
		PracticeID:  practiceID,
		Fingerprint: in.Fingerprint,
		Name:        in.Name,
		Type:        in.Type,
		Status:      StatusPending,
	}
	if in.IP != "" {
		d.LastSeenIP = &in.IP
	}
	if in.UserAgent != "" {
		d.UserAgent = &in.UserAgent
	}

	if err := s.repo.Create(ctx, d); err != nil {
		// Lost a race with a concurrent registration for the same
		// fingerprint. Re-read and apply the same ownership rule.
		if errs.IsConflict(err) {
			if winner, gerr := s.repo.GetByFingerprint(ctx, in.Fingerprint); gerr == nil {
				if winner.PracticeID == practiceID {
					return winner, nil
				}
				return nil, errs.Conflict("device is registered to another practice")
			}
		}
		return nil, err
	}

	s.logger.Info().
		Str("device_id", d.ID.String()).
		Str("practice_id", practiceID.String()).
		Str("type", d.Type).
		Msg("Device registered")
	return d, nil
}

// FindByFingerprint returns the device for a practice, regardless of its
// status. Devices owned by other practices are reported as not found.
func (s *Service) FindByFingerprint(ctx context.Context, practiceID uuid.UUID, fingerprint string) (*Device, error) {
	d, err := s.repo.GetByFingerprint(ctx, fingerprint)
	if err != nil {
		return nil, err
	}
	if d.PracticeID != practiceID {
		return nil, errs.NotFound("device not found")
	}
	return d, nil
}

// ListForPractice returns the practice's devices, newest first.
func (s *Service) ListForPractice(ctx context.Context, practiceID uuid.UUID, limit, offset int) ([]*Device, int, error) {
	return s.repo.ListByPractice(ctx, practiceID, limit, offset)
}

// getOwned loads a device and hides it behind not-found when it belongs to
// a different practice. Ownership failures are indistinguishable from
// missing rows on purpose.
func (s *Service) getOwned(ctx context.Context, deviceID, practiceID uuid.UUID) (*Device, error) {
	d, err := s.repo.GetByID(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if d.PracticeID != practiceID {
		return nil, errs.NotFound("device not found")
	}
	return d, nil
}

// Approve grants the device access to its practice. Approving an already
// approved device is a no-op; approving a revoked device reinstates it and
// re-stamps the approver.
func (s *Service) Approve(ctx context.Context, deviceID, practiceID, approverID uuid.UUID) (*Device, error) {
	d, err := s.getOwned(ctx, deviceID, practiceID)
	if err != nil {
		return nil, err
	}
	if d.Status == StatusApproved {
		return d, nil
	}

	now := time.Now().UTC()
	d.Status = StatusApproved
	d.ApprovedByID = &approverID
	d.ApprovedAt = &now

	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("device_id", d.ID.String()).
		Str("practice_id", practiceID.String()).
		Str("approved_by", approverID.String()).
		Msg("Device approved")
	return d, nil
}

// Revoke withdraws the device's access and records why.
func (s *Service) Revoke(ctx context.Context, deviceID, practiceID uuid.UUID, reason string) (*Device, error) {
	d, err := s.getOwned(ctx, deviceID, practiceID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	d.Status = StatusRevoked
	d.RevokedAt = &now
	// The reason always describes this revocation; a previous one must
	// not survive a revoke without a reason.
	d.RevokedReason = nil
	if reason = strings.TrimSpace(reason); reason != "" {
		d.RevokedReason = &reason
	}

	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("device_id", d.ID.String()).
		Str("practice_id", practiceID.String()).
		Msg("Device revoked")
	return d, nil
}

// Delete removes the device record entirely, freeing its fingerprint for
// future registration.
func (s *Service) Delete(ctx context.Context, deviceID, practiceID uuid.UUID) error {
	if _, err := s.getOwned(ctx, deviceID, practiceID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, deviceID)
}

// ApproveForAdmin approves a device in any practice. Reserved for
// super-admin callers, which are not bound by practice ownership.
func (s *Service) ApproveForAdmin(ctx context.Context, deviceID, adminID uuid.UUID) (*Device, error) {
	d, err := s.repo.GetByID(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	return s.Approve(ctx, deviceID, d.PracticeID, adminID)
}

// TouchLastUsed stamps usage metadata on the device row. Callers treat
// failures as non-fatal.
func (s *Service) TouchLastUsed(ctx context.Context, fingerprint string, userID uuid.UUID, ip string) error {
	return s.repo.TouchLastUsed(ctx, fingerprint, userID, ip)
}
