package device

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/internal/platform/errs"
)

// FingerprintHeader carries the caller's device fingerprint on every
// gated request.
const FingerprintHeader = "X-Device-Fingerprint"

const touchTimeout = 3 * time.Second

// AccessRequest is one request presented to the device gate.
type AccessRequest struct {
	Principal   auth.Principal
	Fingerprint string
	// SkipCheck marks routes exempt from the gate, such as device
	// registration itself.
	SkipCheck bool
	IP        string
}

// Evaluator decides whether a request from a device may proceed. Rules are
// applied in a fixed order: exempt routes pass, super-admins pass, then the
// fingerprint must resolve to an approved device of the caller's practice.
type Evaluator struct {
	svc    *Service
	logger zerolog.Logger

	// touch records device usage after an allow. Replaced in tests to run
	// synchronously.
	touch func(fingerprint string, userID uuid.UUID, ip string)
}

func NewEvaluator(svc *Service, logger zerolog.Logger) *Evaluator {
	e := &Evaluator{svc: svc, logger: logger}
	e.touch = e.touchAsync
	return e
}

// Evaluate returns nil when the request may proceed and a forbidden error
// naming the precise denial otherwise.
func (e *Evaluator) Evaluate(ctx context.Context, req AccessRequest) error {
	if req.SkipCheck {
		return nil
	}
	if req.Principal.IsSuperAdmin() {
		return nil
	}
	if req.Fingerprint == "" {
		return errs.Forbidden("device not registered")
	}

	practiceID := req.Principal.PracticeID
	if _, err := e.svc.repo.GetApproved(ctx, practiceID, req.Fingerprint); err == nil {
		e.touch(req.Fingerprint, req.Principal.UserID, req.IP)
		return nil
	} else if !errs.IsNotFound(err) {
		return err
	}

	// No approved device for this practice. Look the fingerprint up again
	// to report pending and revoked states precisely; anything else,
	// including a device owned by another practice, stays generic.
	d, err := e.svc.repo.GetByFingerprint(ctx, req.Fingerprint)
	if err == nil && d.PracticeID == practiceID {
		switch d.Status {
		case StatusPending:
			return errs.Forbidden("device is pending approval")
		case StatusRevoked:
			return errs.Forbidden("device access has been revoked")
		}
	} else if err != nil && !errs.IsNotFound(err) {
		return err
	}
	return errs.Forbidden("unauthorized device")
}

// touchAsync stamps usage off the request path. A slow or failed write
// never delays or fails the request that was already allowed.
func (e *Evaluator) touchAsync(fingerprint string, userID uuid.UUID, ip string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
		defer cancel()
		if err := e.svc.TouchLastUsed(ctx, fingerprint, userID, ip); err != nil {
			e.logger.Warn().Err(err).Msg("Failed to record device usage")
		}
	}()
}
