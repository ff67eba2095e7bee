package device

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/internal/platform/errs"
)

func newTestEvaluator(repo *mockRepo) *Evaluator {
	ev := NewEvaluator(newTestService(repo), zerolog.Nop())
	// Run usage stamping inline so tests can observe it.
	ev.touch = func(fingerprint string, userID uuid.UUID, ip string) {
		_ = ev.svc.TouchLastUsed(context.Background(), fingerprint, userID, ip)
	}
	return ev
}

func tenantPrincipal(practiceID uuid.UUID) auth.Principal {
	return auth.Principal{
		Kind:       auth.KindTenantUser,
		UserID:     uuid.New(),
		PracticeID: practiceID,
		Role:       auth.RoleUser,
	}
}

func denialMessage(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		t.Fatal("Expected a denial, got allow")
	}
	if errs.KindOf(err) != errs.KindForbidden {
		t.Fatalf("Expected forbidden, got %v", err)
	}
	return err.Error()
}

func TestEvaluate_SkipMarkedRouteAllowsAnything(t *testing.T) {
	ev := newTestEvaluator(newMockRepo())

	err := ev.Evaluate(context.Background(), AccessRequest{
		Principal: tenantPrincipal(uuid.New()),
		SkipCheck: true,
	})
	if err != nil {
		t.Fatalf("Skip-marked request must pass, got %v", err)
	}
}

func TestEvaluate_SuperAdminBypassesGate(t *testing.T) {
	ev := newTestEvaluator(newMockRepo())

	err := ev.Evaluate(context.Background(), AccessRequest{
		Principal: auth.Principal{Kind: auth.KindSuperAdmin, UserID: uuid.New()},
	})
	if err != nil {
		t.Fatalf("Super-admin must pass without a fingerprint, got %v", err)
	}
}

func TestEvaluate_MissingFingerprintIsDenied(t *testing.T) {
	ev := newTestEvaluator(newMockRepo())

	err := ev.Evaluate(context.Background(), AccessRequest{
		Principal: tenantPrincipal(uuid.New()),
	})
	if msg := denialMessage(t, err); !strings.Contains(msg, "not registered") {
		t.Errorf("Expected a not-registered denial, got %q", msg)
	}
}

func TestEvaluate_ApprovedDeviceAllowsAndStampsUsage(t *testing.T) {
	repo := newMockRepo()
	practiceID := uuid.New()
	seedDevice(repo, practiceID, "fp-1", StatusApproved)
	ev := newTestEvaluator(repo)

	p := tenantPrincipal(practiceID)
	err := ev.Evaluate(context.Background(), AccessRequest{
		Principal:   p,
		Fingerprint: "fp-1",
		IP:          "10.0.0.5",
	})
	if err != nil {
		t.Fatalf("Approved device must pass, got %v", err)
	}
	if repo.touchCalls != 1 || repo.lastTouchFP != "fp-1" {
		t.Errorf("Usage was not stamped")
	}

	d, _ := repo.GetByFingerprint(context.Background(), "fp-1")
	if d.LastUsedByUserID == nil || *d.LastUsedByUserID != p.UserID {
		t.Errorf("Last user not recorded on the device")
	}
}

func TestEvaluate_PendingDeviceIsDeniedPrecisely(t *testing.T) {
	repo := newMockRepo()
	practiceID := uuid.New()
	seedDevice(repo, practiceID, "fp-1", StatusPending)
	ev := newTestEvaluator(repo)

	err := ev.Evaluate(context.Background(), AccessRequest{
		Principal:   tenantPrincipal(practiceID),
		Fingerprint: "fp-1",
	})
	if msg := denialMessage(t, err); !strings.Contains(msg, "pending") {
		t.Errorf("Expected a pending denial, got %q", msg)
	}
}

func TestEvaluate_RevokedDeviceIsDeniedPrecisely(t *testing.T) {
	repo := newMockRepo()
	practiceID := uuid.New()
	seedDevice(repo, practiceID, "fp-1", StatusRevoked)
	ev := newTestEvaluator(repo)

	err := ev.Evaluate(context.Background(), AccessRequest{
		Principal:   tenantPrincipal(practiceID),
		Fingerprint: "fp-1",
	})
	if msg := denialMessage(t, err); !strings.Contains(msg, "revoked") {
		t.Errorf("Expected a revoked denial, got %q", msg)
	}
}

func TestEvaluate_UnknownFingerprintIsGenericDenial(t *testing.T) {
	ev := newTestEvaluator(newMockRepo())

	err := ev.Evaluate(context.Background(), AccessRequest{
		Principal:   tenantPrincipal(uuid.New()),
		Fingerprint: "fp-unknown",
	})
	if msg := denialMessage(t, err); !strings.Contains(msg, "unauthorized device") {
		t.Errorf("Expected the generic denial, got %q", msg)
	}
}

func TestEvaluate_OtherPracticeDeviceIsGenericDenial(t *testing.T) {
	repo := newMockRepo()
	seedDevice(repo, uuid.New(), "fp-1", StatusApproved)
	ev := newTestEvaluator(repo)

	// The fingerprint exists and is even approved, but for another
	// practice. The denial must not reveal that.
	err := ev.Evaluate(context.Background(), AccessRequest{
		Principal:   tenantPrincipal(uuid.New()),
		Fingerprint: "fp-1",
	})
	if msg := denialMessage(t, err); !strings.Contains(msg, "unauthorized device") {
		t.Errorf("Expected the generic denial, got %q", msg)
	}
}

func TestEvaluate_RevokeTakesEffectImmediately(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	practiceID := uuid.New()
	d := seedDevice(repo, practiceID, "fp-1", StatusApproved)
	ev := newTestEvaluator(repo)

	p := tenantPrincipal(practiceID)
	req := AccessRequest{Principal: p, Fingerprint: "fp-1"}
	if err := ev.Evaluate(context.Background(), req); err != nil {
		t.Fatalf("Approved device must pass, got %v", err)
	}

	if _, err := svc.Revoke(context.Background(), d.ID, practiceID, "lost"); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	err := ev.Evaluate(context.Background(), req)
	if msg := denialMessage(t, err); !strings.Contains(msg, "revoked") {
		t.Errorf("Expected a revoked denial after revocation, got %q", msg)
	}
}

func TestEvaluate_TouchFailureDoesNotBlockRequest(t *testing.T) {
	repo := newMockRepo()
	practiceID := uuid.New()
	seedDevice(repo, practiceID, "fp-1", StatusApproved)
	repo.touchErr = errs.Internal("db down", nil)
	ev := newTestEvaluator(repo)

	err := ev.Evaluate(context.Background(), AccessRequest{
		Principal:   tenantPrincipal(practiceID),
		Fingerprint: "fp-1",
	})
	if err != nil {
		t.Fatalf("A failed usage stamp must not deny the request, got %v", err)
	}
}
