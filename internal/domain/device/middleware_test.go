package device

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/platform/auth"
)

func gateTestHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func runGate(t *testing.T, ev *Evaluator, path, fingerprint string, p *auth.Principal) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if fingerprint != "" {
		req.Header.Set(FingerprintHeader, fingerprint)
	}
	if p != nil {
		req = req.WithContext(auth.WithPrincipal(req.Context(), *p))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := TrustGate(ev, GateSkipper)(gateTestHandler)(c)
	return rec, err
}

func TestTrustGate_ApprovedDevicePasses(t *testing.T) {
	repo := newMockRepo()
	practiceID := uuid.New()
	seedDevice(repo, practiceID, "fp-1", StatusApproved)
	ev := newTestEvaluator(repo)

	p := tenantPrincipal(practiceID)
	rec, err := runGate(t, ev, "/api/v1/patients", "fp-1", &p)
	if err != nil {
		t.Fatalf("Gate rejected an approved device: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
}

func TestTrustGate_UnapprovedDeviceIs403(t *testing.T) {
	ev := newTestEvaluator(newMockRepo())

	p := tenantPrincipal(uuid.New())
	_, err := runGate(t, ev, "/api/v1/patients", "fp-unknown", &p)
	if httpStatusOf(t, err) != http.StatusForbidden {
		t.Errorf("Expected 403, got %v", err)
	}
}

func TestTrustGate_RegisterRouteIsExempt(t *testing.T) {
	ev := newTestEvaluator(newMockRepo())

	p := tenantPrincipal(uuid.New())
	rec, err := runGate(t, ev, "/api/v1/devices/register", "", &p)
	if err != nil {
		t.Fatalf("Registration must bypass the gate: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
}

func TestTrustGate_PublicPathWithoutPrincipalPasses(t *testing.T) {
	ev := newTestEvaluator(newMockRepo())

	rec, err := runGate(t, ev, "/health", "", nil)
	if err != nil {
		t.Fatalf("Public path must bypass the gate: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
}
