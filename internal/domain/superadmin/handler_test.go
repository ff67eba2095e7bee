package superadmin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/domain/practice"
	"github.com/clinicore/clinicore/internal/platform/auth"
)

func newHandlerTestContext(t *testing.T, method, path, body string, p *auth.Principal) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	if body == "" {
		body = "{}"
	}
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if p != nil {
		req = req.WithContext(auth.WithPrincipal(req.Context(), *p))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func superAdminPrincipal() *auth.Principal {
	return &auth.Principal{Kind: auth.KindSuperAdmin, UserID: uuid.New(), Role: auth.RoleSuperAdmin}
}

func TestHandlerLogin_ReturnsToken(t *testing.T) {
	env := newTestEnv()
	seedAdmin(t, env, "ops@platform.test", "password123", true)
	h := NewHandler(env.svc)

	c, rec := newHandlerTestContext(t, http.MethodPost, "/api/v1/superadmin/login",
		`{"email":"ops@platform.test","password":"password123"}`, nil)

	if err := h.Login(c); err != nil {
		t.Fatalf("Login handler failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}

	var result LoginResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("Bad response body: %v", err)
	}
	if result.Token == "" {
		t.Errorf("No token in response")
	}
	if strings.Contains(rec.Body.String(), "password_hash") {
		t.Errorf("Password hash leaked in login response")
	}
}

func TestHandlerCreatePractice_RequiresSuperAdmin(t *testing.T) {
	env := newTestEnv()
	h := NewHandler(env.svc)

	tenant := &auth.Principal{
		Kind:       auth.KindTenantUser,
		UserID:     uuid.New(),
		PracticeID: uuid.New(),
		Role:       auth.RolePracticeAdmin,
	}
	c, _ := newHandlerTestContext(t, http.MethodPost, "/api/v1/superadmin/practices",
		`{"name":"Hillcrest Dental"}`, tenant)

	err := h.CreatePractice(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 for tenant caller, got %v", err)
	}
}

func TestHandlerCreatePractice_CreatesAndReturns201(t *testing.T) {
	env := newTestEnv()
	h := NewHandler(env.svc)

	c, rec := newHandlerTestContext(t, http.MethodPost, "/api/v1/superadmin/practices",
		`{"name":"Hillcrest Dental","subscription_plan":"ENTERPRISE","max_users":20}`, superAdminPrincipal())

	if err := h.CreatePractice(c); err != nil {
		t.Fatalf("CreatePractice handler failed: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("Expected 201, got %d", rec.Code)
	}
	if len(env.activity.entries) != 1 {
		t.Errorf("Expected one activity entry, got %d", len(env.activity.entries))
	}
}

func TestHandlerListActivity_ReturnsEntries(t *testing.T) {
	env := newTestEnv()
	seedAdmin(t, env, "ops@platform.test", "password123", true)
	if _, err := env.svc.Login(context.Background(), "ops@platform.test", "password123", ""); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	h := NewHandler(env.svc)

	c, rec := newHandlerTestContext(t, http.MethodGet, "/api/v1/superadmin/activity", "", superAdminPrincipal())

	if err := h.ListActivity(c); err != nil {
		t.Fatalf("ListActivity handler failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}

	var resp struct {
		Data  []Activity `json:"data"`
		Total int        `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Bad response body: %v", err)
	}
	if resp.Total != 1 || len(resp.Data) != 1 || resp.Data[0].Action != ActionLogin {
		t.Errorf("Expected the login entry, got %+v", resp)
	}
}

func TestHandlerListActivity_FiltersByPracticeParam(t *testing.T) {
	env := newTestEnv()
	h := NewHandler(env.svc)
	adminID := uuid.New()

	p1, err := env.svc.CreatePractice(context.Background(), adminID, practice.CreatePracticeInput{Name: "One"}, "")
	if err != nil {
		t.Fatalf("CreatePractice failed: %v", err)
	}
	if _, err := env.svc.CreatePractice(context.Background(), adminID, practice.CreatePracticeInput{Name: "Two"}, ""); err != nil {
		t.Fatalf("CreatePractice failed: %v", err)
	}

	c, rec := newHandlerTestContext(t, http.MethodGet,
		"/api/v1/superadmin/activity?practice_id="+p1.ID.String(), "", superAdminPrincipal())

	if err := h.ListActivity(c); err != nil {
		t.Fatalf("ListActivity handler failed: %v", err)
	}

	var resp struct {
		Data  []Activity `json:"data"`
		Total int        `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Bad response body: %v", err)
	}
	if resp.Total != 1 || len(resp.Data) != 1 {
		t.Fatalf("Expected only the first practice's entry, got %d", len(resp.Data))
	}
	if resp.Data[0].PracticeID == nil || *resp.Data[0].PracticeID != p1.ID {
		t.Errorf("Entry for another practice leaked through")
	}

	c, _ = newHandlerTestContext(t, http.MethodGet,
		"/api/v1/superadmin/activity?practice_id=nope", "", superAdminPrincipal())
	err = h.ListActivity(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for a bad practice_id, got %v", err)
	}
}

func TestHandlerApproveDevice_InvalidIDIs400(t *testing.T) {
	env := newTestEnv()
	h := NewHandler(env.svc)

	c, _ := newHandlerTestContext(t, http.MethodPost, "/api/v1/superadmin/devices/nope/approve", "", superAdminPrincipal())
	c.SetParamNames("id")
	c.SetParamValues("nope")

	err := h.ApproveDevice(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %v", err)
	}
}

func TestRegisterRoutes_MountsSuperAdminEndpoints(t *testing.T) {
	e := echo.New()
	h := NewHandler(newTestEnv().svc)
	h.RegisterRoutes(e.Group("/api/v1"))

	want := []string{
		"POST /api/v1/superadmin/login",
		"GET /api/v1/superadmin/practices",
		"POST /api/v1/superadmin/practices",
		"GET /api/v1/superadmin/practices/:id",
		"POST /api/v1/superadmin/practices/:id/admins",
		"PUT /api/v1/superadmin/practices/:id/subscription",
		"POST /api/v1/superadmin/practices/:id/toggle",
		"POST /api/v1/superadmin/devices/:id/approve",
		"GET /api/v1/superadmin/activity",
	}
	found := make(map[string]bool)
	for _, r := range e.Routes() {
		found[r.Method+" "+r.Path] = true
	}
	for _, key := range want {
		if !found[key] {
			t.Errorf("Route %s not registered", key)
		}
	}
}
