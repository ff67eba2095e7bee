package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func runAuth(t *testing.T, issuer *TokenIssuer, path, authorization string) (*httptest.ResponseRecorder, echo.Context, error) {
	t.Helper()
	e := echo.New()
	e.GET(path, okHandler)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(path)
	err := Middleware(issuer, Skipper)(okHandler)(c)
	return rec, c, err
}

func TestMiddleware_ValidTokenSetsPrincipal(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	userID := uuid.New()
	practiceID := uuid.New()
	token, err := issuer.IssueTenantToken(userID, practiceID, RoleUser)
	if err != nil {
		t.Fatalf("IssueTenantToken failed: %v", err)
	}

	_, c, err := runAuth(t, issuer, "/api/v1/devices", "Bearer "+token)
	if err != nil {
		t.Fatalf("Middleware rejected a valid token: %v", err)
	}

	p, ok := PrincipalFromContext(c.Request().Context())
	if !ok {
		t.Fatal("No principal on the request context")
	}
	if p.UserID != userID || p.PracticeID != practiceID {
		t.Errorf("Wrong principal: %+v", p)
	}
}

func TestMiddleware_MissingHeaderIs401(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	_, _, err := runAuth(t, issuer, "/api/v1/devices", "")
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %v", err)
	}
}

func TestMiddleware_MalformedHeaderIs401(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	for _, header := range []string{"Token abc", "Bearer", "bearer"} {
		_, _, err := runAuth(t, issuer, "/api/v1/devices", header)
		he, ok := err.(*echo.HTTPError)
		if !ok || he.Code != http.StatusUnauthorized {
			t.Errorf("Header %q: expected 401, got %v", header, err)
		}
	}
}

func TestMiddleware_PublicPathSkipsAuth(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	rec, _, err := runAuth(t, issuer, "/health", "")
	if err != nil {
		t.Fatalf("Public path must pass without a token: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
}

func TestMiddleware_LoginPathsArePublic(t *testing.T) {
	for _, path := range []string{"/api/v1/auth/login", "/api/v1/superadmin/login"} {
		if !IsPublicPath(path) {
			t.Errorf("%s must be public", path)
		}
	}
	if IsPublicPath("/api/v1/devices") {
		t.Error("/api/v1/devices must not be public")
	}
}

func runGuard(t *testing.T, guard echo.MiddlewareFunc, p *Principal) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if p != nil {
		req = req.WithContext(WithPrincipal(req.Context(), *p))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return guard(okHandler)(c)
}

func TestRequirePracticeAdmin(t *testing.T) {
	admin := Principal{Kind: KindTenantUser, UserID: uuid.New(), Role: RolePracticeAdmin}
	user := Principal{Kind: KindTenantUser, UserID: uuid.New(), Role: RoleUser}
	super := Principal{Kind: KindSuperAdmin, UserID: uuid.New()}

	if err := runGuard(t, RequirePracticeAdmin(), &admin); err != nil {
		t.Errorf("Practice admin rejected: %v", err)
	}
	if err := runGuard(t, RequirePracticeAdmin(), &super); err != nil {
		t.Errorf("Super-admin rejected: %v", err)
	}

	err := runGuard(t, RequirePracticeAdmin(), &user)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for regular user, got %v", err)
	}

	err = runGuard(t, RequirePracticeAdmin(), nil)
	he, ok = err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without a principal, got %v", err)
	}
}

func TestRequireSuperAdmin(t *testing.T) {
	super := Principal{Kind: KindSuperAdmin, UserID: uuid.New()}
	tenantAdmin := Principal{Kind: KindTenantUser, UserID: uuid.New(), Role: RolePracticeAdmin}

	if err := runGuard(t, RequireSuperAdmin(), &super); err != nil {
		t.Errorf("Super-admin rejected: %v", err)
	}

	err := runGuard(t, RequireSuperAdmin(), &tenantAdmin)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for tenant admin, got %v", err)
	}
}
