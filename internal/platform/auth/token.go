package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "clinicore"

// SuperAdminTokenTTL is the fixed lifetime of super-admin tokens.
const SuperAdminTokenTTL = 8 * time.Hour

// Claims is the JWT payload for both identity spaces. SuperAdmin marks the
// global claim; tenant tokens carry practice_id and role instead.
type Claims struct {
	jwt.RegisteredClaims
	UserID     uuid.UUID  `json:"user_id"`
	PracticeID *uuid.UUID `json:"practice_id,omitempty"`
	Role       string     `json:"role,omitempty"`
	SuperAdmin bool       `json:"super_admin,omitempty"`
}

// Principal normalizes the claims into the tagged principal used by the
// rest of the request pipeline. Legacy tenant rows flagged SUPER_ADMIN are
// folded into the super-admin kind here, once, at authentication time.
func (c *Claims) Principal() Principal {
	if c.SuperAdmin || c.Role == RoleSuperAdmin {
		return Principal{Kind: KindSuperAdmin, UserID: c.UserID}
	}
	p := Principal{Kind: KindTenantUser, UserID: c.UserID, Role: c.Role}
	if c.PracticeID != nil {
		p.PracticeID = *c.PracticeID
	}
	return p
}

// TokenIssuer signs and verifies HS256 tokens for both tenant users and
// super-admin principals.
type TokenIssuer struct {
	secret    []byte
	tenantTTL time.Duration
}

func NewTokenIssuer(secret string, tenantTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), tenantTTL: tenantTTL}
}

// IssueTenantToken creates a practice-scoped token for a tenant user.
func (i *TokenIssuer) IssueTenantToken(userID, practiceID uuid.UUID, role string) (string, error) {
	claims := &Claims{
		UserID:     userID,
		PracticeID: &practiceID,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(i.tenantTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// IssueSuperAdminToken creates a global token carrying the super-admin
// claim. It has no practice scoping and a fixed 8 hour expiry.
func (i *TokenIssuer) IssueSuperAdminToken(adminID uuid.UUID) (string, error) {
	claims := &Claims{
		UserID:     adminID,
		SuperAdmin: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminID.String(),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(SuperAdminTokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Verify parses and validates a token, returning its claims.
func (i *TokenIssuer) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return i.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
