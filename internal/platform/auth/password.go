package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost        = 12
	minPasswordLength = 8
)

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters long", minPasswordLength)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword checks a plaintext password against the stored credential.
// Bcrypt hashes (the "$2..." prefix) are verified with a constant-time
// comparison. Anything else is a legacy reversible encoding from seed-era
// data and is only accepted when allowLegacy is set; principals created
// after rollout always store bcrypt, so the fallback is unreachable for them.
func VerifyPassword(stored, password string, allowLegacy bool) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	if !allowLegacy {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(decoded, []byte(password)) == 1
}

// EncodeLegacyPassword produces the reversible seed-data encoding. It exists
// for migration tooling and tests; new credentials must use HashPassword.
func EncodeLegacyPassword(password string) string {
	return base64.StdEncoding.EncodeToString([]byte(password))
}
