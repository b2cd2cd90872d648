package helpers

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joshua-takyi/eventhub/internal/models"
)

func signHS256(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestTokenValidatorAcceptsSharedSecretTokens(t *testing.T) {
	tv := NewTokenValidator("s3cret", "")
	token := signHS256(t, "s3cret", jwt.MapClaims{
		"userId": "6f1c3c1e-7d4f-4a55-9b7a-0a4f8b2f9d10",
		"role":   "vendor",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	claims, err := tv.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.SubjectID() != "6f1c3c1e-7d4f-4a55-9b7a-0a4f8b2f9d10" {
		t.Errorf("SubjectID = %q", claims.SubjectID())
	}
	if role, ok := claims.TokenRole(); !ok || role != models.RoleVendor {
		t.Errorf("TokenRole = %q, %v", role, ok)
	}
}

func TestTokenValidatorRejectsBadTokens(t *testing.T) {
	tv := NewTokenValidator("s3cret", "")

	cases := map[string]string{
		"wrong secret": signHS256(t, "other", jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(time.Hour).Unix()}),
		"expired":      signHS256(t, "s3cret", jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(-time.Hour).Unix()}),
		"no subject":   signHS256(t, "s3cret", jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}),
		"garbage":      "not-a-token",
	}
	for name, token := range cases {
		if _, err := tv.Validate(token); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestSupabaseRoleClaimIsNotOurs(t *testing.T) {
	c := &CustomClaims{Role: "authenticated"}
	if _, ok := c.TokenRole(); ok {
		t.Error("supabase role claim must not map to a marketplace role")
	}
}

func TestIsPasswordStrong(t *testing.T) {
	if IsPasswordStrong("password") {
		t.Error("weak password accepted")
	}
	if !IsPasswordStrong("Passw0rd!") {
		t.Error("strong password rejected")
	}
}
