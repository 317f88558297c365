package handlers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/campusfound/apiserver/types"
)

func TestIssueAndParseToken(t *testing.T) {
	secret := []byte("test-secret")
	user := types.User{ID: 42, Email: "jan@example.edu", Role: types.RoleUser}

	token, err := IssueToken(user, secret, 10*time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	subject, err := parseTokenSubject(token, secret)
	if err != nil {
		t.Fatalf("parseTokenSubject: %v", err)
	}
	if subject != "42" {
		t.Errorf("subject = %q, want \"42\"", subject)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := IssueToken(types.User{ID: 1}, []byte("secret-one"), time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	if _, err := parseTokenSubject(token, []byte("secret-two")); err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestParseExpiredToken(t *testing.T) {
	secret := []byte("test-secret")
	token, err := IssueToken(types.User{ID: 1}, secret, -time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	if _, err := parseTokenSubject(token, secret); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestParseTokenRejectsUnsignedAlg(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "1"}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := parseTokenSubject(token, []byte("secret")); err == nil {
		t.Error("expected error for alg=none token")
	}
}

func TestTokenTTL(t *testing.T) {
	secret := []byte("test-secret")
	token, err := IssueToken(types.User{ID: 1}, secret, 10*time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	claims := Claims{}
	if _, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	expected := time.Now().Add(10 * time.Hour)
	diff := expected.Sub(claims.ExpiresAt.Time)
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("expiry too far from expected: diff=%v", diff)
	}
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	if _, err := bearerToken(r); err == nil {
		t.Error("expected error for missing header")
	}

	r.Header.Set("Authorization", "Bearer abc123")
	token, err := bearerToken(r)
	if err != nil {
		t.Fatalf("bearerToken: %v", err)
	}
	if token != "abc123" {
		t.Errorf("token = %q", token)
	}

	r.Header.Set("Authorization", "Basic abc123")
	if _, err := bearerToken(r); err == nil {
		t.Error("expected error for non-bearer scheme")
	}
}
