package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "0123456789abcdef0123"

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens(testSecret, time.Hour)
	signed, exp, err := tokens.Issue("user-1", "ana@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(exp) < 59*time.Minute {
		t.Fatalf("unexpected expiry %v", exp)
	}
	claims, err := tokens.Verify(signed)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "user-1" || claims.Email != "ana@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejects(t *testing.T) {
	tokens := NewTokens(testSecret, time.Hour)
	valid, _, _ := tokens.Issue("user-1", "a@b.c")

	expiredIssuer := NewTokens(testSecret, time.Minute)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, _ := expiredIssuer.Issue("user-1", "a@b.c")

	other, _, _ := NewTokens("another-secret-entirely", time.Hour).Issue("user-1", "a@b.c")

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user-1", Issuer: issuer}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	tests := map[string]string{
		"garbage":      "not-a-token",
		"tampered":     valid + "x",
		"expired":      expired,
		"wrong secret": other,
		"alg none":     none,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := tokens.Verify(token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	if _, err := HashPassword("123"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := CheckPassword(hash, "s3cret-pass"); err != nil {
		t.Fatalf("CheckPassword: %v", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	tokens := NewTokens(testSecret, time.Hour)
	valid, _, _ := tokens.Issue("user-1", "a@b.c")

	var seen string
	h := Middleware(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = OwnerFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + valid, http.StatusNoContent},
		{"lowercase scheme", "bearer " + valid, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/api/goals", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status == http.StatusUnauthorized && seen != "" {
				t.Fatal("handler ran for unauthenticated request")
			}
			if tt.status == http.StatusNoContent && seen != "user-1" {
				t.Fatalf("owner = %q, want user-1", seen)
			}
		})
	}
}
