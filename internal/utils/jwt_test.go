package utils

import (
	"errors"
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	now := time.Now()
	tok, err := NewAccessToken("s3cret", 42, "ADMIN", 15, now)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	claims, err := ParseAccessToken("s3cret", tok.Token)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	id, err := claims.UserID()
	if err != nil || id != 42 {
		t.Fatalf("UserID = %d, %v; want 42", id, err)
	}
	if claims.Role != "ADMIN" {
		t.Fatalf("Role = %q; want ADMIN", claims.Role)
	}
}

func TestParseAccessTokenRejects(t *testing.T) {
	now := time.Now()
	valid, _ := NewAccessToken("s3cret", 1, "USER", 15, now)
	expired, _ := NewAccessToken("s3cret", 1, "USER", 15, now.Add(-time.Hour))

	tests := []struct {
		name, secret, raw string
	}{
		{"wrong secret", "other", valid.Token},
		{"expired", "s3cret", expired.Token},
		{"garbage", "s3cret", "not.a.token"},
		{"empty", "s3cret", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseAccessToken(tt.secret, tt.raw); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("err = %v; want ErrInvalidToken", err)
			}
		})
	}
}

func TestRefreshTokenHash(t *testing.T) {
	rt, err := NewRefreshToken(7, time.Now())
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	if len(rt.Raw) != 96 {
		t.Fatalf("raw length = %d; want 96", len(rt.Raw))
	}
	if h := HashRefreshRaw(rt.Raw); len(h) != 64 || h != HashRefreshRaw(rt.Raw) {
		t.Fatalf("hash %q is not a stable sha256 hex", h)
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("hunter22", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword(hash, "hunter22") {
		t.Fatal("VerifyPassword rejected the right password")
	}
	if VerifyPassword(hash, "hunter23") {
		t.Fatal("VerifyPassword accepted a wrong password")
	}
}
