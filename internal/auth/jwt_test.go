package auth

import (
	"errors"
	"testing"
	"time"

	"melodist/config"
)

func testJWT() *config.JWTConfig {
	return &config.JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessExpiry:  time.Minute,
		RefreshExpiry: time.Hour,
		Issuer:        "melodist",
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	cfg := testJWT()
	pair, err := GeneratePair(cfg, 42, "a@example.com", true)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ParseAccessToken(cfg, pair.AccessToken)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 42 || claims.Email != "a@example.com" || !claims.EmailVerified {
		t.Fatalf("unexpected claims %+v", claims)
	}
	id, err := ParseRefreshToken(cfg, pair.RefreshToken)
	if err != nil || id != 42 {
		t.Fatalf("expected refresh subject 42, got %d %v", id, err)
	}
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	cfg := testJWT()
	pair, _ := GeneratePair(cfg, 1, "a@example.com", false)
	if _, err := ParseAccessToken(cfg, pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh token must not pass as access token, got %v", err)
	}
	if _, err := ParseRefreshToken(cfg, pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token must not pass as refresh token, got %v", err)
	}
}

func TestExpiredAccessToken(t *testing.T) {
	cfg := testJWT()
	cfg.AccessExpiry = -time.Minute
	tok, _, _ := GenerateAccessToken(cfg, 1, "a@example.com", false)
	if _, err := ParseAccessToken(cfg, tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerificationToken(t *testing.T) {
	cfg := testJWT()
	tok, err := GenerateVerificationToken(cfg, 9, "ops@melodist.io")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	id, email, err := ParseVerificationToken(cfg, tok)
	if err != nil || id != 9 || email != "ops@melodist.io" {
		t.Fatalf("expected 9/ops@melodist.io, got %d/%s %v", id, email, err)
	}
	if _, err := ParseAccessToken(cfg, tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("verification token must not pass as access token, got %v", err)
	}

	pair, _ := GeneratePair(cfg, 9, "ops@melodist.io", false)
	if _, _, err := ParseVerificationToken(cfg, pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token must not pass as verification token, got %v", err)
	}
	other := testJWT()
	other.AccessSecret = "different"
	if _, _, err := ParseVerificationToken(other, tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected signature check to fail, got %v", err)
	}
}
