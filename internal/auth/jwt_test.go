package auth

import (
	"testing"
	"time"

	"crm-platform/internal/config"
)

func TestIssueAndVerifyAccessToken(t *testing.T) {
	m, err := NewManager(config.AuthConfig{
		JWTSecret:       "secret",
		JWTIssuer:       "issuer",
		JWTAudience:     "aud",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	now := time.Unix(1700000000, 0).UTC()
	pair, err := m.IssuePair(now, "user-1", "team-1", "agent")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected token strings")
	}

	claims, err := m.Verify(pair.AccessToken, TokenTypeAccess, now.Add(1*time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.TeamID != "team-1" || claims.Role != "agent" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestIssueAndVerifyWithoutTeam(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour})
	now := time.Unix(1700000000, 0).UTC()
	pair, err := m.IssuePair(now, "admin-1", "", "admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := m.Verify(pair.AccessToken, TokenTypeAccess, now)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.TeamID != "" {
		t.Fatalf("expected empty team, got %q", claims.TeamID)
	}
}

func TestVerifyHonorsInjectedClock(t *testing.T) {
	ttl := 15 * time.Minute
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: ttl, RefreshTokenTTL: time.Hour})

	// Issue well in the past; validity must be judged against the instant
	// passed to Verify, never the wall clock.
	issued := time.Unix(1700000000, 0).UTC()
	pair, err := m.IssuePair(issued, "user-1", "team-1", "agent")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := m.Verify(pair.AccessToken, TokenTypeAccess, issued.Add(ttl-time.Second)); err != nil {
		t.Fatalf("token should be valid just before expiry: %v", err)
	}
	// Past expiry plus the 30s leeway.
	if _, err := m.Verify(pair.AccessToken, TokenTypeAccess, issued.Add(ttl+time.Minute)); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
	// Before issuance, beyond leeway.
	if _, err := m.Verify(pair.AccessToken, TokenTypeAccess, issued.Add(-time.Minute)); err == nil {
		t.Fatal("expected not-yet-issued token to be rejected")
	}
}

func TestVerifyRejectsWrongTokenType(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour})
	p, err := m.IssuePair(time.Now(), "u", "t", "viewer")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(p.RefreshToken, TokenTypeAccess, time.Now()); err == nil {
		t.Fatalf("expected token_type mismatch")
	}
}
