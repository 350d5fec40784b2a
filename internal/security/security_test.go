package security_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"jobmate/board-service/internal/domain"
	"jobmate/board-service/internal/security"
)

const secret = "test-secret"

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

// ── JWTProvider ───────────────────────────────────────────────────────────

func TestIssuePair_RoundTrip(t *testing.T) {
	p := security.NewJWTProvider(secret, 5*time.Minute, 24*time.Hour)
	u := &domain.User{ID: uuid.New(), Name: "Ada Lovelace", Role: domain.RoleCompany}

	pair, err := p.IssuePair(u)
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	claims, err := p.Parse(pair.Access, security.TokenAccess)
	if err != nil {
		t.Fatalf("Parse(access): %v", err)
	}
	if claims.UserID != u.ID.String() || claims.Role != "company" || claims.Name != "Ada Lovelace" {
		t.Errorf("access claims = %+v", claims)
	}

	refresh, err := p.Parse(pair.Refresh, security.TokenRefresh)
	if err != nil {
		t.Fatalf("Parse(refresh): %v", err)
	}
	if refresh.ID != pair.RefreshID {
		t.Errorf("refresh jti = %q, want %q", refresh.ID, pair.RefreshID)
	}
}

func TestParse_RejectsWrongType(t *testing.T) {
	p := security.NewJWTProvider(secret, time.Minute, time.Hour)
	pair, err := p.IssuePair(&domain.User{ID: uuid.New(), Role: domain.RoleApplicant})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Parse(pair.Refresh, security.TokenAccess); !errors.Is(err, security.ErrWrongTokenType) {
		t.Errorf("Parse(refresh as access) = %v, want ErrWrongTokenType", err)
	}
}

func TestParse_RejectsOtherSecret(t *testing.T) {
	pair, err := security.NewJWTProvider("other", time.Minute, time.Hour).
		IssuePair(&domain.User{ID: uuid.New(), Role: domain.RoleApplicant})
	if err != nil {
		t.Fatal(err)
	}
	p := security.NewJWTProvider(secret, time.Minute, time.Hour)
	if _, err := p.Parse(pair.Access, security.TokenAccess); !errors.Is(err, security.ErrBadSignature) {
		t.Errorf("Parse(foreign token) = %v, want ErrBadSignature", err)
	}
}

func TestParse_Expired(t *testing.T) {
	c := &clock{t: time.Now()}
	p := security.NewJWTProvider(secret, time.Minute, time.Hour).WithClock(c.now)
	pair, err := p.IssuePair(&domain.User{ID: uuid.New(), Role: domain.RoleApplicant})
	if err != nil {
		t.Fatal(err)
	}
	c.t = c.t.Add(2 * time.Minute)
	if _, err := p.Parse(pair.Access, security.TokenAccess); !errors.Is(err, security.ErrSignatureExpired) {
		t.Errorf("Parse(expired) = %v, want ErrSignatureExpired", err)
	}
}

// ── Signer ────────────────────────────────────────────────────────────────

func TestSigner(t *testing.T) {
	c := &clock{t: time.Now()}
	s := security.NewSigner(secret, time.Hour).WithClock(c.now)
	id := uuid.New()

	token, err := s.Sign(id)
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Unsign(token)
	if err != nil || got != id {
		t.Fatalf("Unsign = %v, %v; want %v", got, err, id)
	}

	c.t = c.t.Add(3 * time.Hour)
	if _, err := s.Unsign(token); !errors.Is(err, security.ErrSignatureExpired) {
		t.Errorf("Unsign(expired) = %v, want ErrSignatureExpired", err)
	}
	if got, err := s.UnsignMaxAge(token, 24*time.Hour); err != nil || got != id {
		t.Errorf("UnsignMaxAge = %v, %v; want %v", got, err, id)
	}

	// The 24h limit counts from signing, not from the 1h expiry.
	c.t = c.t.Add(21*time.Hour + 30*time.Minute)
	if _, err := s.UnsignMaxAge(token, 24*time.Hour); !errors.Is(err, security.ErrSignatureExpired) {
		t.Errorf("UnsignMaxAge(24h30m old) = %v, want ErrSignatureExpired", err)
	}

	if _, err := s.Unsign("not-a-token"); !errors.Is(err, security.ErrBadSignature) {
		t.Errorf("Unsign(garbage) = %v, want ErrBadSignature", err)
	}
}

// ── Passwords ─────────────────────────────────────────────────────────────

func TestPasswordHash(t *testing.T) {
	hash, err := security.HashPassword("correct horse")
	if err != nil {
		t.Fatal(err)
	}
	if !security.CheckPassword(hash, "correct horse") {
		t.Error("CheckPassword should accept the original password")
	}
	if security.CheckPassword(hash, "wrong horse") {
		t.Error("CheckPassword should reject a different password")
	}
}
