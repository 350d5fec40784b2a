package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Signer issues the short-lived links sent by email. A token is valid for
// maxAge; UnsignMaxAge accepts it under a longer age limit so an expired
// link can still identify whom to resend to.
type Signer struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

func NewSigner(secret string, maxAge time.Duration) *Signer {
	return &Signer{secret: []byte(secret), maxAge: maxAge, now: time.Now}
}

// WithClock replaces the time source, for tests.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	s.now = now
	return s
}

// Sign returns a token carrying userID.
func (s *Signer) Sign(userID uuid.UUID) (string, error) {
	now := s.now().UTC()
	claims := Claims{
		UserID:    userID.String(),
		TokenType: TokenVerify,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.maxAge)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign verification token: %w", err)
	}
	return signed, nil
}

// Unsign returns the user id of a token younger than maxAge. It fails with
// ErrSignatureExpired or ErrBadSignature.
func (s *Signer) Unsign(token string) (uuid.UUID, error) {
	return s.unsign(token, 0)
}

// UnsignMaxAge is Unsign for tokens signed at most maxAge ago. A limit
// shorter than the signer's own changes nothing.
func (s *Signer) UnsignMaxAge(token string, maxAge time.Duration) (uuid.UUID, error) {
	return s.unsign(token, max(maxAge-s.maxAge, 0))
}

func (s *Signer) unsign(token string, leeway time.Duration) (uuid.UUID, error) {
	claims, err := parse(token, TokenVerify, s.secret, s.now, leeway)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: user id: %v", ErrBadSignature, err)
	}
	return id, nil
}
