// Package security holds the token, signing and password primitives used by
// the identity service.
package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"jobmate/board-service/internal/domain"
)

// Token types carried in the token_type claim.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
	TokenVerify  = "verify"
)

var (
	ErrBadSignature     = errors.New("bad signature")
	ErrSignatureExpired = errors.New("signature expired")
	ErrWrongTokenType   = errors.New("wrong token type")
)

// Claims are the custom claims issued on every token.
type Claims struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role,omitempty"`
	Name      string `json:"name,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	Access           string    `json:"access"`
	Refresh          string    `json:"refresh"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
	RefreshID        string    `json:"-"`
}

// JWTProvider issues and parses HS256 tokens.
type JWTProvider struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewJWTProvider(secret string, accessTTL, refreshTTL time.Duration) *JWTProvider {
	return &JWTProvider{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (p *JWTProvider) WithClock(now func() time.Time) *JWTProvider {
	p.now = now
	return p
}

// RefreshTTL is how long a refresh session must be kept.
func (p *JWTProvider) RefreshTTL() time.Duration { return p.refreshTTL }

// IssuePair signs a fresh access + refresh pair for u.
func (p *JWTProvider) IssuePair(u *domain.User) (*TokenPair, error) {
	now := p.now().UTC()
	access, accessExp, err := p.sign(u, TokenAccess, uuid.NewString(), now, p.accessTTL)
	if err != nil {
		return nil, err
	}
	refreshID := uuid.NewString()
	refresh, refreshExp, err := p.sign(u, TokenRefresh, refreshID, now, p.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		Access:           access,
		Refresh:          refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
		RefreshID:        refreshID,
	}, nil
}

func (p *JWTProvider) sign(u *domain.User, tokenType, jti string, now time.Time, ttl time.Duration) (string, time.Time, error) {
	exp := now.Add(ttl)
	claims := Claims{
		UserID:    u.ID.String(),
		Role:      string(u.Role),
		Name:      u.Name,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, exp, nil
}

// Parse validates signature, expiry and token type.
func (p *JWTProvider) Parse(raw, tokenType string) (*Claims, error) {
	return parse(raw, tokenType, p.secret, p.now, 0)
}

func parse(raw, tokenType string, secret []byte, now func() time.Time, leeway time.Duration) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	}
	if leeway > 0 {
		opts = append(opts, jwt.WithLeeway(leeway))
	}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, opts...)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrSignatureExpired
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if claims.TokenType != tokenType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
