// Package identity owns accounts: registration, email verification, login,
// token refresh and request authentication.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobmate/board-service/internal/apperr"
	"jobmate/board-service/internal/domain"
	"jobmate/board-service/internal/notify"
	"jobmate/board-service/internal/security"
	"jobmate/board-service/internal/store"
	"jobmate/board-service/internal/telemetry"
)

var tracer = telemetry.GetTracer("board-service/identity")

var namePattern = regexp.MustCompile(`^[a-zA-Z]+( [a-zA-Z]+)?$`)

const (
	maxNameLen        = 255
	minPasswordLen    = 8
	verifyEmailPath   = "/users/verify-email"
	msgBadCredentials = "No active account found with the given credentials."
	msgInvalidToken   = "Token is invalid or expired."
)

// Sessions tracks refresh tokens so each one can be used once.
type Sessions interface {
	Save(ctx context.Context, jti string, userID uuid.UUID, ttl time.Duration) error
	Consume(ctx context.Context, jti string) (uuid.UUID, error)
}

// RegisterInput is the registration form.
type RegisterInput struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
	Role      string `json:"role"`
}

// VerifyOutcome tells a successful verification apart from a repeated one.
type VerifyOutcome int

const (
	Verified VerifyOutcome = iota
	AlreadyVerified
)

// Service encapsulates all identity business logic.
type Service struct {
	users     store.Users
	sessions  Sessions
	tokens    *security.JWTProvider
	signer    *security.Signer
	mail      notify.Dispatcher
	logger    *zap.Logger
	baseURL   string
	resendAge time.Duration
}

// Config carries the non-collaborator settings of Service.
type Config struct {
	PublicBaseURL string
	// VerifyResendMaxAge bounds, from signing, how old an expired link may
	// be and still trigger a fresh one.
	VerifyResendMaxAge time.Duration
}

func NewService(
	users store.Users,
	sessions Sessions,
	tokens *security.JWTProvider,
	signer *security.Signer,
	mail notify.Dispatcher,
	logger *zap.Logger,
	cfg Config,
) *Service {
	return &Service{
		users:     users,
		sessions:  sessions,
		tokens:    tokens,
		signer:    signer,
		mail:      mail,
		logger:    logger,
		baseURL:   strings.TrimRight(cfg.PublicBaseURL, "/"),
		resendAge: cfg.VerifyResendMaxAge,
	}
}

// ─── Registration & verification ────────────────────────────────────────────

// Register creates an inactive, unverified account and emails a
// verification link.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "identity.Register")
	defer span.End()

	role, fields := validateRegistration(&in)
	if len(fields) > 0 {
		return nil, apperr.Validation("Registration failed.", fields)
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}

	u := &domain.User{
		ID:           uuid.New(),
		Email:        in.Email,
		Name:         in.Name,
		Role:         role,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Validation("Registration failed.", map[string]string{
				"email": "user with this email already exists.",
			})
		}
		return nil, apperr.Internal("create user", err)
	}

	s.sendVerification(ctx, u)
	return u, nil
}

func validateRegistration(in *RegisterInput) (domain.Role, map[string]string) {
	fields := make(map[string]string)

	in.Name = strings.TrimSpace(in.Name)
	switch {
	case in.Name == "":
		fields["name"] = "This field is required."
	case len(in.Name) > maxNameLen:
		fields["name"] = fmt.Sprintf("Ensure this field has no more than %d characters.", maxNameLen)
	case !namePattern.MatchString(in.Name):
		fields["name"] = "Name must contain only alphabets and a single space."
	}

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" {
		fields["email"] = "This field is required."
	} else if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		fields["email"] = "Enter a valid email address."
	}

	switch {
	case in.Password == "":
		fields["password"] = "This field is required."
	case len(in.Password) < minPasswordLen:
		fields["password"] = fmt.Sprintf("This password is too short. It must contain at least %d characters.", minPasswordLen)
	case isNumeric(in.Password):
		fields["password"] = "This password is entirely numeric."
	case in.Password != in.Password2:
		fields["password"] = "Password fields didn't match."
	}

	role, err := domain.ParseRole(in.Role)
	if err != nil {
		fields["role"] = fmt.Sprintf("%q is not a valid choice.", in.Role)
	}
	return role, fields
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// VerifyEmail activates the account named by token. An expired token that
// is still within the grace period triggers a fresh link.
func (s *Service) VerifyEmail(ctx context.Context, token string) (VerifyOutcome, error) {
	ctx, span := tracer.Start(ctx, "identity.VerifyEmail")
	defer span.End()

	if token == "" {
		return 0, apperr.Validation("Token not provided.", map[string]string{"token": "Token is required."})
	}

	userID, err := s.signer.Unsign(token)
	switch {
	case errors.Is(err, security.ErrSignatureExpired):
		return s.resendExpired(ctx, token)
	case err != nil:
		return 0, apperr.Validation("Invalid or malformed token.", map[string]string{"token": "Invalid token."})
	}

	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if u.IsVerified {
		return AlreadyVerified, nil
	}
	if err := s.users.ActivateUser(ctx, u.ID); err != nil {
		return 0, apperr.Internal("activate user", err)
	}
	return Verified, nil
}

func (s *Service) resendExpired(ctx context.Context, token string) (VerifyOutcome, error) {
	userID, err := s.signer.UnsignMaxAge(token, s.resendAge)
	if err != nil {
		return 0, apperr.Validation("Invalid or malformed token.", map[string]string{"token": "Invalid token."})
	}
	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if u.IsVerified {
		return AlreadyVerified, nil
	}
	s.sendVerification(ctx, u)
	return 0, apperr.Validation("Token expired. A new verification link has been sent to your email.",
		map[string]string{"token": "Token has expired."})
}

// sendVerification is non-fatal: registration succeeds even if the mail
// queue is down.
func (s *Service) sendVerification(ctx context.Context, u *domain.User) {
	token, err := s.signer.Sign(u.ID)
	if err != nil {
		s.logger.Error("sign verification token failed", zap.String("user_id", u.ID.String()), zap.Error(err))
		return
	}
	link := s.baseURL + verifyEmailPath + "?token=" + url.QueryEscape(token)
	if err := s.mail.Send(ctx, notify.VerificationEmail(u.Email, u.Name, link)); err != nil {
		s.logger.Warn("dispatch verification email failed", zap.String("user_id", u.ID.String()), zap.Error(err))
	}
}

// ─── Tokens ─────────────────────────────────────────────────────────────────

// Login checks credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, *security.TokenPair, error) {
	ctx, span := tracer.Start(ctx, "identity.Login")
	defer span.End()

	u, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, apperr.Unauthenticated(msgBadCredentials, nil)
	}
	if err != nil {
		return nil, nil, apperr.Internal("load user", err)
	}
	if !security.CheckPassword(u.PasswordHash, password) {
		return nil, nil, apperr.Unauthenticated(msgBadCredentials, nil)
	}
	if !u.IsVerified {
		return nil, nil, apperr.Validation("Email not verified. Please check your inbox for a verification link.", nil)
	}
	if !u.IsActive {
		return nil, nil, apperr.Validation("User account is inactive.", nil)
	}

	pair, err := s.issue(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued. A token that was already rotated is rejected.
func (s *Service) Refresh(ctx context.Context, refresh string) (*security.TokenPair, error) {
	ctx, span := tracer.Start(ctx, "identity.Refresh")
	defer span.End()

	claims, err := s.tokens.Parse(refresh, security.TokenRefresh)
	if err != nil {
		return nil, apperr.Unauthenticated(msgInvalidToken, err)
	}

	userID, err := s.sessions.Consume(ctx, claims.ID)
	if errors.Is(err, security.ErrSessionNotFound) {
		return nil, apperr.Unauthenticated(msgInvalidToken, err)
	}
	if err != nil {
		return nil, apperr.Dependency("Session store unavailable.", err)
	}
	if userID.String() != claims.UserID {
		return nil, apperr.Unauthenticated(msgInvalidToken, nil)
	}

	u, err := s.activeUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, u)
}

// Authenticate resolves a bearer access token to its active user.
func (s *Service) Authenticate(ctx context.Context, access string) (*domain.User, error) {
	claims, err := s.tokens.Parse(access, security.TokenAccess)
	if err != nil {
		return nil, apperr.Unauthenticated("Given token not valid for any token type.", err)
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, apperr.Unauthenticated("Token contained no recognizable user identification.", err)
	}
	return s.activeUser(ctx, id)
}

// UserByID loads an active user; used by the gRPC boundary, where the
// gateway has already authenticated the caller.
func (s *Service) UserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.activeUser(ctx, id)
}

func (s *Service) issue(ctx context.Context, u *domain.User) (*security.TokenPair, error) {
	pair, err := s.tokens.IssuePair(u)
	if err != nil {
		return nil, apperr.Internal("issue tokens", err)
	}
	if err := s.sessions.Save(ctx, pair.RefreshID, u.ID, s.tokens.RefreshTTL()); err != nil {
		return nil, apperr.Dependency("Session store unavailable.", err)
	}
	return pair, nil
}

func (s *Service) loadUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, err := s.users.GetUserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("User not found.", err)
	}
	if err != nil {
		return nil, apperr.Internal("load user", err)
	}
	return u, nil
}

func (s *Service) activeUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, err := s.users.GetUserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Unauthenticated("User not found.", err)
	}
	if err != nil {
		return nil, apperr.Internal("load user", err)
	}
	if !u.IsActive {
		return nil, apperr.Unauthenticated("User is inactive.", nil)
	}
	return u, nil
}
