package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"jobmate/board-service/internal/domain"
	"jobmate/board-service/internal/store"
)

const userColumns = `id, email, name, role, password_hash, is_verified, is_active, created_at`

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Email = strings.ToLower(u.Email)
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, name, role, password_hash, is_verified, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at`,
		u.ID, u.Email, u.Name, string(u.Role), u.PasswordHash, u.IsVerified, u.IsActive,
	).Scan(&u.CreatedAt)
	if err != nil {
		return mapWriteErr("createUser", err)
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
}

func (s *Store) getUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.Name, &role, &u.PasswordHash,
		&u.IsVerified, &u.IsActive, &u.CreatedAt,
	)
	if isNoRows(err) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getUser: %w", err)
	}
	u.Role = domain.Role(role)
	return &u, nil
}

func (s *Store) ActivateUser(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET is_verified = TRUE, is_active = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("activateUser: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
