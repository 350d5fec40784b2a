package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is fixed at registration.
type Role string

const (
	RoleApplicant Role = "applicant"
	RoleCompany   Role = "company"
)

// ParseRole converts a raw string to a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	switch r {
	case RoleApplicant, RoleCompany:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// User is an account holder. New users are inactive and unverified until the
// email verification link is followed.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	IsVerified   bool      `json:"is_verified"`
	IsActive     bool      `json:"-"`
	CreatedAt    time.Time `json:"-"`
}
