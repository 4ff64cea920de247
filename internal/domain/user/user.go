package user

import (
	"errors"
	"strings"
	"time"
)

type Role string

const (
	RoleEmployer   Role = "employer"
	RoleFreelancer Role = "freelancer"
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrEmailTaken  = errors.New("email already registered")
	ErrInvalidRole = errors.New("invalid role")
)

type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // never expose hash in JSON
	Role         Role       `json:"role"`
	LastLoginAt  *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// ParseRole is the one place role strings are canonicalized. Clients have
// historically sent EMPLOYER/FREELANCER, tokens carry the lower-case form.
func ParseRole(raw string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(raw))); r {
	case RoleEmployer, RoleFreelancer:
		return r, nil
	default:
		return "", ErrInvalidRole
	}
}

// Is compares a role against an arbitrary cased string.
func (r Role) Is(raw string) bool {
	other, err := ParseRole(raw)
	if err != nil {
		return false
	}
	return other == r
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
