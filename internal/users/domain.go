package users

import (
	"errors"
	"time"

	"github.com/simpananku/simpananku/internal/shared"
)

// User is a staff or student login. ClassManaged is only ever written by the
// class registry; this package exposes it read-only.
type User struct {
	ID           string      `json:"id"`
	Username     string      `json:"username"`
	Role         shared.Role `json:"role"`
	ClassManaged *string     `json:"classManaged,omitempty"`
	StudentID    *string     `json:"studentId,omitempty"`
	CreatedAt    time.Time   `json:"-"`
	UpdatedAt    time.Time   `json:"-"`
}

// CreateUserInput carries a pre-hashed staff account.
type CreateUserInput struct {
	Username     string
	UsernameFold string
	PasswordHash string
	Role         shared.Role
}

// UpdateUserInput carries partial updates; nil fields are left unchanged.
type UpdateUserInput struct {
	Username     *string
	UsernameFold *string
	PasswordHash *string
	Role         *shared.Role
}

var (
	// ErrUserNotFound indicates the referenced user does not exist.
	ErrUserNotFound = errors.New("users: user not found")
	// ErrDuplicateUsername indicates a username collision, compared
	// case-insensitively.
	ErrDuplicateUsername = errors.New("users: username already exists")
	// ErrInvalidRole indicates a role outside the known set, or SISWA,
	// which is managed through the student directory.
	ErrInvalidRole = errors.New("users: invalid role")
	// ErrMissingField indicates a blank required attribute.
	ErrMissingField = errors.New("users: username and password required")
)
