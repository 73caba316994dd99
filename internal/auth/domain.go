package auth

import (
	"github.com/simpananku/simpananku/internal/shared"
	"github.com/simpananku/simpananku/internal/students"
)

// Account is the credential view of a user, including the password hash.
// It never leaves this package.
type Account struct {
	ID           string
	Username     string
	PasswordHash string
	Role         shared.Role
	ClassManaged *string
	StudentID    *string
}

// Profile is the authenticated user as returned to clients. Student is only
// set for SISWA accounts.
type Profile struct {
	ID           string            `json:"id"`
	Username     string            `json:"username"`
	Role         shared.Role       `json:"role"`
	ClassManaged *string           `json:"classManaged,omitempty"`
	Student      *students.Student `json:"student,omitempty"`
}
