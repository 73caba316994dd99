package students

import (
	"errors"
	"time"
)

// Student is a savings account holder. Balance and total debt are non-negative
// whole rupiah amounts maintained by the ledger and debt components; this
// package never mutates them directly.
type Student struct {
	ID        string    `json:"id"`
	NIS       string    `json:"nis"`
	Name      string    `json:"name"`
	ClassName string    `json:"class"`
	Balance   int64     `json:"balance"`
	TotalDebt int64     `json:"totalDebt"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// AccountInput describes the optional paired SISWA login created together
// with a student.
type AccountInput struct {
	Username     string
	PasswordHash string
	UsernameFold string
}

// CreateStudentInput carries a student creation request.
type CreateStudentInput struct {
	NIS       string
	Name      string
	ClassName string
	Account   *AccountInput
}

// UpdateStudentInput carries partial updates; nil fields are left unchanged.
type UpdateStudentInput struct {
	NIS       *string
	Name      *string
	ClassName *string
}

// ListQuery filters and paginates student listings.
type ListQuery struct {
	Search string
	Class  string
	Page   int
	Limit  int
}

var (
	// ErrStudentNotFound indicates the referenced student does not exist.
	ErrStudentNotFound = errors.New("students: student not found")
	// ErrDuplicateNIS indicates a registration number collision.
	ErrDuplicateNIS = errors.New("students: nis already exists")
	// ErrDuplicateUsername indicates the paired account name is taken.
	ErrDuplicateUsername = errors.New("students: username already exists")
	// ErrUnknownClass indicates the referenced class does not exist.
	ErrUnknownClass = errors.New("students: class not found")
	// ErrMissingField indicates a blank required attribute.
	ErrMissingField = errors.New("students: nis and name required")
)
