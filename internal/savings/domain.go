package savings

import (
	"errors"
	"time"
)

// SavingType enumerates ledger entry directions.
type SavingType string

const (
	TypeDeposit    SavingType = "DEPOSIT"
	TypeWithdrawal SavingType = "WITHDRAWAL"
)

// Saving is an immutable ledger entry against a student's balance.
// Corrections are new compensating entries; posted entries are never
// updated or deleted.
type Saving struct {
	ID            string     `json:"id"`
	StudentID     string     `json:"studentId"`
	StudentName   string     `json:"studentName,omitempty"`
	Amount        int64      `json:"amount"`
	Type          SavingType `json:"type"`
	Notes         string     `json:"notes,omitempty"`
	CreatedBy     string     `json:"-"`
	CreatedByName string     `json:"createdByName,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// CreateSavingInput carries a posting request.
type CreateSavingInput struct {
	StudentID string
	Amount    int64
	Type      SavingType
	Notes     string
	ActorID   string
	// ManagedClass restricts the posting to students of that class when
	// non-empty (teacher-role actors may only post to their own class).
	ManagedClass string
}

var (
	// ErrInvalidAmount indicates a non-positive posting amount.
	ErrInvalidAmount = errors.New("savings: amount must be positive")
	// ErrInvalidType indicates an unknown saving type.
	ErrInvalidType = errors.New("savings: unknown saving type")
	// ErrInsufficientBalance indicates a withdrawal larger than the
	// student's current balance.
	ErrInsufficientBalance = errors.New("savings: insufficient balance")
	// ErrStudentNotFound indicates the referenced student does not exist.
	ErrStudentNotFound = errors.New("savings: student not found")
	// ErrWrongClass indicates the student is outside the actor's class.
	ErrWrongClass = errors.New("savings: student not in managed class")
)
