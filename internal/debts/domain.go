package debts

import (
	"errors"
	"time"
)

// StudentDebt is money a student owes the school. Paying it draws the amount
// from the student's savings balance through a compensating ledger withdrawal.
type StudentDebt struct {
	ID            string     `json:"id"`
	StudentID     string     `json:"studentId"`
	StudentName   string     `json:"studentName,omitempty"`
	Amount        int64      `json:"amount"`
	Notes         string     `json:"notes,omitempty"`
	IsPaid        bool       `json:"isPaid"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	CreatedByName string     `json:"createdByName,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
}

// TeacherDebt is a staff debt recorded by the treasurer. It is independent of
// the student ledger; paying it never touches any balance.
type TeacherDebt struct {
	ID           string     `json:"id"`
	TeacherName  string     `json:"teacherName"`
	Amount       int64      `json:"amount"`
	Notes        string     `json:"notes,omitempty"`
	IsPaid       bool       `json:"isPaid"`
	RecordedByID string     `json:"recordedById"`
	CreatedAt    time.Time  `json:"createdAt"`
	PaidAt       *time.Time `json:"paidAt,omitempty"`
}

// CreateStudentDebtInput carries a student debt creation request.
type CreateStudentDebtInput struct {
	StudentID    string
	Amount       int64
	Notes        string
	DueDate      *time.Time
	ActorID      string
	ManagedClass string
}

// CreateTeacherDebtInput carries a staff debt creation request.
type CreateTeacherDebtInput struct {
	TeacherName string
	Amount      int64
	Notes       string
	RecordedBy  string
}

// PayStudentDebtInput identifies the debt and the acting teacher.
type PayStudentDebtInput struct {
	DebtID       string
	ActorID      string
	ManagedClass string
}

var (
	// ErrInvalidAmount indicates a non-positive debt amount.
	ErrInvalidAmount = errors.New("debts: amount must be positive")
	// ErrDebtNotFound indicates the referenced debt does not exist.
	ErrDebtNotFound = errors.New("debts: debt not found")
	// ErrAlreadyPaid indicates a repeated pay attempt on a settled debt.
	ErrAlreadyPaid = errors.New("debts: debt already paid")
	// ErrStudentNotFound indicates the referenced student does not exist.
	ErrStudentNotFound = errors.New("debts: student not found")
	// ErrWrongClass indicates the student is outside the actor's class.
	ErrWrongClass = errors.New("debts: student not in managed class")
	// ErrMissingTeacherName indicates a staff debt without a debtor name.
	ErrMissingTeacherName = errors.New("debts: teacher name required")
)
