package debts

import (
	"context"
	"strings"
	"time"
)

// StudentDebtRepository defines data access for student debts. Mutating
// methods are atomic units: a failed payment leaves the debt, the student's
// totals, and the ledger untouched.
type StudentDebtRepository interface {
	CreateStudentDebt(ctx context.Context, input CreateStudentDebtInput, createdAt time.Time) (*StudentDebt, error)
	// PayStudentDebt marks the debt paid, decrements the student's debt
	// total, and posts the compensating withdrawal in one transaction.
	PayStudentDebt(ctx context.Context, input PayStudentDebtInput, paidAt time.Time) error
	ListByStudent(ctx context.Context, studentID string) ([]StudentDebt, error)
}

// TeacherDebtRepository defines data access for staff debts.
type TeacherDebtRepository interface {
	CreateTeacherDebt(ctx context.Context, input CreateTeacherDebtInput, createdAt time.Time) (*TeacherDebt, error)
	PayTeacherDebt(ctx context.Context, debtID string, paidAt time.Time) error
	ListTeacherDebts(ctx context.Context) ([]TeacherDebt, error)
}

// Service manages debt lifecycles for students and staff.
type Service struct {
	students StudentDebtRepository
	teachers TeacherDebtRepository
	now      func() time.Time
}

// NewService builds a Service instance.
func NewService(students StudentDebtRepository, teachers TeacherDebtRepository) *Service {
	return &Service{students: students, teachers: teachers, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateStudentDebt records a debt and raises the student's debt total.
func (s *Service) CreateStudentDebt(ctx context.Context, input CreateStudentDebtInput) (*StudentDebt, error) {
	if input.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.students.CreateStudentDebt(ctx, input, s.now())
}

// PayStudentDebt settles a debt from the student's balance. The whole
// operation is one transaction: mark paid, lower the debt total, and post the
// compensating withdrawal, or none of it.
func (s *Service) PayStudentDebt(ctx context.Context, input PayStudentDebtInput) error {
	return s.students.PayStudentDebt(ctx, input, s.now())
}

// ListByStudent returns all debts for a student, newest first.
func (s *Service) ListByStudent(ctx context.Context, studentID string) ([]StudentDebt, error) {
	return s.students.ListByStudent(ctx, studentID)
}

// CreateTeacherDebt records a staff debt on behalf of the treasurer.
func (s *Service) CreateTeacherDebt(ctx context.Context, input CreateTeacherDebtInput) (*TeacherDebt, error) {
	if input.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if strings.TrimSpace(input.TeacherName) == "" {
		return nil, ErrMissingTeacherName
	}
	return s.teachers.CreateTeacherDebt(ctx, input, s.now())
}

// PayTeacherDebt marks a staff debt paid. Staff debts are not drawn from any
// ledger balance.
func (s *Service) PayTeacherDebt(ctx context.Context, debtID string) error {
	return s.teachers.PayTeacherDebt(ctx, debtID, s.now())
}

// ListTeacherDebts returns all staff debts, newest first.
func (s *Service) ListTeacherDebts(ctx context.Context) ([]TeacherDebt, error) {
	return s.teachers.ListTeacherDebts(ctx)
}
