package savings

import (
	"context"
	"time"
)

// RepositoryPort defines data access methods for the savings ledger.
type RepositoryPort interface {
	// PostSaving applies the balance mutation and appends the ledger entry
	// as one atomic unit. The balance guard for withdrawals runs against
	// the row read inside that same unit.
	PostSaving(ctx context.Context, input CreateSavingInput, createdAt time.Time) (*Saving, error)
	ListByStudent(ctx context.Context, studentID string) ([]Saving, error)
}

// Service owns the mutation rules for student savings balances.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateSaving posts a deposit or withdrawal against a student.
func (s *Service) CreateSaving(ctx context.Context, input CreateSavingInput) (*Saving, error) {
	if input.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if input.Type != TypeDeposit && input.Type != TypeWithdrawal {
		return nil, ErrInvalidType
	}
	return s.repo.PostSaving(ctx, input, s.now())
}

// ListByStudent returns the full ledger history for a student, newest first.
func (s *Service) ListByStudent(ctx context.Context, studentID string) ([]Saving, error) {
	return s.repo.ListByStudent(ctx, studentID)
}
