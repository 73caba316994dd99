package deposits

import (
	"context"
	"time"
)

// RepositoryPort defines data access for deposit slips and daily summaries.
type RepositoryPort interface {
	// ListClassTransactions returns ledger entries for students of the
	// class posted in [from, to).
	ListClassTransactions(ctx context.Context, className string, from, to time.Time) ([]Transaction, error)
	SlipExists(ctx context.Context, guruID string, day time.Time) (bool, error)
	// CreateSlip persists a PENDING slip and fails with ErrAlreadySubmitted
	// when a slip for (guru, day) already exists, however the race falls.
	CreateSlip(ctx context.Context, input CreateSlipInput) (*DailyDepositSlip, error)
	ListPending(ctx context.Context) ([]DailyDepositSlip, error)
	// ConfirmSlip transitions PENDING -> CONFIRMED under a row lock.
	ConfirmSlip(ctx context.Context, slipID string, confirmedAt time.Time) (*DailyDepositSlip, error)
}

// Service coordinates the per-(teacher, day) submission state machine:
// NO_SUBMISSION -> PENDING -> CONFIRMED.
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

// DailySummary returns today's class transactions and whether a slip already
// exists for the teacher today, in any state.
func (s *Service) DailySummary(ctx context.Context, guru GuruRef) (*DailySummary, error) {
	if guru.ManagedClass == "" {
		return nil, ErrNoManagedClass
	}
	day, next := dayRange(s.now())
	transactions, err := s.repo.ListClassTransactions(ctx, guru.ManagedClass, day, next)
	if err != nil {
		return nil, err
	}
	submitted, err := s.repo.SlipExists(ctx, guru.ID, day)
	if err != nil {
		return nil, err
	}
	if transactions == nil {
		transactions = []Transaction{}
	}
	return &DailySummary{
		GuruID:           guru.ID,
		Transactions:     transactions,
		SubmissionStatus: submitted,
	}, nil
}

// Submit freezes today's net deposit into a PENDING slip. The net amount is
// recomputed from the ledger here and nowhere else; once the slip exists its
// amount is the binding record.
func (s *Service) Submit(ctx context.Context, guru GuruRef) (*DailyDepositSlip, error) {
	if guru.ManagedClass == "" {
		return nil, ErrNoManagedClass
	}
	now := s.now()
	day, next := dayRange(now)

	submitted, err := s.repo.SlipExists(ctx, guru.ID, day)
	if err != nil {
		return nil, err
	}
	if submitted {
		return nil, ErrAlreadySubmitted
	}

	transactions, err := s.repo.ListClassTransactions(ctx, guru.ManagedClass, day, next)
	if err != nil {
		return nil, err
	}
	net := netAmount(transactions)
	if net <= 0 {
		return nil, ErrNothingToSubmit
	}

	return s.repo.CreateSlip(ctx, CreateSlipInput{
		GuruID:    guru.ID,
		GuruName:  guru.Username,
		ClassName: guru.ManagedClass,
		Amount:    net,
		Day:       day,
		CreatedAt: now,
	})
}

// Pending returns all slips awaiting treasurer confirmation, oldest first.
func (s *Service) Pending(ctx context.Context) ([]DailyDepositSlip, error) {
	return s.repo.ListPending(ctx)
}

// Confirm acknowledges a PENDING slip. Confirmation is terminal and has no
// ledger effect; the balances moved when the underlying savings were posted.
func (s *Service) Confirm(ctx context.Context, slipID string) (*DailyDepositSlip, error) {
	return s.repo.ConfirmSlip(ctx, slipID, s.now())
}

func netAmount(transactions []Transaction) int64 {
	var net int64
	for _, tr := range transactions {
		if tr.Type == "WITHDRAWAL" {
			net -= tr.Amount
		} else {
			net += tr.Amount
		}
	}
	return net
}

// dayRange returns the server-local calendar day containing t as a
// half-open interval [midnight, next midnight).
func dayRange(t time.Time) (time.Time, time.Time) {
	local := t.Local()
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
	return day, day.AddDate(0, 0, 1)
}
