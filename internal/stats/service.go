package stats

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// RepositoryPort defines the aggregate queries behind the dashboard.
type RepositoryPort interface {
	CountStudents(ctx context.Context) (int, error)
	CountTeachers(ctx context.Context) (int, error)
	CountClasses(ctx context.Context) (int, error)
	SumBalances(ctx context.Context) (int64, error)
	SumUnpaidStudentDebts(ctx context.Context) (int64, error)
	SumUnpaidTeacherDebts(ctx context.Context) (int64, error)
	// FlowBetween sums deposits and withdrawals posted in [from, to).
	FlowBetween(ctx context.Context, from, to time.Time) (deposits, withdrawals int64, err error)
}

// Service assembles dashboard numbers. The independent aggregates are
// fetched concurrently.
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

// Overview returns the dashboard snapshot, including a 7 day flow series
// ending today.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var out Overview
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.TotalStudents, err = s.repo.CountStudents(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		out.TotalTeachers, err = s.repo.CountTeachers(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		out.TotalClasses, err = s.repo.CountClasses(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		out.TotalBalance, err = s.repo.SumBalances(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		out.TotalDebt, err = s.repo.SumUnpaidStudentDebts(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		out.TotalStaffDebt, err = s.repo.SumUnpaidTeacherDebts(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		out.TodayDeposits, out.TodayWithdrawals, err = s.repo.FlowBetween(ctx, today, today.AddDate(0, 0, 1))
		return err
	})

	weekly := make([]DayPoint, 7)
	for i := range weekly {
		day := today.AddDate(0, 0, i-6)
		idx := i
		g.Go(func() error {
			deposits, withdrawals, err := s.repo.FlowBetween(ctx, day, day.AddDate(0, 0, 1))
			if err != nil {
				return err
			}
			weekly[idx] = DayPoint{Date: dayKey(day), Deposits: deposits, Withdrawals: withdrawals}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	out.Weekly = weekly
	return &out, nil
}
