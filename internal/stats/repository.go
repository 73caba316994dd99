package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/simpananku/simpananku/internal/shared"
)

// Repository runs the dashboard aggregates against PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) CountStudents(ctx context.Context) (int, error) {
	return r.scalarInt(ctx, `SELECT COUNT(*) FROM students`)
}

func (r *Repository) CountTeachers(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, shared.RoleGuru).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("stats: count teachers: %w", err)
	}
	return n, nil
}

func (r *Repository) CountClasses(ctx context.Context) (int, error) {
	return r.scalarInt(ctx, `SELECT COUNT(*) FROM classes`)
}

func (r *Repository) SumBalances(ctx context.Context) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(balance), 0) FROM students`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("stats: sum balances: %w", err)
	}
	return total, nil
}

func (r *Repository) SumUnpaidStudentDebts(ctx context.Context) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM student_debts WHERE is_paid = FALSE`,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("stats: sum unpaid debts: %w", err)
	}
	return total, nil
}

func (r *Repository) SumUnpaidTeacherDebts(ctx context.Context) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM teacher_debts WHERE is_paid = FALSE`,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("stats: sum unpaid teacher debts: %w", err)
	}
	return total, nil
}

// FlowBetween sums ledger movement posted in [from, to).
func (r *Repository) FlowBetween(ctx context.Context, from, to time.Time) (int64, int64, error) {
	var deposits, withdrawals int64
	err := r.pool.QueryRow(ctx,
		`SELECT
		   COALESCE(SUM(amount) FILTER (WHERE type = 'DEPOSIT'), 0),
		   COALESCE(SUM(amount) FILTER (WHERE type = 'WITHDRAWAL'), 0)
		 FROM savings
		 WHERE created_at >= $1 AND created_at < $2`,
		from, to,
	).Scan(&deposits, &withdrawals)
	if err != nil {
		return 0, 0, fmt.Errorf("stats: flow between: %w", err)
	}
	return deposits, withdrawals, nil
}

func (r *Repository) scalarInt(ctx context.Context, query string) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("stats: scalar query: %w", err)
	}
	return n, nil
}
