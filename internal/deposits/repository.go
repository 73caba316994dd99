package deposits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/simpananku/simpananku/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for deposit slips.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListClassTransactions returns ledger entries for students of the class in
// [from, to), oldest first.
func (r *Repository) ListClassTransactions(ctx context.Context, className string, from, to time.Time) ([]Transaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT sv.id, sv.student_id, st.name, sv.amount, sv.type,
		        COALESCE(sv.notes, ''), sv.created_at
		 FROM savings sv
		 JOIN students st ON st.id = sv.student_id
		 WHERE st.class_name = $1 AND sv.created_at >= $2 AND sv.created_at < $3
		 ORDER BY sv.created_at ASC, sv.id ASC`,
		className, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("deposits: list class transactions: %w", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var tr Transaction
		if err := rows.Scan(
			&tr.ID, &tr.StudentID, &tr.StudentName, &tr.Amount, &tr.Type, &tr.Notes, &tr.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("deposits: scan transaction: %w", err)
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

// SlipExists reports whether any slip exists for (guru, day).
func (r *Repository) SlipExists(ctx context.Context, guruID string, day time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM deposit_slips WHERE guru_id = $1 AND slip_date = $2)`,
		guruID, day,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("deposits: slip exists: %w", err)
	}
	return exists, nil
}

// CreateSlip inserts a PENDING slip. The unique index on (guru_id, slip_date)
// is the authoritative at-most-one-per-day guard; a violation maps to
// ErrAlreadySubmitted regardless of how the race fell.
func (r *Repository) CreateSlip(ctx context.Context, input CreateSlipInput) (*DailyDepositSlip, error) {
	slip := DailyDepositSlip{
		ID:        uuid.NewString(),
		GuruID:    input.GuruID,
		GuruName:  input.GuruName,
		ClassName: input.ClassName,
		Amount:    input.Amount,
		Status:    StatusPending,
		SlipDate:  input.Day,
		CreatedAt: input.CreatedAt,
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO deposit_slips (id, guru_id, class_name, amount, status, slip_date, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		slip.ID, slip.GuruID, slip.ClassName, slip.Amount, slip.Status, slip.SlipDate, slip.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrAlreadySubmitted
		}
		return nil, fmt.Errorf("deposits: insert slip: %w", err)
	}
	return &slip, nil
}

// ListPending returns all PENDING slips, oldest first.
func (r *Repository) ListPending(ctx context.Context) ([]DailyDepositSlip, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.guru_id, COALESCE(u.username, ''), s.class_name,
		        s.amount, s.status, s.slip_date, s.created_at, s.confirmed_at
		 FROM deposit_slips s
		 LEFT JOIN users u ON u.id = s.guru_id
		 WHERE s.status = $1
		 ORDER BY s.created_at ASC, s.id ASC`,
		StatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("deposits: list pending: %w", err)
	}
	defer rows.Close()

	var out []DailyDepositSlip
	for rows.Next() {
		var slip DailyDepositSlip
		if err := rows.Scan(
			&slip.ID, &slip.GuruID, &slip.GuruName, &slip.ClassName,
			&slip.Amount, &slip.Status, &slip.SlipDate, &slip.CreatedAt, &slip.ConfirmedAt,
		); err != nil {
			return nil, fmt.Errorf("deposits: scan slip: %w", err)
		}
		out = append(out, slip)
	}
	return out, rows.Err()
}

// ConfirmSlip transitions a slip from PENDING to CONFIRMED under a row lock.
func (r *Repository) ConfirmSlip(ctx context.Context, slipID string, confirmedAt time.Time) (*DailyDepositSlip, error) {
	var slip DailyDepositSlip
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`SELECT s.id, s.guru_id, COALESCE(u.username, ''), s.class_name,
			        s.amount, s.status, s.slip_date, s.created_at
			 FROM deposit_slips s
			 LEFT JOIN users u ON u.id = s.guru_id
			 WHERE s.id = $1
			 FOR UPDATE OF s`,
			slipID,
		).Scan(
			&slip.ID, &slip.GuruID, &slip.GuruName, &slip.ClassName,
			&slip.Amount, &slip.Status, &slip.SlipDate, &slip.CreatedAt,
		)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrSlipNotFound
			}
			return fmt.Errorf("deposits: lock slip: %w", err)
		}
		if slip.Status != StatusPending {
			return ErrAlreadyConfirmed
		}
		if _, err := tx.Exec(ctx,
			`UPDATE deposit_slips SET status = $1, confirmed_at = $2 WHERE id = $3`,
			StatusConfirmed, confirmedAt, slipID,
		); err != nil {
			return fmt.Errorf("deposits: confirm slip: %w", err)
		}
		slip.Status = StatusConfirmed
		slip.ConfirmedAt = &confirmedAt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &slip, nil
}

// ListUnsubmittedTeachers names teachers whose classes have ledger postings
// in [from, to) but who have no slip for that day. Used by the reminder job.
func (r *Repository) ListUnsubmittedTeachers(ctx context.Context, from, to time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT u.username
		 FROM users u
		 JOIN students st ON st.class_name = u.class_managed
		 JOIN savings sv ON sv.student_id = st.id
		 WHERE u.role = 'GURU'
		   AND sv.created_at >= $1 AND sv.created_at < $2
		   AND NOT EXISTS (
		     SELECT 1 FROM deposit_slips ds
		     WHERE ds.guru_id = u.id AND ds.slip_date = $1
		   )
		 ORDER BY u.username`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("deposits: list unsubmitted teachers: %w", err)
	}
	defer rows.Close()

	var usernames []string
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, fmt.Errorf("deposits: scan username: %w", err)
		}
		usernames = append(usernames, username)
	}
	return usernames, rows.Err()
}
