package savings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/simpananku/simpananku/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for the savings ledger.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// PostSaving locks the student row, applies the balance mutation, and appends
// the ledger entry in a single transaction. Two concurrent withdrawals can
// therefore never both pass the balance check against a stale read.
func (r *Repository) PostSaving(ctx context.Context, input CreateSavingInput, createdAt time.Time) (*Saving, error) {
	var saving Saving
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var (
			studentName string
			className   string
			balance     int64
		)
		err := tx.QueryRow(ctx,
			`SELECT name, class_name, balance FROM students WHERE id = $1 FOR UPDATE`,
			input.StudentID,
		).Scan(&studentName, &className, &balance)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrStudentNotFound
			}
			return fmt.Errorf("savings: lock student: %w", err)
		}
		if input.ManagedClass != "" && className != input.ManagedClass {
			return ErrWrongClass
		}

		delta := input.Amount
		if input.Type == TypeWithdrawal {
			if balance < input.Amount {
				return ErrInsufficientBalance
			}
			delta = -input.Amount
		}
		if _, err := tx.Exec(ctx,
			`UPDATE students SET balance = balance + $1, updated_at = $2 WHERE id = $3`,
			delta, createdAt, input.StudentID,
		); err != nil {
			return fmt.Errorf("savings: update balance: %w", err)
		}

		saving = Saving{
			ID:          uuid.NewString(),
			StudentID:   input.StudentID,
			StudentName: studentName,
			Amount:      input.Amount,
			Type:        input.Type,
			Notes:       input.Notes,
			CreatedBy:   input.ActorID,
			CreatedAt:   createdAt,
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO savings (id, student_id, amount, type, notes, created_by, created_at)
			 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)`,
			saving.ID, saving.StudentID, saving.Amount, saving.Type, saving.Notes, saving.CreatedBy, saving.CreatedAt,
		); err != nil {
			return fmt.Errorf("savings: insert entry: %w", err)
		}

		if input.ActorID != "" {
			err := tx.QueryRow(ctx, `SELECT username FROM users WHERE id = $1`, input.ActorID).
				Scan(&saving.CreatedByName)
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("savings: resolve actor: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &saving, nil
}

// ListByStudent returns the ledger history for a student, newest first.
func (r *Repository) ListByStudent(ctx context.Context, studentID string) ([]Saving, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT sv.id, sv.student_id, st.name, sv.amount, sv.type,
		        COALESCE(sv.notes, ''), COALESCE(sv.created_by, ''),
		        COALESCE(u.username, ''), sv.created_at
		 FROM savings sv
		 JOIN students st ON st.id = sv.student_id
		 LEFT JOIN users u ON u.id = sv.created_by
		 WHERE sv.student_id = $1
		 ORDER BY sv.created_at DESC, sv.id DESC`,
		studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("savings: list by student: %w", err)
	}
	defer rows.Close()
	return scanSavings(rows)
}

func scanSavings(rows pgx.Rows) ([]Saving, error) {
	var out []Saving
	for rows.Next() {
		var sv Saving
		if err := rows.Scan(
			&sv.ID, &sv.StudentID, &sv.StudentName, &sv.Amount, &sv.Type,
			&sv.Notes, &sv.CreatedBy, &sv.CreatedByName, &sv.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("savings: scan row: %w", err)
		}
		out = append(out, sv)
	}
	return out, rows.Err()
}
