package debts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/simpananku/simpananku/internal/platform/db"
	"github.com/simpananku/simpananku/internal/savings"
)

// Repository provides PostgreSQL backed persistence for student and staff
// debts. It implements both StudentDebtRepository and TeacherDebtRepository.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateStudentDebt inserts the debt and raises the student's debt total in
// one transaction.
func (r *Repository) CreateStudentDebt(ctx context.Context, input CreateStudentDebtInput, createdAt time.Time) (*StudentDebt, error) {
	var debt StudentDebt
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var (
			studentName string
			className   string
		)
		err := tx.QueryRow(ctx,
			`SELECT name, class_name FROM students WHERE id = $1 FOR UPDATE`,
			input.StudentID,
		).Scan(&studentName, &className)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrStudentNotFound
			}
			return fmt.Errorf("debts: lock student: %w", err)
		}
		if input.ManagedClass != "" && className != input.ManagedClass {
			return ErrWrongClass
		}

		debt = StudentDebt{
			ID:          uuid.NewString(),
			StudentID:   input.StudentID,
			StudentName: studentName,
			Amount:      input.Amount,
			Notes:       input.Notes,
			DueDate:     input.DueDate,
			CreatedAt:   createdAt,
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO student_debts (id, student_id, amount, notes, is_paid, due_date, created_by, created_at)
			 VALUES ($1, $2, $3, $4, FALSE, $5, NULLIF($6, ''), $7)`,
			debt.ID, debt.StudentID, debt.Amount, debt.Notes, debt.DueDate, input.ActorID, debt.CreatedAt,
		); err != nil {
			return fmt.Errorf("debts: insert debt: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE students SET total_debt = total_debt + $1, updated_at = $2 WHERE id = $3`,
			debt.Amount, createdAt, debt.StudentID,
		); err != nil {
			return fmt.Errorf("debts: raise debt total: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &debt, nil
}

// PayStudentDebt settles a debt from the student's balance. Debt row and
// student row are locked in that order; the compensating withdrawal is posted
// inside the same transaction, so the balance guard runs exactly once.
func (r *Repository) PayStudentDebt(ctx context.Context, input PayStudentDebtInput, paidAt time.Time) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var (
			studentID string
			amount    int64
			isPaid    bool
		)
		err := tx.QueryRow(ctx,
			`SELECT student_id, amount, is_paid FROM student_debts WHERE id = $1 FOR UPDATE`,
			input.DebtID,
		).Scan(&studentID, &amount, &isPaid)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrDebtNotFound
			}
			return fmt.Errorf("debts: lock debt: %w", err)
		}
		if isPaid {
			return ErrAlreadyPaid
		}

		var (
			className string
			balance   int64
		)
		err = tx.QueryRow(ctx,
			`SELECT class_name, balance FROM students WHERE id = $1 FOR UPDATE`,
			studentID,
		).Scan(&className, &balance)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrStudentNotFound
			}
			return fmt.Errorf("debts: lock student: %w", err)
		}
		if input.ManagedClass != "" && className != input.ManagedClass {
			return ErrWrongClass
		}
		if balance < amount {
			return savings.ErrInsufficientBalance
		}

		if _, err := tx.Exec(ctx,
			`UPDATE student_debts SET is_paid = TRUE, paid_at = $1 WHERE id = $2`,
			paidAt, input.DebtID,
		); err != nil {
			return fmt.Errorf("debts: mark paid: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE students
			 SET balance = balance - $1, total_debt = total_debt - $1, updated_at = $2
			 WHERE id = $3`,
			amount, paidAt, studentID,
		); err != nil {
			return fmt.Errorf("debts: apply payment: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO savings (id, student_id, amount, type, notes, created_by, created_at)
			 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)`,
			uuid.NewString(), studentID, amount, savings.TypeWithdrawal,
			fmt.Sprintf("Pembayaran hutang %s", input.DebtID), input.ActorID, paidAt,
		); err != nil {
			return fmt.Errorf("debts: post compensating withdrawal: %w", err)
		}
		return nil
	})
}

// ListByStudent returns all debts for a student, newest first.
func (r *Repository) ListByStudent(ctx context.Context, studentID string) ([]StudentDebt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT d.id, d.student_id, st.name, d.amount, COALESCE(d.notes, ''),
		        d.is_paid, d.due_date, COALESCE(u.username, ''), d.created_at, d.paid_at
		 FROM student_debts d
		 JOIN students st ON st.id = d.student_id
		 LEFT JOIN users u ON u.id = d.created_by
		 WHERE d.student_id = $1
		 ORDER BY d.created_at DESC, d.id DESC`,
		studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("debts: list by student: %w", err)
	}
	defer rows.Close()

	var out []StudentDebt
	for rows.Next() {
		var d StudentDebt
		if err := rows.Scan(
			&d.ID, &d.StudentID, &d.StudentName, &d.Amount, &d.Notes,
			&d.IsPaid, &d.DueDate, &d.CreatedByName, &d.CreatedAt, &d.PaidAt,
		); err != nil {
			return nil, fmt.Errorf("debts: scan row: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CreateTeacherDebt inserts a staff debt.
func (r *Repository) CreateTeacherDebt(ctx context.Context, input CreateTeacherDebtInput, createdAt time.Time) (*TeacherDebt, error) {
	debt := TeacherDebt{
		ID:           uuid.NewString(),
		TeacherName:  input.TeacherName,
		Amount:       input.Amount,
		Notes:        input.Notes,
		RecordedByID: input.RecordedBy,
		CreatedAt:    createdAt,
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO teacher_debts (id, teacher_name, amount, notes, is_paid, recorded_by, created_at)
		 VALUES ($1, $2, $3, $4, FALSE, $5, $6)`,
		debt.ID, debt.TeacherName, debt.Amount, debt.Notes, debt.RecordedByID, debt.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("debts: insert teacher debt: %w", err)
	}
	return &debt, nil
}

// PayTeacherDebt marks a staff debt paid; no ledger interaction.
func (r *Repository) PayTeacherDebt(ctx context.Context, debtID string, paidAt time.Time) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var isPaid bool
		err := tx.QueryRow(ctx,
			`SELECT is_paid FROM teacher_debts WHERE id = $1 FOR UPDATE`,
			debtID,
		).Scan(&isPaid)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrDebtNotFound
			}
			return fmt.Errorf("debts: lock teacher debt: %w", err)
		}
		if isPaid {
			return ErrAlreadyPaid
		}
		if _, err := tx.Exec(ctx,
			`UPDATE teacher_debts SET is_paid = TRUE, paid_at = $1 WHERE id = $2`,
			paidAt, debtID,
		); err != nil {
			return fmt.Errorf("debts: mark teacher debt paid: %w", err)
		}
		return nil
	})
}

// ListTeacherDebts returns all staff debts, newest first.
func (r *Repository) ListTeacherDebts(ctx context.Context) ([]TeacherDebt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, teacher_name, amount, COALESCE(notes, ''), is_paid,
		        COALESCE(recorded_by, ''), created_at, paid_at
		 FROM teacher_debts
		 ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("debts: list teacher debts: %w", err)
	}
	defer rows.Close()

	var out []TeacherDebt
	for rows.Next() {
		var d TeacherDebt
		if err := rows.Scan(
			&d.ID, &d.TeacherName, &d.Amount, &d.Notes, &d.IsPaid,
			&d.RecordedByID, &d.CreatedAt, &d.PaidAt,
		); err != nil {
			return nil, fmt.Errorf("debts: scan teacher debt: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
