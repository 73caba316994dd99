package students

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/simpananku/simpananku/internal/platform/db"
	"github.com/simpananku/simpananku/internal/shared"
)

// Repository provides PostgreSQL backed persistence for the student
// directory.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateStudent inserts the student and, when requested, the paired SISWA
// account in one transaction.
func (r *Repository) CreateStudent(ctx context.Context, input CreateStudentInput, createdAt time.Time) (*Student, error) {
	student := Student{
		ID:        uuid.NewString(),
		NIS:       input.NIS,
		Name:      input.Name,
		ClassName: input.ClassName,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO students (id, nis, name, class_name, balance, total_debt, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, 0, 0, $5, $5)`,
			student.ID, student.NIS, student.Name, student.ClassName, createdAt,
		)
		if err != nil {
			if constraintViolated(err, "students_nis_key") {
				return ErrDuplicateNIS
			}
			return fmt.Errorf("students: insert student: %w", err)
		}
		if input.Account != nil {
			_, err := tx.Exec(ctx,
				`INSERT INTO users (id, username, username_fold, password_hash, role, student_id, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
				uuid.NewString(), input.Account.Username, input.Account.UsernameFold,
				input.Account.PasswordHash, shared.RoleSiswa, student.ID, createdAt,
			)
			if err != nil {
				if constraintViolated(err, "users_username_fold_key") {
					return ErrDuplicateUsername
				}
				return fmt.Errorf("students: insert account: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &student, nil
}

// UpdateStudent applies partial changes under a row lock.
func (r *Repository) UpdateStudent(ctx context.Context, id string, input UpdateStudentInput, updatedAt time.Time) (*Student, error) {
	var student Student
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`SELECT id, nis, name, class_name, balance, total_debt, created_at, updated_at
			 FROM students WHERE id = $1 FOR UPDATE`,
			id,
		).Scan(
			&student.ID, &student.NIS, &student.Name, &student.ClassName,
			&student.Balance, &student.TotalDebt, &student.CreatedAt, &student.UpdatedAt,
		)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrStudentNotFound
			}
			return fmt.Errorf("students: lock student: %w", err)
		}
		if input.NIS != nil {
			student.NIS = strings.TrimSpace(*input.NIS)
		}
		if input.Name != nil {
			student.Name = strings.TrimSpace(*input.Name)
		}
		if input.ClassName != nil {
			student.ClassName = *input.ClassName
		}
		student.UpdatedAt = updatedAt

		_, err = tx.Exec(ctx,
			`UPDATE students SET nis = $1, name = $2, class_name = $3, updated_at = $4 WHERE id = $5`,
			student.NIS, student.Name, student.ClassName, updatedAt, id,
		)
		if err != nil {
			if constraintViolated(err, "students_nis_key") {
				return ErrDuplicateNIS
			}
			return fmt.Errorf("students: update student: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &student, nil
}

// DeleteStudent removes the student and any paired SISWA account. Ledger and
// debt rows cascade through foreign keys.
func (r *Repository) DeleteStudent(ctx context.Context, id string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM users WHERE student_id = $1`, id,
		); err != nil {
			return fmt.Errorf("students: delete account: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("students: delete student: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrStudentNotFound
		}
		return nil
	})
}

// GetStudent returns one student by id.
func (r *Repository) GetStudent(ctx context.Context, id string) (*Student, error) {
	var student Student
	err := r.pool.QueryRow(ctx,
		`SELECT id, nis, name, class_name, balance, total_debt, created_at, updated_at
		 FROM students WHERE id = $1`,
		id,
	).Scan(
		&student.ID, &student.NIS, &student.Name, &student.ClassName,
		&student.Balance, &student.TotalDebt, &student.CreatedAt, &student.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("students: get student: %w", err)
	}
	return &student, nil
}

// ListStudents returns a filtered page plus the total match count.
func (r *Repository) ListStudents(ctx context.Context, query ListQuery) ([]Student, int, error) {
	where := `WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR nis ILIKE '%' || $1 || '%')
	          AND ($2 = '' OR class_name = $2)`

	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM students `+where, query.Search, query.Class,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("students: count students: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, nis, name, class_name, balance, total_debt, created_at, updated_at
		 FROM students `+where+`
		 ORDER BY name ASC, nis ASC
		 LIMIT $3 OFFSET $4`,
		query.Search, query.Class, query.Limit, (query.Page-1)*query.Limit,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("students: list students: %w", err)
	}
	defer rows.Close()

	students, err := scanStudents(rows)
	if err != nil {
		return nil, 0, err
	}
	return students, total, nil
}

// ListByClass returns all students of a class, sorted by name.
func (r *Repository) ListByClass(ctx context.Context, className string) ([]Student, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, nis, name, class_name, balance, total_debt, created_at, updated_at
		 FROM students WHERE class_name = $1
		 ORDER BY name ASC, nis ASC`,
		className,
	)
	if err != nil {
		return nil, fmt.Errorf("students: list by class: %w", err)
	}
	defer rows.Close()
	return scanStudents(rows)
}

// ClassExists reports whether a class with that exact name is registered.
func (r *Repository) ClassExists(ctx context.Context, className string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM classes WHERE name = $1)`, className,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("students: class exists: %w", err)
	}
	return exists, nil
}

func scanStudents(rows pgx.Rows) ([]Student, error) {
	var out []Student
	for rows.Next() {
		var st Student
		if err := rows.Scan(
			&st.ID, &st.NIS, &st.Name, &st.ClassName,
			&st.Balance, &st.TotalDebt, &st.CreatedAt, &st.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("students: scan row: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func constraintViolated(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}
