package classes

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
	"github.com/simpananku/simpananku/internal/shared"
)

// Repository provides PostgreSQL backed persistence for classes and the
// class<->teacher assignment.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const classSelect = `
	SELECT c.id, c.name, c.wali_kelas_id, u.username,
	       (SELECT COUNT(*) FROM students st WHERE st.class_name = c.name) AS student_count
	FROM classes c
	LEFT JOIN users u ON u.id = c.wali_kelas_id`

// CreateClass inserts a class. The unique index over the folded name turns
// case-insensitive collisions into ErrDuplicateName.
func (r *Repository) CreateClass(ctx context.Context, name, nameFold string, createdAt time.Time) (*ClassData, error) {
	class := ClassData{ID: uuid.NewString(), Name: name}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO classes (id, name, name_fold, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $4)`,
		class.ID, name, nameFold, createdAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("classes: insert class: %w", err)
	}
	return &class, nil
}

// RenameClass updates the class name and cascades it to enrolled students and
// the assigned teacher in one transaction.
func (r *Repository) RenameClass(ctx context.Context, id, name, nameFold string, updatedAt time.Time) (*ClassData, error) {
	var class *ClassData
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var (
			oldName string
			waliID  *string
		)
		err := tx.QueryRow(ctx,
			`SELECT name, wali_kelas_id FROM classes WHERE id = $1 FOR UPDATE`,
			id,
		).Scan(&oldName, &waliID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrClassNotFound
			}
			return fmt.Errorf("classes: lock class: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`UPDATE classes SET name = $1, name_fold = $2, updated_at = $3 WHERE id = $4`,
			name, nameFold, updatedAt, id,
		); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateName
			}
			return fmt.Errorf("classes: rename class: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE students SET class_name = $1, updated_at = $2 WHERE class_name = $3`,
			name, updatedAt, oldName,
		); err != nil {
			return fmt.Errorf("classes: cascade rename to students: %w", err)
		}
		if waliID != nil {
			if _, err := tx.Exec(ctx,
				`UPDATE users SET class_managed = $1, updated_at = $2 WHERE id = $3`,
				name, updatedAt, *waliID,
			); err != nil {
				return fmt.Errorf("classes: cascade rename to teacher: %w", err)
			}
		}

		class, err = r.getClassTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return class, nil
}

// DeleteClass removes an empty class, clearing the assigned teacher first.
func (r *Repository) DeleteClass(ctx context.Context, id string, deletedAt time.Time) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var (
			name   string
			waliID *string
		)
		err := tx.QueryRow(ctx,
			`SELECT name, wali_kelas_id FROM classes WHERE id = $1 FOR UPDATE`,
			id,
		).Scan(&name, &waliID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrClassNotFound
			}
			return fmt.Errorf("classes: lock class: %w", err)
		}

		var count int
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM students WHERE class_name = $1`, name,
		).Scan(&count); err != nil {
			return fmt.Errorf("classes: count students: %w", err)
		}
		if count > 0 {
			return ErrClassInUse
		}

		if waliID != nil {
			if _, err := tx.Exec(ctx,
				`UPDATE users SET class_managed = NULL, updated_at = $1 WHERE id = $2`,
				deletedAt, *waliID,
			); err != nil {
				return fmt.Errorf("classes: detach teacher: %w", err)
			}
		}
		if _, err := tx.Exec(ctx, `DELETE FROM classes WHERE id = $1`, id); err != nil {
			return fmt.Errorf("classes: delete class: %w", err)
		}
		return nil
	})
}

// AssignWaliKelas performs the double-sided swap in one transaction so a
// reader can never observe a class pointing at a teacher who does not point
// back.
func (r *Repository) AssignWaliKelas(ctx context.Context, classID string, teacherID *string, updatedAt time.Time) (*ClassData, error) {
	var class *ClassData
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var (
			className string
			prevID    *string
		)
		err := tx.QueryRow(ctx,
			`SELECT name, wali_kelas_id FROM classes WHERE id = $1 FOR UPDATE`,
			classID,
		).Scan(&className, &prevID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrClassNotFound
			}
			return fmt.Errorf("classes: lock class: %w", err)
		}

		if teacherID != nil {
			var role shared.Role
			err := tx.QueryRow(ctx,
				`SELECT role FROM users WHERE id = $1 FOR UPDATE`, *teacherID,
			).Scan(&role)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return ErrTeacherNotFound
				}
				return fmt.Errorf("classes: lock teacher: %w", err)
			}
			if role != shared.RoleGuru {
				return ErrNotATeacher
			}

			// Detach the teacher from any other class they manage.
			if _, err := tx.Exec(ctx,
				`UPDATE classes SET wali_kelas_id = NULL, updated_at = $1
				 WHERE wali_kelas_id = $2 AND id <> $3`,
				updatedAt, *teacherID, classID,
			); err != nil {
				return fmt.Errorf("classes: detach teacher from prior class: %w", err)
			}
		}

		if prevID != nil && (teacherID == nil || *prevID != *teacherID) {
			if _, err := tx.Exec(ctx,
				`UPDATE users SET class_managed = NULL, updated_at = $1 WHERE id = $2`,
				updatedAt, *prevID,
			); err != nil {
				return fmt.Errorf("classes: clear previous teacher: %w", err)
			}
		}

		if _, err := tx.Exec(ctx,
			`UPDATE classes SET wali_kelas_id = $1, updated_at = $2 WHERE id = $3`,
			teacherID, updatedAt, classID,
		); err != nil {
			return fmt.Errorf("classes: set assignment: %w", err)
		}
		if teacherID != nil {
			if _, err := tx.Exec(ctx,
				`UPDATE users SET class_managed = $1, updated_at = $2 WHERE id = $3`,
				className, updatedAt, *teacherID,
			); err != nil {
				return fmt.Errorf("classes: set teacher class: %w", err)
			}
		}

		class, err = r.getClassTx(ctx, tx, classID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return class, nil
}

// ListClasses returns all classes with derived fields, sorted by name.
func (r *Repository) ListClasses(ctx context.Context) ([]ClassData, error) {
	rows, err := r.pool.Query(ctx, classSelect+` ORDER BY c.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("classes: list classes: %w", err)
	}
	defer rows.Close()

	var out []ClassData
	for rows.Next() {
		var c ClassData
		if err := rows.Scan(&c.ID, &c.Name, &c.WaliKelasID, &c.WaliKelasName, &c.StudentCount); err != nil {
			return nil, fmt.Errorf("classes: scan class: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetClass returns one class by id with derived fields.
func (r *Repository) GetClass(ctx context.Context, id string) (*ClassData, error) {
	var c ClassData
	err := r.pool.QueryRow(ctx, classSelect+` WHERE c.id = $1`, id).
		Scan(&c.ID, &c.Name, &c.WaliKelasID, &c.WaliKelasName, &c.StudentCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("classes: get class: %w", err)
	}
	return &c, nil
}

func (r *Repository) getClassTx(ctx context.Context, tx pgx.Tx, id string) (*ClassData, error) {
	var c ClassData
	err := tx.QueryRow(ctx, classSelect+` WHERE c.id = $1`, id).
		Scan(&c.ID, &c.Name, &c.WaliKelasID, &c.WaliKelasName, &c.StudentCount)
	if err != nil {
		return nil, fmt.Errorf("classes: reload class: %w", err)
	}
	return &c, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
