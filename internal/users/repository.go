package users

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

const userColumns = `id, username, role, class_managed, student_id, created_at, updated_at`

// Repository provides PostgreSQL backed persistence for login accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateUser inserts a staff account.
func (r *Repository) CreateUser(ctx context.Context, input CreateUserInput, createdAt time.Time) (*User, error) {
	user := User{
		ID:        uuid.NewString(),
		Username:  input.Username,
		Role:      input.Role,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, username, username_fold, password_hash, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		user.ID, input.Username, input.UsernameFold, input.PasswordHash, input.Role, createdAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("users: insert user: %w", err)
	}
	return &user, nil
}

// UpdateUser applies partial changes under a row lock.
func (r *Repository) UpdateUser(ctx context.Context, id string, input UpdateUserInput, updatedAt time.Time) (*User, error) {
	var user User
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var fold, passwordHash string
		err := tx.QueryRow(ctx,
			`SELECT `+userColumns+`, username_fold, password_hash
			 FROM users WHERE id = $1 FOR UPDATE`,
			id,
		).Scan(
			&user.ID, &user.Username, &user.Role, &user.ClassManaged, &user.StudentID,
			&user.CreatedAt, &user.UpdatedAt, &fold, &passwordHash,
		)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("users: lock user: %w", err)
		}
		if input.Username != nil {
			user.Username = *input.Username
			fold = *input.UsernameFold
		}
		if input.PasswordHash != nil {
			passwordHash = *input.PasswordHash
		}
		if input.Role != nil {
			user.Role = *input.Role
			// Moving a wali kelas off the GURU role detaches the class
			// the same way DeleteUser does, so the assignment never
			// points at a non-teacher.
			if user.Role != shared.RoleGuru && user.ClassManaged != nil {
				if _, err := tx.Exec(ctx,
					`UPDATE classes SET wali_kelas_id = NULL, updated_at = $1 WHERE wali_kelas_id = $2`,
					updatedAt, id,
				); err != nil {
					return fmt.Errorf("users: detach class: %w", err)
				}
				user.ClassManaged = nil
			}
		}
		user.UpdatedAt = updatedAt

		_, err = tx.Exec(ctx,
			`UPDATE users
			 SET username = $1, username_fold = $2, password_hash = $3, role = $4,
			     class_managed = $5, updated_at = $6
			 WHERE id = $7`,
			user.Username, fold, passwordHash, user.Role, user.ClassManaged, updatedAt, id,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateUsername
			}
			return fmt.Errorf("users: update user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes the account and, for a GURU with a class, detaches the
// class in the same transaction so the assignment never dangles.
func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var role shared.Role
		var classManaged *string
		err := tx.QueryRow(ctx,
			`SELECT role, class_managed FROM users WHERE id = $1 FOR UPDATE`, id,
		).Scan(&role, &classManaged)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("users: lock user: %w", err)
		}
		if role == shared.RoleGuru && classManaged != nil {
			if _, err := tx.Exec(ctx,
				`UPDATE classes SET wali_kelas_id = NULL WHERE wali_kelas_id = $1`, id,
			); err != nil {
				return fmt.Errorf("users: detach class: %w", err)
			}
		}
		if _, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
			return fmt.Errorf("users: delete user: %w", err)
		}
		return nil
	})
}

// GetUser returns one user by id.
func (r *Repository) GetUser(ctx context.Context, id string) (*User, error) {
	var user User
	err := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	).Scan(
		&user.ID, &user.Username, &user.Role, &user.ClassManaged, &user.StudentID,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("users: get user: %w", err)
	}
	return &user, nil
}

// ListUsers returns accounts, optionally filtered by role.
func (r *Repository) ListUsers(ctx context.Context, role shared.Role) ([]User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+`
		 FROM users
		 WHERE ($1 = '' OR role = $1)
		 ORDER BY username ASC`,
		role,
	)
	if err != nil {
		return nil, fmt.Errorf("users: list users: %w", err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

// ListAvailableTeachers returns GURU accounts without a class.
func (r *Repository) ListAvailableTeachers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+`
		 FROM users
		 WHERE role = $1 AND class_managed IS NULL
		 ORDER BY username ASC`,
		shared.RoleGuru,
	)
	if err != nil {
		return nil, fmt.Errorf("users: list available teachers: %w", err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

func scanUsers(rows pgx.Rows) ([]User, error) {
	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(
			&u.ID, &u.Username, &u.Role, &u.ClassManaged, &u.StudentID,
			&u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("users: scan row: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
