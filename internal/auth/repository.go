package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/simpananku/simpananku/internal/shared"
)

// Repository provides PostgreSQL backed credential lookups.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const accountQuery = `SELECT id, username, password_hash, role, class_managed, student_id FROM users `

// FindByUsername matches on the case-folded username column.
func (r *Repository) FindByUsername(ctx context.Context, usernameFold string) (*Account, error) {
	return r.scanOne(r.pool.QueryRow(ctx, accountQuery+`WHERE username_fold = $1`, usernameFold))
}

// FindByID returns the credential view of one user.
func (r *Repository) FindByID(ctx context.Context, id string) (*Account, error) {
	return r.scanOne(r.pool.QueryRow(ctx, accountQuery+`WHERE id = $1`, id))
}

func (r *Repository) scanOne(row pgx.Row) (*Account, error) {
	var account Account
	err := row.Scan(
		&account.ID, &account.Username, &account.PasswordHash,
		&account.Role, &account.ClassManaged, &account.StudentID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("auth: scan account: %w", err)
	}
	return &account, nil
}
