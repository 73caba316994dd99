package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/simpananku/simpananku/internal/shared"
	"github.com/simpananku/simpananku/internal/students"
)

// RepositoryPort defines credential lookups. Usernames are matched on their
// case-folded form.
type RepositoryPort interface {
	FindByUsername(ctx context.Context, usernameFold string) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)
}

type studentLoader interface {
	Get(ctx context.Context, id string) (*students.Student, error)
}

// Service wraps authentication business rules on top of the opaque token
// store.
type Service struct {
	repo     RepositoryPort
	tokens   *shared.TokenManager
	students studentLoader
}

// NewService constructs a Service instance.
func NewService(repo RepositoryPort, tokens *shared.TokenManager, students studentLoader) *Service {
	return &Service{repo: repo, tokens: tokens, students: students}
}

// Login validates credentials and issues a bearer token. Lookup and compare
// failures collapse into one error so callers cannot probe for usernames.
func (s *Service) Login(ctx context.Context, username, password string) (string, *Profile, error) {
	account, err := s.repo.FindByUsername(ctx, shared.Fold(username))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", nil, shared.ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return "", nil, shared.ErrInvalidCredentials
	}

	identity := shared.Identity{
		UserID:   account.ID,
		Username: account.Username,
		Role:     account.Role,
	}
	if account.ClassManaged != nil {
		identity.ClassManaged = *account.ClassManaged
	}
	if account.StudentID != nil {
		identity.StudentID = *account.StudentID
	}
	token, err := s.tokens.Issue(ctx, &identity)
	if err != nil {
		return "", nil, fmt.Errorf("auth: issue token: %w", err)
	}

	profile, err := s.profileFor(ctx, account)
	if err != nil {
		return "", nil, err
	}
	return token, profile, nil
}

// Profile returns the current account state, re-read so role or class
// changes made after login are visible.
func (s *Service) Profile(ctx context.Context, userID string) (*Profile, error) {
	account, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnauthorized
		}
		return nil, err
	}
	return s.profileFor(ctx, account)
}

// Logout revokes the presented token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}

func (s *Service) profileFor(ctx context.Context, account *Account) (*Profile, error) {
	profile := &Profile{
		ID:           account.ID,
		Username:     account.Username,
		Role:         account.Role,
		ClassManaged: account.ClassManaged,
	}
	if account.Role == shared.RoleSiswa && account.StudentID != nil {
		student, err := s.students.Get(ctx, *account.StudentID)
		if err != nil && !errors.Is(err, students.ErrStudentNotFound) {
			return nil, err
		}
		profile.Student = student
	}
	return profile, nil
}
