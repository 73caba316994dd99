package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/simpananku/simpananku/internal/shared"
)

// RepositoryPort defines data access for login accounts. Deleting a GURU who
// manages a class detaches the class in the same transaction.
type RepositoryPort interface {
	CreateUser(ctx context.Context, input CreateUserInput, createdAt time.Time) (*User, error)
	UpdateUser(ctx context.Context, id string, input UpdateUserInput, updatedAt time.Time) (*User, error)
	DeleteUser(ctx context.Context, id string) error
	GetUser(ctx context.Context, id string) (*User, error)
	ListUsers(ctx context.Context, role shared.Role) ([]User, error)
	// ListAvailableTeachers returns GURU accounts not yet assigned a class.
	ListAvailableTeachers(ctx context.Context) ([]User, error)
}

// Service manages staff accounts.
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

// Create registers a staff account. SISWA accounts are created through the
// student directory instead.
func (s *Service) Create(ctx context.Context, username, password string, role shared.Role) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingField
	}
	if !staffRole(role) {
		return nil, ErrInvalidRole
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("users: hash password: %w", err)
	}
	return s.repo.CreateUser(ctx, CreateUserInput{
		Username:     username,
		UsernameFold: shared.Fold(username),
		PasswordHash: string(hash),
		Role:         role,
	}, s.now())
}

// UpdateRequest carries the handler-level update payload.
type UpdateRequest struct {
	Username *string
	Password *string
	Role     *shared.Role
}

// Update applies partial changes to a staff account.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*User, error) {
	var input UpdateUserInput
	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username == "" {
			return nil, ErrMissingField
		}
		fold := shared.Fold(username)
		input.Username = &username
		input.UsernameFold = &fold
	}
	if req.Password != nil {
		if *req.Password == "" {
			return nil, ErrMissingField
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("users: hash password: %w", err)
		}
		hashed := string(hash)
		input.PasswordHash = &hashed
	}
	if req.Role != nil {
		if !staffRole(*req.Role) {
			return nil, ErrInvalidRole
		}
		input.Role = req.Role
	}
	return s.repo.UpdateUser(ctx, id, input, s.now())
}

// Delete removes a staff account. A managed class is detached, not deleted.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteUser(ctx, id)
}

// Get returns one user by id.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetUser(ctx, id)
}

// List returns users, optionally filtered by role.
func (s *Service) List(ctx context.Context, role shared.Role) ([]User, error) {
	if role != "" && !shared.ValidRole(role) {
		return nil, ErrInvalidRole
	}
	return s.repo.ListUsers(ctx, role)
}

// AvailableTeachers returns GURU accounts without a class, for the
// assignment picker.
func (s *Service) AvailableTeachers(ctx context.Context) ([]User, error) {
	return s.repo.ListAvailableTeachers(ctx)
}

func staffRole(role shared.Role) bool {
	switch role {
	case shared.RoleAdmin, shared.RoleGuru, shared.RoleBendahara:
		return true
	default:
		return false
	}
}
