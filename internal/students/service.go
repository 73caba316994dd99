package students

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/simpananku/simpananku/internal/shared"
)

// RepositoryPort defines data access for the student directory. Creating a
// student with a paired account, and deleting a student with its account, are
// atomic units.
type RepositoryPort interface {
	CreateStudent(ctx context.Context, input CreateStudentInput, createdAt time.Time) (*Student, error)
	UpdateStudent(ctx context.Context, id string, input UpdateStudentInput, updatedAt time.Time) (*Student, error)
	// DeleteStudent removes the student and any paired SISWA account.
	DeleteStudent(ctx context.Context, id string) error
	GetStudent(ctx context.Context, id string) (*Student, error)
	ListStudents(ctx context.Context, query ListQuery) ([]Student, int, error)
	ListByClass(ctx context.Context, className string) ([]Student, error)
	ClassExists(ctx context.Context, className string) (bool, error)
}

// Service manages the student directory.
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

// CreateRequest is the service-level creation payload, before password
// hashing.
type CreateRequest struct {
	NIS       string
	Name      string
	ClassName string
	// WithAccount creates a paired SISWA login using Username/Password.
	WithAccount bool
	Username    string
	Password    string
}

// Create registers a student, optionally with a paired SISWA account.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Student, error) {
	input := CreateStudentInput{
		NIS:       strings.TrimSpace(req.NIS),
		Name:      strings.TrimSpace(req.Name),
		ClassName: strings.TrimSpace(req.ClassName),
	}
	if input.NIS == "" || input.Name == "" {
		return nil, ErrMissingField
	}
	exists, err := s.repo.ClassExists(ctx, input.ClassName)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUnknownClass
	}

	if req.WithAccount {
		username := strings.TrimSpace(req.Username)
		if username == "" {
			username = "siswa_" + strings.ToLower(strings.ReplaceAll(input.Name, " ", "_"))
		}
		password := req.Password
		if password == "" {
			password = input.NIS
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("students: hash password: %w", err)
		}
		input.Account = &AccountInput{
			Username:     username,
			UsernameFold: shared.Fold(username),
			PasswordHash: string(hash),
		}
	}
	return s.repo.CreateStudent(ctx, input, s.now())
}

// Update applies partial changes; a class change is validated against the
// registry first.
func (s *Service) Update(ctx context.Context, id string, input UpdateStudentInput) (*Student, error) {
	if input.NIS != nil && strings.TrimSpace(*input.NIS) == "" {
		return nil, ErrMissingField
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, ErrMissingField
	}
	if input.ClassName != nil {
		exists, err := s.repo.ClassExists(ctx, *input.ClassName)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrUnknownClass
		}
	}
	return s.repo.UpdateStudent(ctx, id, input, s.now())
}

// Delete removes a student together with any paired account.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteStudent(ctx, id)
}

// Get returns one student by id.
func (s *Service) Get(ctx context.Context, id string) (*Student, error) {
	return s.repo.GetStudent(ctx, id)
}

// List returns a filtered page of students plus the total match count.
func (s *Service) List(ctx context.Context, query ListQuery) ([]Student, int, error) {
	if query.Limit <= 0 {
		query.Limit = 20
	}
	if query.Page <= 0 {
		query.Page = 1
	}
	return s.repo.ListStudents(ctx, query)
}

// ListByClass returns all students of a class, sorted by name.
func (s *Service) ListByClass(ctx context.Context, className string) ([]Student, error) {
	return s.repo.ListByClass(ctx, className)
}
