package classes

import (
	"context"
	"strings"
	"time"

	"github.com/simpananku/simpananku/internal/shared"
)

// RepositoryPort defines data access for the class/teacher assignment
// registry. Mutating methods are atomic units; in particular AssignWaliKelas
// performs the whole double-sided swap or none of it.
type RepositoryPort interface {
	CreateClass(ctx context.Context, name, nameFold string, createdAt time.Time) (*ClassData, error)
	// RenameClass cascades the new name to enrolled students and the
	// assigned teacher's managed-class field in the same transaction.
	RenameClass(ctx context.Context, id, name, nameFold string, updatedAt time.Time) (*ClassData, error)
	// DeleteClass fails with ErrClassInUse while students are enrolled and
	// clears the assigned teacher's managed-class field before removal.
	DeleteClass(ctx context.Context, id string, deletedAt time.Time) error
	// AssignWaliKelas swaps the 1:1 class<->teacher relation: it detaches
	// the teacher from any other class, clears the previous teacher of
	// this class, and sets both sides symmetrically. A nil teacher clears
	// both sides.
	AssignWaliKelas(ctx context.Context, classID string, teacherID *string, updatedAt time.Time) (*ClassData, error)
	ListClasses(ctx context.Context) ([]ClassData, error)
	GetClass(ctx context.Context, id string) (*ClassData, error)
}

// Service maintains the 1:1 relation between classes and homeroom teachers.
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

// Create registers a new class. Names are unique case-insensitively.
func (s *Service) Create(ctx context.Context, name string) (*ClassData, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	return s.repo.CreateClass(ctx, name, shared.Fold(name), s.now())
}

// Rename changes a class name, cascading to denormalised references.
func (s *Service) Rename(ctx context.Context, id, name string) (*ClassData, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	return s.repo.RenameClass(ctx, id, name, shared.Fold(name), s.now())
}

// Delete removes an empty class, detaching its teacher first.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteClass(ctx, id, s.now())
}

// AssignWaliKelas sets or clears the homeroom teacher of a class. A teacher
// already assigned elsewhere is silently detached from their prior class;
// both sides of the relation always change together.
func (s *Service) AssignWaliKelas(ctx context.Context, classID string, teacherID *string) (*ClassData, error) {
	if teacherID != nil && strings.TrimSpace(*teacherID) == "" {
		teacherID = nil
	}
	return s.repo.AssignWaliKelas(ctx, classID, teacherID, s.now())
}

// List returns all classes with derived student counts and teacher names.
func (s *Service) List(ctx context.Context) ([]ClassData, error) {
	return s.repo.ListClasses(ctx)
}

// Get returns one class by id.
func (s *Service) Get(ctx context.Context, id string) (*ClassData, error) {
	return s.repo.GetClass(ctx, id)
}
