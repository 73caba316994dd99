package classes

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/simpananku/simpananku/internal/shared"
)

type memoryClass struct {
	id       string
	name     string
	nameFold string
	waliID   *string
}

type memoryTeacher struct {
	id           string
	username     string
	role         shared.Role
	classManaged *string
}

type memoryClassesRepo struct {
	mu         sync.Mutex
	classes    map[string]*memoryClass
	teachers   map[string]*memoryTeacher
	enrolments map[string]int // class name -> student count
}

func newMemoryClassesRepo() *memoryClassesRepo {
	return &memoryClassesRepo{
		classes:    make(map[string]*memoryClass),
		teachers:   make(map[string]*memoryTeacher),
		enrolments: make(map[string]int),
	}
}

func (r *memoryClassesRepo) data(c *memoryClass) *ClassData {
	out := &ClassData{ID: c.id, Name: c.name, StudentCount: r.enrolments[c.name]}
	if c.waliID != nil {
		id := *c.waliID
		out.WaliKelasID = &id
		if t, ok := r.teachers[id]; ok {
			name := t.username
			out.WaliKelasName = &name
		}
	}
	return out
}

func (r *memoryClassesRepo) CreateClass(ctx context.Context, name, nameFold string, createdAt time.Time) (*ClassData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.classes {
		if c.nameFold == nameFold {
			return nil, ErrDuplicateName
		}
	}
	c := &memoryClass{id: uuid.NewString(), name: name, nameFold: nameFold}
	r.classes[c.id] = c
	return r.data(c), nil
}

func (r *memoryClassesRepo) RenameClass(ctx context.Context, id, name, nameFold string, updatedAt time.Time) (*ClassData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.classes[id]
	if !ok {
		return nil, ErrClassNotFound
	}
	for _, other := range r.classes {
		if other.id != id && other.nameFold == nameFold {
			return nil, ErrDuplicateName
		}
	}
	old := c.name
	c.name, c.nameFold = name, nameFold
	r.enrolments[name] = r.enrolments[old]
	delete(r.enrolments, old)
	if c.waliID != nil {
		if t, ok := r.teachers[*c.waliID]; ok {
			t.classManaged = &name
		}
	}
	return r.data(c), nil
}

func (r *memoryClassesRepo) DeleteClass(ctx context.Context, id string, deletedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.classes[id]
	if !ok {
		return ErrClassNotFound
	}
	if r.enrolments[c.name] > 0 {
		return ErrClassInUse
	}
	if c.waliID != nil {
		if t, ok := r.teachers[*c.waliID]; ok {
			t.classManaged = nil
		}
	}
	delete(r.classes, id)
	return nil
}

func (r *memoryClassesRepo) AssignWaliKelas(ctx context.Context, classID string, teacherID *string, updatedAt time.Time) (*ClassData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.classes[classID]
	if !ok {
		return nil, ErrClassNotFound
	}
	if teacherID != nil {
		t, ok := r.teachers[*teacherID]
		if !ok {
			return nil, ErrTeacherNotFound
		}
		if t.role != shared.RoleGuru {
			return nil, ErrNotATeacher
		}
		for _, other := range r.classes {
			if other.id != classID && other.waliID != nil && *other.waliID == *teacherID {
				other.waliID = nil
			}
		}
	}
	if c.waliID != nil && (teacherID == nil || *c.waliID != *teacherID) {
		if prev, ok := r.teachers[*c.waliID]; ok {
			prev.classManaged = nil
		}
	}
	c.waliID = teacherID
	if teacherID != nil {
		name := c.name
		r.teachers[*teacherID].classManaged = &name
	}
	return r.data(c), nil
}

func (r *memoryClassesRepo) ListClasses(ctx context.Context) ([]ClassData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ClassData
	for _, c := range r.classes {
		out = append(out, *r.data(c))
	}
	return out, nil
}

func (r *memoryClassesRepo) GetClass(ctx context.Context, id string) (*ClassData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.classes[id]
	if !ok {
		return nil, ErrClassNotFound
	}
	return r.data(c), nil
}

// requireSymmetry asserts the double-sided invariant: a class references a
// teacher iff that teacher references the class back by name.
func requireSymmetry(t *testing.T, repo *memoryClassesRepo) {
	t.Helper()
	for _, c := range repo.classes {
		if c.waliID != nil {
			teacher := repo.teachers[*c.waliID]
			require.NotNil(t, teacher.classManaged, "class %s points at teacher %s who points nowhere", c.name, teacher.username)
			require.Equal(t, c.name, *teacher.classManaged)
		}
	}
	for _, teacher := range repo.teachers {
		if teacher.classManaged == nil {
			continue
		}
		found := false
		for _, c := range repo.classes {
			if c.name == *teacher.classManaged {
				require.NotNil(t, c.waliID)
				require.Equal(t, teacher.id, *c.waliID)
				found = true
			}
		}
		require.True(t, found, "teacher %s manages unknown class", teacher.username)
	}
}

func addTeacher(repo *memoryClassesRepo, id, username string) {
	repo.teachers[id] = &memoryTeacher{id: id, username: username, role: shared.RoleGuru}
}

func TestCreateClassDuplicateNameIsCaseInsensitive(t *testing.T) {
	svc := NewService(newMemoryClassesRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, "10-A")
	require.NoError(t, err)

	_, err = svc.Create(ctx, "10-a")
	require.ErrorIs(t, err, ErrDuplicateName)

	_, err = svc.Create(ctx, "  ")
	require.ErrorIs(t, err, ErrNameRequired)
}

func TestAssignWaliKelasSetsBothSides(t *testing.T) {
	repo := newMemoryClassesRepo()
	addTeacher(repo, "user-2", "guru_a")
	svc := NewService(repo)
	ctx := context.Background()

	class, err := svc.Create(ctx, "10-A")
	require.NoError(t, err)

	teacherID := "user-2"
	got, err := svc.AssignWaliKelas(ctx, class.ID, &teacherID)
	require.NoError(t, err)
	require.NotNil(t, got.WaliKelasID)
	require.Equal(t, "user-2", *got.WaliKelasID)
	require.Equal(t, "guru_a", *got.WaliKelasName)
	require.Equal(t, "10-A", *repo.teachers["user-2"].classManaged)
	requireSymmetry(t, repo)
}

func TestReassignmentClearsPreviousTeacher(t *testing.T) {
	repo := newMemoryClassesRepo()
	addTeacher(repo, "t1", "guru_a")
	addTeacher(repo, "t2", "guru_b")
	svc := NewService(repo)
	ctx := context.Background()

	class, err := svc.Create(ctx, "10-A")
	require.NoError(t, err)

	t1, t2 := "t1", "t2"
	_, err = svc.AssignWaliKelas(ctx, class.ID, &t1)
	require.NoError(t, err)

	got, err := svc.AssignWaliKelas(ctx, class.ID, &t2)
	require.NoError(t, err)
	require.Equal(t, "t2", *got.WaliKelasID)
	require.Nil(t, repo.teachers["t1"].classManaged)
	require.Equal(t, "10-A", *repo.teachers["t2"].classManaged)
	requireSymmetry(t, repo)
}

func TestAssigningBusyTeacherDetachesPriorClass(t *testing.T) {
	repo := newMemoryClassesRepo()
	addTeacher(repo, "t1", "guru_a")
	svc := NewService(repo)
	ctx := context.Background()

	first, err := svc.Create(ctx, "10-A")
	require.NoError(t, err)
	second, err := svc.Create(ctx, "10-B")
	require.NoError(t, err)

	t1 := "t1"
	_, err = svc.AssignWaliKelas(ctx, first.ID, &t1)
	require.NoError(t, err)

	// Reassigning silently detaches rather than rejecting.
	got, err := svc.AssignWaliKelas(ctx, second.ID, &t1)
	require.NoError(t, err)
	require.Equal(t, "t1", *got.WaliKelasID)
	require.Nil(t, repo.classes[first.ID].waliID)
	require.Equal(t, "10-B", *repo.teachers["t1"].classManaged)
	requireSymmetry(t, repo)
}

func TestAssignNilClearsBothSides(t *testing.T) {
	repo := newMemoryClassesRepo()
	addTeacher(repo, "t1", "guru_a")
	svc := NewService(repo)
	ctx := context.Background()

	class, err := svc.Create(ctx, "10-A")
	require.NoError(t, err)
	t1 := "t1"
	_, err = svc.AssignWaliKelas(ctx, class.ID, &t1)
	require.NoError(t, err)

	got, err := svc.AssignWaliKelas(ctx, class.ID, nil)
	require.NoError(t, err)
	require.Nil(t, got.WaliKelasID)
	require.Nil(t, repo.teachers["t1"].classManaged)
	requireSymmetry(t, repo)
}

func TestAssignRejectsNonTeachers(t *testing.T) {
	repo := newMemoryClassesRepo()
	repo.teachers["u1"] = &memoryTeacher{id: "u1", username: "bendahara", role: shared.RoleBendahara}
	svc := NewService(repo)
	ctx := context.Background()

	class, err := svc.Create(ctx, "10-A")
	require.NoError(t, err)

	u1 := "u1"
	_, err = svc.AssignWaliKelas(ctx, class.ID, &u1)
	require.ErrorIs(t, err, ErrNotATeacher)

	missing := "ghost"
	_, err = svc.AssignWaliKelas(ctx, class.ID, &missing)
	require.ErrorIs(t, err, ErrTeacherNotFound)
}

func TestDeleteClassGuards(t *testing.T) {
	repo := newMemoryClassesRepo()
	addTeacher(repo, "t1", "guru_a")
	svc := NewService(repo)
	ctx := context.Background()

	class, err := svc.Create(ctx, "10-A")
	require.NoError(t, err)
	t1 := "t1"
	_, err = svc.AssignWaliKelas(ctx, class.ID, &t1)
	require.NoError(t, err)

	repo.enrolments["10-A"] = 2
	require.ErrorIs(t, svc.Delete(ctx, class.ID), ErrClassInUse)

	repo.enrolments["10-A"] = 0
	require.NoError(t, svc.Delete(ctx, class.ID))
	require.Nil(t, repo.teachers["t1"].classManaged)
	require.ErrorIs(t, svc.Delete(ctx, class.ID), ErrClassNotFound)
}

func TestRenameCascades(t *testing.T) {
	repo := newMemoryClassesRepo()
	addTeacher(repo, "t1", "guru_a")
	svc := NewService(repo)
	ctx := context.Background()

	class, err := svc.Create(ctx, "10-A")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "10-B")
	require.NoError(t, err)
	t1 := "t1"
	_, err = svc.AssignWaliKelas(ctx, class.ID, &t1)
	require.NoError(t, err)

	_, err = svc.Rename(ctx, class.ID, "10-b")
	require.ErrorIs(t, err, ErrDuplicateName)

	got, err := svc.Rename(ctx, class.ID, "11-A")
	require.NoError(t, err)
	require.Equal(t, "11-A", got.Name)
	require.Equal(t, "11-A", *repo.teachers["t1"].classManaged)
	requireSymmetry(t, repo)
}
