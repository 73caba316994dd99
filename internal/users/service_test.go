package users

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/simpananku/simpananku/internal/shared"
)

type memoryUser struct {
	User
	UsernameFold string
	PasswordHash string
}

type memoryUsersRepo struct {
	mu    sync.Mutex
	users map[string]*memoryUser
	// classes maps class id to assigned teacher id, mirroring the registry
	// side of an assignment.
	classes map[string]string
}

func newMemoryUsersRepo() *memoryUsersRepo {
	return &memoryUsersRepo{
		users:   make(map[string]*memoryUser),
		classes: make(map[string]string),
	}
}

func (m *memoryUsersRepo) CreateUser(_ context.Context, input CreateUserInput, createdAt time.Time) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.UsernameFold == input.UsernameFold {
			return nil, ErrDuplicateUsername
		}
	}
	user := &memoryUser{
		User: User{
			ID:        uuid.NewString(),
			Username:  input.Username,
			Role:      input.Role,
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		},
		UsernameFold: input.UsernameFold,
		PasswordHash: input.PasswordHash,
	}
	m.users[user.ID] = user
	copied := user.User
	return &copied, nil
}

func (m *memoryUsersRepo) UpdateUser(_ context.Context, id string, input UpdateUserInput, updatedAt time.Time) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	if input.Username != nil {
		for otherID, other := range m.users {
			if otherID != id && other.UsernameFold == *input.UsernameFold {
				return nil, ErrDuplicateUsername
			}
		}
		user.Username = *input.Username
		user.UsernameFold = *input.UsernameFold
	}
	if input.PasswordHash != nil {
		user.PasswordHash = *input.PasswordHash
	}
	if input.Role != nil {
		user.Role = *input.Role
		if user.Role != shared.RoleGuru && user.ClassManaged != nil {
			for classID, teacherID := range m.classes {
				if teacherID == id {
					delete(m.classes, classID)
				}
			}
			user.ClassManaged = nil
		}
	}
	user.UpdatedAt = updatedAt
	copied := user.User
	return &copied, nil
}

func (m *memoryUsersRepo) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	if user.Role == shared.RoleGuru {
		for classID, teacherID := range m.classes {
			if teacherID == id {
				delete(m.classes, classID)
			}
		}
	}
	delete(m.users, id)
	return nil
}

func (m *memoryUsersRepo) GetUser(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := user.User
	return &copied, nil
}

func (m *memoryUsersRepo) ListUsers(_ context.Context, role shared.Role) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []User
	for _, u := range m.users {
		if role != "" && u.Role != role {
			continue
		}
		out = append(out, u.User)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *memoryUsersRepo) ListAvailableTeachers(_ context.Context) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []User
	for _, u := range m.users {
		if u.Role == shared.RoleGuru && u.ClassManaged == nil {
			out = append(out, u.User)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// assign mirrors what the class registry does to both sides of an
// assignment.
func (m *memoryUsersRepo) assign(classID, className, teacherID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.classes[classID] = teacherID
	m.users[teacherID].ClassManaged = &className
}

func TestCreateUserHashesPassword(t *testing.T) {
	repo := newMemoryUsersRepo()
	svc := NewService(repo)

	user, err := svc.Create(context.Background(), "guru_a", "rahasia1", shared.RoleGuru)
	require.NoError(t, err)
	require.Equal(t, shared.RoleGuru, user.Role)

	stored := repo.users[user.ID]
	require.NotEqual(t, "rahasia1", stored.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("rahasia1")))
}

func TestCreateUserRejectsSiswaRole(t *testing.T) {
	svc := NewService(newMemoryUsersRepo())

	_, err := svc.Create(context.Background(), "joko", "rahasia1", shared.RoleSiswa)
	require.ErrorIs(t, err, ErrInvalidRole)
	_, err = svc.Create(context.Background(), "joko", "rahasia1", "SUPERADMIN")
	require.ErrorIs(t, err, ErrInvalidRole)
}

func TestCreateUserUsernameUniquenessIgnoresCase(t *testing.T) {
	svc := NewService(newMemoryUsersRepo())

	_, err := svc.Create(context.Background(), "Bendahara", "rahasia1", shared.RoleBendahara)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "bendahara", "rahasia1", shared.RoleBendahara)
	require.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestUpdateUserRehashesPassword(t *testing.T) {
	repo := newMemoryUsersRepo()
	svc := NewService(repo)

	user, err := svc.Create(context.Background(), "guru_a", "rahasia1", shared.RoleGuru)
	require.NoError(t, err)

	next := "rahasia2"
	_, err = svc.Update(context.Background(), user.ID, UpdateRequest{Password: &next})
	require.NoError(t, err)

	stored := repo.users[user.ID]
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("rahasia2")))
}

func TestDeleteTeacherDetachesClass(t *testing.T) {
	repo := newMemoryUsersRepo()
	svc := NewService(repo)

	teacher, err := svc.Create(context.Background(), "guru_a", "rahasia1", shared.RoleGuru)
	require.NoError(t, err)
	repo.assign("class-1", "10-A", teacher.ID)

	require.NoError(t, svc.Delete(context.Background(), teacher.ID))
	require.NotContains(t, repo.classes, "class-1")
}

func TestRoleChangeDetachesClass(t *testing.T) {
	repo := newMemoryUsersRepo()
	svc := NewService(repo)

	teacher, err := svc.Create(context.Background(), "guru_a", "rahasia1", shared.RoleGuru)
	require.NoError(t, err)
	repo.assign("class-1", "10-A", teacher.ID)

	role := shared.RoleBendahara
	updated, err := svc.Update(context.Background(), teacher.ID, UpdateRequest{Role: &role})
	require.NoError(t, err)
	require.Equal(t, shared.RoleBendahara, updated.Role)
	require.Nil(t, updated.ClassManaged)
	require.NotContains(t, repo.classes, "class-1")
}

func TestAvailableTeachersExcludesAssigned(t *testing.T) {
	repo := newMemoryUsersRepo()
	svc := NewService(repo)

	assigned, err := svc.Create(context.Background(), "guru_a", "rahasia1", shared.RoleGuru)
	require.NoError(t, err)
	free, err := svc.Create(context.Background(), "guru_b", "rahasia1", shared.RoleGuru)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "admin", "rahasia1", shared.RoleAdmin)
	require.NoError(t, err)

	repo.assign("class-1", "10-A", assigned.ID)

	list, err := svc.AvailableTeachers(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, free.ID, list[0].ID)
}

func TestListUsersFiltersByRole(t *testing.T) {
	svc := NewService(newMemoryUsersRepo())

	_, err := svc.Create(context.Background(), "guru_a", "rahasia1", shared.RoleGuru)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "admin", "rahasia1", shared.RoleAdmin)
	require.NoError(t, err)

	list, err := svc.List(context.Background(), shared.RoleGuru)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "guru_a", list[0].Username)

	_, err = svc.List(context.Background(), "WALI")
	require.ErrorIs(t, err, ErrInvalidRole)
}
