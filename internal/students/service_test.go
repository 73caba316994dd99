package students

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/simpananku/simpananku/internal/shared"
)

type memoryAccount struct {
	Username     string
	UsernameFold string
	PasswordHash string
	StudentID    string
}

type memoryStudentsRepo struct {
	mu       sync.Mutex
	students map[string]*Student
	accounts map[string]*memoryAccount
	classes  map[string]bool
}

func newMemoryStudentsRepo(classes ...string) *memoryStudentsRepo {
	repo := &memoryStudentsRepo{
		students: make(map[string]*Student),
		accounts: make(map[string]*memoryAccount),
		classes:  make(map[string]bool),
	}
	for _, c := range classes {
		repo.classes[c] = true
	}
	return repo
}

func (m *memoryStudentsRepo) CreateStudent(_ context.Context, input CreateStudentInput, createdAt time.Time) (*Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range m.students {
		if st.NIS == input.NIS {
			return nil, ErrDuplicateNIS
		}
	}
	if input.Account != nil {
		if _, ok := m.accounts[input.Account.UsernameFold]; ok {
			return nil, ErrDuplicateUsername
		}
	}
	student := &Student{
		ID:        uuid.NewString(),
		NIS:       input.NIS,
		Name:      input.Name,
		ClassName: input.ClassName,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	m.students[student.ID] = student
	if input.Account != nil {
		m.accounts[input.Account.UsernameFold] = &memoryAccount{
			Username:     input.Account.Username,
			UsernameFold: input.Account.UsernameFold,
			PasswordHash: input.Account.PasswordHash,
			StudentID:    student.ID,
		}
	}
	copied := *student
	return &copied, nil
}

func (m *memoryStudentsRepo) UpdateStudent(_ context.Context, id string, input UpdateStudentInput, updatedAt time.Time) (*Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	student, ok := m.students[id]
	if !ok {
		return nil, ErrStudentNotFound
	}
	if input.NIS != nil {
		next := strings.TrimSpace(*input.NIS)
		for otherID, other := range m.students {
			if otherID != id && other.NIS == next {
				return nil, ErrDuplicateNIS
			}
		}
		student.NIS = next
	}
	if input.Name != nil {
		student.Name = strings.TrimSpace(*input.Name)
	}
	if input.ClassName != nil {
		student.ClassName = *input.ClassName
	}
	student.UpdatedAt = updatedAt
	copied := *student
	return &copied, nil
}

func (m *memoryStudentsRepo) DeleteStudent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[id]; !ok {
		return ErrStudentNotFound
	}
	delete(m.students, id)
	for fold, acct := range m.accounts {
		if acct.StudentID == id {
			delete(m.accounts, fold)
		}
	}
	return nil
}

func (m *memoryStudentsRepo) GetStudent(_ context.Context, id string) (*Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	student, ok := m.students[id]
	if !ok {
		return nil, ErrStudentNotFound
	}
	copied := *student
	return &copied, nil
}

func (m *memoryStudentsRepo) ListStudents(_ context.Context, query ListQuery) ([]Student, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []Student
	for _, st := range m.students {
		if query.Class != "" && st.ClassName != query.Class {
			continue
		}
		if query.Search != "" &&
			!strings.Contains(strings.ToLower(st.Name), strings.ToLower(query.Search)) &&
			!strings.Contains(st.NIS, query.Search) {
			continue
		}
		matched = append(matched, *st)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	total := len(matched)
	start := (query.Page - 1) * query.Limit
	if start > total {
		start = total
	}
	end := start + query.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (m *memoryStudentsRepo) ListByClass(_ context.Context, className string) ([]Student, error) {
	out, _, err := m.ListStudents(context.Background(), ListQuery{Class: className, Page: 1, Limit: len(m.students) + 1})
	return out, err
}

func (m *memoryStudentsRepo) ClassExists(_ context.Context, className string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.classes[className], nil
}

func (m *memoryStudentsRepo) account(username string) *memoryAccount {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[shared.Fold(username)]
}

func TestCreateStudentWithDefaultAccount(t *testing.T) {
	repo := newMemoryStudentsRepo("10-A")
	svc := NewService(repo)

	student, err := svc.Create(context.Background(), CreateRequest{
		NIS:         "2024001",
		Name:        "Joko Susilo",
		ClassName:   "10-A",
		WithAccount: true,
	})
	require.NoError(t, err)
	require.Equal(t, "10-A", student.ClassName)
	require.Zero(t, student.Balance)

	acct := repo.account("siswa_joko_susilo")
	require.NotNil(t, acct)
	require.Equal(t, student.ID, acct.StudentID)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte("2024001")))
}

func TestCreateStudentRejectsUnknownClass(t *testing.T) {
	svc := NewService(newMemoryStudentsRepo("10-A"))

	_, err := svc.Create(context.Background(), CreateRequest{NIS: "1", Name: "Ani", ClassName: "12-Z"})
	require.ErrorIs(t, err, ErrUnknownClass)
}

func TestCreateStudentRejectsDuplicateNIS(t *testing.T) {
	svc := NewService(newMemoryStudentsRepo("10-A"))

	_, err := svc.Create(context.Background(), CreateRequest{NIS: "2024001", Name: "Ani", ClassName: "10-A"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateRequest{NIS: "2024001", Name: "Budi", ClassName: "10-A"})
	require.ErrorIs(t, err, ErrDuplicateNIS)
}

func TestCreateStudentUsernameUniquenessIgnoresCase(t *testing.T) {
	svc := NewService(newMemoryStudentsRepo("10-A"))

	_, err := svc.Create(context.Background(), CreateRequest{
		NIS: "1", Name: "Ani", ClassName: "10-A", WithAccount: true, Username: "Ani.Lestari",
	})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateRequest{
		NIS: "2", Name: "Other", ClassName: "10-A", WithAccount: true, Username: "ani.lestari",
	})
	require.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestCreateStudentRequiresNISAndName(t *testing.T) {
	svc := NewService(newMemoryStudentsRepo("10-A"))

	_, err := svc.Create(context.Background(), CreateRequest{NIS: "  ", Name: "Ani", ClassName: "10-A"})
	require.ErrorIs(t, err, ErrMissingField)
	_, err = svc.Create(context.Background(), CreateRequest{NIS: "1", Name: "", ClassName: "10-A"})
	require.ErrorIs(t, err, ErrMissingField)
}

func TestUpdateStudentValidatesClass(t *testing.T) {
	repo := newMemoryStudentsRepo("10-A", "10-B")
	svc := NewService(repo)

	student, err := svc.Create(context.Background(), CreateRequest{NIS: "1", Name: "Ani", ClassName: "10-A"})
	require.NoError(t, err)

	bad := "99-X"
	_, err = svc.Update(context.Background(), student.ID, UpdateStudentInput{ClassName: &bad})
	require.ErrorIs(t, err, ErrUnknownClass)

	ok := "10-B"
	updated, err := svc.Update(context.Background(), student.ID, UpdateStudentInput{ClassName: &ok})
	require.NoError(t, err)
	require.Equal(t, "10-B", updated.ClassName)
	require.Equal(t, "Ani", updated.Name)
}

func TestDeleteStudentRemovesPairedAccount(t *testing.T) {
	repo := newMemoryStudentsRepo("10-A")
	svc := NewService(repo)

	student, err := svc.Create(context.Background(), CreateRequest{
		NIS: "1", Name: "Ani", ClassName: "10-A", WithAccount: true,
	})
	require.NoError(t, err)
	require.NotNil(t, repo.account("siswa_ani"))

	require.NoError(t, svc.Delete(context.Background(), student.ID))
	require.Nil(t, repo.account("siswa_ani"))

	_, err = svc.Get(context.Background(), student.ID)
	require.ErrorIs(t, err, ErrStudentNotFound)
}

func TestListStudentsFiltersAndPaginates(t *testing.T) {
	repo := newMemoryStudentsRepo("10-A", "10-B")
	svc := NewService(repo)

	seed := []CreateRequest{
		{NIS: "1", Name: "Ani", ClassName: "10-A"},
		{NIS: "2", Name: "Budi", ClassName: "10-A"},
		{NIS: "3", Name: "Citra", ClassName: "10-B"},
	}
	for _, req := range seed {
		_, err := svc.Create(context.Background(), req)
		require.NoError(t, err)
	}

	data, total, err := svc.List(context.Background(), ListQuery{Class: "10-A"})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, data, 2)
	require.Equal(t, "Ani", data[0].Name)

	data, total, err = svc.List(context.Background(), ListQuery{Search: "bud"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, "Budi", data[0].Name)

	data, total, err = svc.List(context.Background(), ListQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, data, 1)
	require.Equal(t, "Citra", data[0].Name)
}
