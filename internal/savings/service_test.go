package savings

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type memoryStudent struct {
	name    string
	class   string
	balance int64
}

type memorySavingsRepo struct {
	mu       sync.Mutex
	students map[string]*memoryStudent
	entries  []Saving
}

func newMemorySavingsRepo() *memorySavingsRepo {
	return &memorySavingsRepo{students: make(map[string]*memoryStudent)}
}

func (r *memorySavingsRepo) PostSaving(ctx context.Context, input CreateSavingInput, createdAt time.Time) (*Saving, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	student, ok := r.students[input.StudentID]
	if !ok {
		return nil, ErrStudentNotFound
	}
	if input.ManagedClass != "" && student.class != input.ManagedClass {
		return nil, ErrWrongClass
	}
	if input.Type == TypeWithdrawal {
		if student.balance < input.Amount {
			return nil, ErrInsufficientBalance
		}
		student.balance -= input.Amount
	} else {
		student.balance += input.Amount
	}
	saving := Saving{
		ID:          uuid.NewString(),
		StudentID:   input.StudentID,
		StudentName: student.name,
		Amount:      input.Amount,
		Type:        input.Type,
		Notes:       input.Notes,
		CreatedBy:   input.ActorID,
		CreatedAt:   createdAt,
	}
	r.entries = append(r.entries, saving)
	return &saving, nil
}

func (r *memorySavingsRepo) ListByStudent(ctx context.Context, studentID string) ([]Saving, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Saving
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].StudentID == studentID {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}

func TestCreateSavingDeposit(t *testing.T) {
	repo := newMemorySavingsRepo()
	repo.students["student-1"] = &memoryStudent{name: "Joko", class: "10-A", balance: 0}
	svc := NewService(repo)

	saving, err := svc.CreateSaving(context.Background(), CreateSavingInput{
		StudentID:    "student-1",
		Amount:       50000,
		Type:         TypeDeposit,
		Notes:        "Setoran awal",
		ActorID:      "user-2",
		ManagedClass: "10-A",
	})
	require.NoError(t, err)
	require.Equal(t, int64(50000), saving.Amount)
	require.Equal(t, int64(50000), repo.students["student-1"].balance)
	require.Len(t, repo.entries, 1)
}

func TestCreateSavingRejectsNonPositiveAmount(t *testing.T) {
	svc := NewService(newMemorySavingsRepo())

	for _, amount := range []int64{0, -100} {
		_, err := svc.CreateSaving(context.Background(), CreateSavingInput{
			StudentID: "student-1",
			Amount:    amount,
			Type:      TypeDeposit,
		})
		require.ErrorIs(t, err, ErrInvalidAmount)
	}
}

func TestCreateSavingRejectsUnknownType(t *testing.T) {
	svc := NewService(newMemorySavingsRepo())

	_, err := svc.CreateSaving(context.Background(), CreateSavingInput{
		StudentID: "student-1",
		Amount:    1000,
		Type:      SavingType("TRANSFER"),
	})
	require.ErrorIs(t, err, ErrInvalidType)
}

func TestWithdrawalGuardsBalance(t *testing.T) {
	repo := newMemorySavingsRepo()
	repo.students["student-1"] = &memoryStudent{name: "Joko", class: "10-A", balance: 150000}
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.CreateSaving(ctx, CreateSavingInput{
		StudentID: "student-1", Amount: 100000, Type: TypeWithdrawal,
	})
	require.NoError(t, err)
	require.Equal(t, int64(50000), repo.students["student-1"].balance)

	_, err = svc.CreateSaving(ctx, CreateSavingInput{
		StudentID: "student-1", Amount: 100000, Type: TypeWithdrawal,
	})
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.Equal(t, int64(50000), repo.students["student-1"].balance, "failed withdrawal must not mutate balance")
	require.Len(t, repo.entries, 1, "failed withdrawal must not append a ledger entry")
}

func TestCreateSavingRejectsForeignClass(t *testing.T) {
	repo := newMemorySavingsRepo()
	repo.students["student-3"] = &memoryStudent{name: "Budi", class: "10-B", balance: 50000}
	svc := NewService(repo)

	_, err := svc.CreateSaving(context.Background(), CreateSavingInput{
		StudentID:    "student-3",
		Amount:       10000,
		Type:         TypeDeposit,
		ManagedClass: "10-A",
	})
	require.ErrorIs(t, err, ErrWrongClass)
}

func TestCreateSavingUnknownStudent(t *testing.T) {
	svc := NewService(newMemorySavingsRepo())

	_, err := svc.CreateSaving(context.Background(), CreateSavingInput{
		StudentID: "missing", Amount: 1000, Type: TypeDeposit,
	})
	require.ErrorIs(t, err, ErrStudentNotFound)
}

func TestListByStudentNewestFirst(t *testing.T) {
	repo := newMemorySavingsRepo()
	repo.students["student-1"] = &memoryStudent{name: "Joko", class: "10-A"}
	svc := NewService(repo)
	ctx := context.Background()

	base := time.Date(2024, 3, 4, 9, 0, 0, 0, time.Local)
	for i, amount := range []int64{10000, 20000, 30000} {
		at := base.Add(time.Duration(i) * time.Hour)
		svc.WithNow(func() time.Time { return at })
		_, err := svc.CreateSaving(ctx, CreateSavingInput{
			StudentID: "student-1", Amount: amount, Type: TypeDeposit,
		})
		require.NoError(t, err)
	}

	entries, err := svc.ListByStudent(ctx, "student-1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, int64(30000), entries[0].Amount)
	require.Equal(t, int64(10000), entries[2].Amount)
}
