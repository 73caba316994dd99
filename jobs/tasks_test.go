package jobs

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type stubLister struct {
	usernames []string
	from, to  time.Time
}

func (s *stubLister) ListUnsubmittedTeachers(_ context.Context, from, to time.Time) ([]string, error) {
	s.from, s.to = from, to
	return s.usernames, nil
}

func TestDepositReminderUsesPayloadDay(t *testing.T) {
	lister := &stubLister{usernames: []string{"guru_a"}}
	reminder := NewDepositReminder(lister, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	task, err := NewDepositReminderTask(DepositReminderPayload{Date: "2024-03-04"})
	require.NoError(t, err)
	require.NoError(t, reminder.Handle(context.Background(), task))

	want := time.Date(2024, 3, 4, 0, 0, 0, 0, time.Local)
	require.Equal(t, want, lister.from)
	require.Equal(t, want.AddDate(0, 0, 1), lister.to)
}

func TestDepositReminderRejectsBadPayload(t *testing.T) {
	reminder := NewDepositReminder(&stubLister{}, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	task := asynq.NewTask(TaskTypeDepositReminder, []byte("{"))
	err := reminder.Handle(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)

	payload, err := json.Marshal(DepositReminderPayload{Date: "04-03-2024"})
	require.NoError(t, err)
	err = reminder.Handle(context.Background(), asynq.NewTask(TaskTypeDepositReminder, payload))
	require.ErrorIs(t, err, asynq.SkipRetry)
}
