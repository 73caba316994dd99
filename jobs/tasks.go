package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/simpananku/simpananku/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeDepositReminder nudges teachers who posted savings today but
	// have not submitted a deposit slip yet.
	TaskTypeDepositReminder = "deposits:reminder"
)

// DepositReminderPayload carries the calendar day being checked, formatted
// 2006-01-02 in server-local time. Empty means today.
type DepositReminderPayload struct {
	Date string `json:"date"`
}

// NewDepositReminderTask constructs an Asynq task.
func NewDepositReminderTask(payload DepositReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeDepositReminder, data), nil
}

// PendingSubmitterLister names teachers who posted ledger entries in a day
// window without submitting a slip.
type PendingSubmitterLister interface {
	ListUnsubmittedTeachers(ctx context.Context, from, to time.Time) ([]string, error)
}

// DepositReminder resolves and logs the teachers that still owe a slip.
// Logging is the delivery channel; the school reads it from the ops console.
type DepositReminder struct {
	repo    PendingSubmitterLister
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewDepositReminder constructs the reminder handler. Metrics may be nil.
func NewDepositReminder(repo PendingSubmitterLister, logger *slog.Logger, metrics *jobmetrics.Metrics) *DepositReminder {
	return &DepositReminder{repo: repo, logger: logger, metrics: metrics}
}

// Handle processes TaskTypeDepositReminder tasks.
func (d *DepositReminder) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := d.metrics.Track("deposit_reminder")
	var payload DepositReminderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(asynq.SkipRetry)
	}

	day := time.Now()
	if payload.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", payload.Date, time.Local)
		if err != nil {
			return tracker.End(asynq.SkipRetry)
		}
		day = parsed
	}
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.Local)
	to := from.AddDate(0, 0, 1)

	usernames, err := d.repo.ListUnsubmittedTeachers(ctx, from, to)
	if err != nil {
		return tracker.End(err)
	}
	d.metrics.SetOutstandingSlips(from.Format("2006-01-02"), len(usernames))
	for _, username := range usernames {
		d.logger.Warn("deposit slip not submitted",
			slog.String("guru", username),
			slog.String("date", from.Format("2006-01-02")),
		)
	}
	d.logger.Info("deposit reminder finished",
		slog.String("date", from.Format("2006-01-02")),
		slog.Int("outstanding", len(usernames)),
	)
	return tracker.End(nil)
}
