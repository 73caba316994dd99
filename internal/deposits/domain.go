package deposits

import (
	"errors"
	"time"
)

// SlipStatus enumerates the two-state slip lifecycle. Transitions are
// one-directional: PENDING -> CONFIRMED, and CONFIRMED is terminal.
type SlipStatus string

const (
	StatusPending   SlipStatus = "PENDING"
	StatusConfirmed SlipStatus = "CONFIRMED"
)

// DailyDepositSlip is a teacher's aggregated net deposit for one calendar
// day, awaiting treasurer confirmation. The amount is frozen at creation;
// confirmation acknowledges it without touching any balance.
type DailyDepositSlip struct {
	ID          string     `json:"id"`
	GuruID      string     `json:"guruId"`
	GuruName    string     `json:"guruName,omitempty"`
	ClassName   string     `json:"class"`
	Amount      int64      `json:"amount"`
	Status      SlipStatus `json:"status"`
	SlipDate    time.Time  `json:"-"`
	CreatedAt   time.Time  `json:"createdAt"`
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
}

// Transaction is a ledger entry surfaced in a teacher's daily summary.
type Transaction struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"studentId"`
	StudentName string    `json:"studentName,omitempty"`
	Amount      int64     `json:"amount"`
	Type        string    `json:"type"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DailySummary is what a teacher sees before submitting: today's postings for
// their class plus whether a slip already exists for today.
type DailySummary struct {
	GuruID           string        `json:"guruId"`
	Transactions     []Transaction `json:"transactions"`
	SubmissionStatus bool          `json:"submissionStatus"`
}

// CreateSlipInput carries the frozen submission data into the store.
type CreateSlipInput struct {
	GuruID    string
	GuruName  string
	ClassName string
	Amount    int64
	Day       time.Time
	CreatedAt time.Time
}

// GuruRef identifies the submitting teacher and their managed class.
type GuruRef struct {
	ID           string
	Username     string
	ManagedClass string
}

var (
	// ErrNoManagedClass indicates the teacher has no class assigned.
	ErrNoManagedClass = errors.New("deposits: no managed class")
	// ErrNothingToSubmit indicates a zero or negative net amount for the day.
	ErrNothingToSubmit = errors.New("deposits: nothing to submit")
	// ErrAlreadySubmitted indicates a slip already exists for the teacher
	// and calendar day.
	ErrAlreadySubmitted = errors.New("deposits: already submitted today")
	// ErrAlreadyConfirmed indicates a repeated confirmation attempt.
	ErrAlreadyConfirmed = errors.New("deposits: slip already confirmed")
	// ErrSlipNotFound indicates the referenced slip does not exist.
	ErrSlipNotFound = errors.New("deposits: slip not found")
)
