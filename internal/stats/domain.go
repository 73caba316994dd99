package stats

import "time"

// Overview is the dashboard snapshot: directory counts, money aggregates and
// today's ledger flow.
type Overview struct {
	TotalStudents    int   `json:"totalStudents"`
	TotalTeachers    int   `json:"totalTeachers"`
	TotalClasses     int   `json:"totalClasses"`
	TotalBalance     int64 `json:"totalBalance"`
	TotalDebt        int64 `json:"totalDebt"`
	TotalStaffDebt   int64 `json:"totalStaffDebt"`
	TodayDeposits    int64 `json:"todayDeposits"`
	TodayWithdrawals int64 `json:"todayWithdrawals"`

	Weekly []DayPoint `json:"weekly"`
}

// DayPoint is one calendar day of ledger flow.
type DayPoint struct {
	Date        string `json:"date"`
	Deposits    int64  `json:"deposits"`
	Withdrawals int64  `json:"withdrawals"`
}

// dayKey formats a point label; days use the server location.
func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
