package domain

import "time"

// Fine is a monetary penalty tied to one late BookIssue. Amount is in the
// branch's smallest currency unit. Only IsPaid ever changes after creation.
type Fine struct {
	ID          string
	MemberID    string
	CopyBarcode string
	IssueID     string
	Amount      int64
	ImposedAt   time.Time
	IsPaid      bool
}

// LateDays counts the whole calendar days between the due date and the
// return date, never negative. A return on or before the due date, or later
// the same calendar day, owes nothing.
func LateDays(dueAt, returnedAt time.Time) int64 {
	if !returnedAt.After(dueAt) {
		return 0
	}
	due := startOfDay(dueAt)
	ret := startOfDay(returnedAt.In(dueAt.Location()))
	days := int64(ret.Sub(due) / (24 * time.Hour))
	if days < 0 {
		return 0
	}
	return days
}

// FineAmount is the fine owed for a return at returnedAt against dueAt under
// the branch's per-day rate. Zero when no whole day was missed.
func FineAmount(dueAt, returnedAt time.Time, finePerDay int64) int64 {
	return LateDays(dueAt, returnedAt) * finePerDay
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
