package domain

import "time"

// BookIssue is an active or completed loan of a copy to a member. It is
// mutated once, at return time, to set ReturnedAt and IsReturned.
type BookIssue struct {
	ID          string
	MemberID    string
	CopyBarcode string
	BranchID    string
	IssuedBy    string
	IssuedAt    time.Time
	DueAt       time.Time
	ReturnedAt  *time.Time
	IsReturned  bool
}

// RequestDueDate computes the due date for a request-based loan: the branch
// loan duration counted from the start of the issue day.
func RequestDueDate(issuedAt time.Time, loanDurationDays int) time.Time {
	day := time.Date(issuedAt.Year(), issuedAt.Month(), issuedAt.Day(), 0, 0, 0, 0, issuedAt.Location())
	return day.AddDate(0, 0, loanDurationDays)
}

// ReservationDueDate computes the due date for a reservation-based loan,
// fixed at one calendar month regardless of branch policy.
func ReservationDueDate(issuedAt time.Time) time.Time {
	return issuedAt.AddDate(0, 1, 0)
}
