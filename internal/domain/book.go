package domain

import "time"

// Book is the title-level aggregate for one branch. Quantity counts every
// copy ever added, AvailableCopies counts copies that are currently lendable
// and IssueCount grows for the lifetime of the title. The invariant
// 0 <= AvailableCopies <= Quantity holds after every engine operation.
type Book struct {
	ID              string
	BranchID        string
	Title           string
	Author          string
	ISBN            string
	Description     string
	Quantity        int
	AvailableCopies int
	IssueCount      int
	CreatedAt       time.Time
}
