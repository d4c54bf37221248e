package domain

// Branch carries the per-branch circulation policy. LoanDurationDays applies
// to request-based loans only; reservation loans use a fixed one-month term.
// FinePerDay is in the smallest currency unit. Policy is read at operation
// time, never cached.
type Branch struct {
	ID               string
	Name             string
	LoanDurationDays int
	FinePerDay       int64
}
