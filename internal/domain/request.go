package domain

import "time"

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// BookRequest records a member's ask to borrow a specific copy. A request is
// resolved exactly once by a librarian and is immutable afterwards.
type BookRequest struct {
	ID          string
	MemberID    string
	CopyBarcode string
	BranchID    string
	Status      RequestStatus
	RequestedAt time.Time
	ResolvedBy  string
	ResolvedAt  *time.Time
}
