package domain

import "errors"

var (
	ErrBookNotFound        = errors.New("book not found")
	ErrCopyNotFound        = errors.New("copy not found")
	ErrRequestNotFound     = errors.New("request not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrFineNotFound        = errors.New("fine not found")
	ErrBranchNotFound      = errors.New("branch not found")

	ErrInvalidQuantity       = errors.New("quantity must be positive")
	ErrTitleRequired         = errors.New("title required")
	ErrQuantityNotIncreasing = errors.New("new quantity must exceed current quantity")
	ErrInvalidCopyState      = errors.New("copy state does not allow this operation")
	ErrInvalidRequestState   = errors.New("request already resolved")
	ErrReservationNotActive  = errors.New("reservation is not active")
	ErrReservationExpired    = errors.New("reservation expired")
	ErrCopyUnavailable       = errors.New("no available copy")
	ErrNoOpenIssue           = errors.New("no open issue for copy")
	ErrConflictRetry         = errors.New("concurrent update lost, retry")
	ErrInvalidID             = errors.New("invalid id")
)
