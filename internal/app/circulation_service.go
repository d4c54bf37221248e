package app

import (
	"context"
	"errors"
	"time"

	"github.com/hexs00si/lms-circulation/internal/clock"
	"github.com/hexs00si/lms-circulation/internal/domain"
	"github.com/hexs00si/lms-circulation/internal/event"
)

// CirculationRepository is everything the engine needs to move a copy through
// its lifecycle. Every Get...ForUpdate locks the row for the remainder of the
// enclosing transaction; every conditional update reports a lost race as
// domain.ErrConflictRetry.
type CirculationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	GetCopyForUpdate(ctx context.Context, barcode string) (domain.Copy, error)
	FirstAvailableCopyForUpdate(ctx context.Context, bookID string) (domain.Copy, error)
	UpdateCopyStatus(ctx context.Context, barcode string, from, to domain.CopyStatus) error

	GetBranch(ctx context.Context, branchID string) (domain.Branch, error)
	AdjustAvailableCopies(ctx context.Context, bookID string, delta int) error
	IncrementIssueCount(ctx context.Context, bookID string) error

	CreateRequest(ctx context.Context, req domain.BookRequest) error
	GetRequestForUpdate(ctx context.Context, requestID string) (domain.BookRequest, error)
	ResolveRequest(ctx context.Context, requestID string, status domain.RequestStatus, librarianID string, at time.Time) error

	CreateReservation(ctx context.Context, res domain.BookReservation) error
	GetReservationForUpdate(ctx context.Context, reservationID string) (domain.BookReservation, error)
	UpdateReservationStatus(ctx context.Context, reservationID string, from, to domain.ReservationStatus) error
	ListOverdueReservationIDs(ctx context.Context, now time.Time, limit int) ([]string, error)
	ListExpiringReservations(ctx context.Context, now, until time.Time) ([]domain.BookReservation, error)

	CreateIssue(ctx context.Context, issue domain.BookIssue) error
	GetOpenIssueForUpdate(ctx context.Context, barcode string) (domain.BookIssue, error)
	CloseIssue(ctx context.Context, issueID string, returnedAt time.Time) error

	CreateFine(ctx context.Context, fine domain.Fine) error
	GetFineForUpdate(ctx context.Context, fineID string) (domain.Fine, error)
	MarkFinePaid(ctx context.Context, fineID string) error
}

// CirculationService is the only writer of copy statuses, book counters and
// the request/reservation/issue/fine ledgers. Each operation runs as one
// transaction; either every record lands or none do.
type CirculationService struct {
	repo        CirculationRepository
	clock       clock.Clock
	events      event.Publisher
	maxAttempts int
}

const defaultMaxAttempts = 3

func NewCirculationService(repo CirculationRepository, clk clock.Clock, opts ...CirculationServiceOption) *CirculationService {
	svc := &CirculationService{
		repo:        repo,
		clock:       clk,
		events:      event.Nop{},
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type CirculationServiceOption func(*CirculationService)

// WithPublisher routes domain events to p instead of discarding them.
func WithPublisher(p event.Publisher) CirculationServiceOption {
	return func(s *CirculationService) {
		if p != nil {
			s.events = p
		}
	}
}

// WithMaxAttempts overrides the conflict-retry budget per operation.
func WithMaxAttempts(n int) CirculationServiceOption {
	return func(s *CirculationService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// withRetry re-runs fn while it loses optimistic-concurrency races, up to the
// attempt budget. Any other error surfaces immediately with no side effects.
func (s *CirculationService) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		err = s.repo.WithTx(ctx, fn)
		if !errors.Is(err, domain.ErrConflictRetry) {
			return err
		}
	}
	return err
}

// RequestCopy puts an Available copy on hold for a member pending librarian
// approval: copy goes Pending, a pending BookRequest is created and the
// book's available counter drops by one, all in one transaction.
func (s *CirculationService) RequestCopy(ctx context.Context, memberID, barcode string) (domain.BookRequest, error) {
	if memberID == "" || barcode == "" {
		return domain.BookRequest{}, domain.ErrInvalidID
	}

	now := s.clock.Now()
	var req domain.BookRequest
	err := s.withRetry(ctx, func(txCtx context.Context) error {
		cp, err := s.repo.GetCopyForUpdate(txCtx, barcode)
		if err != nil {
			return err
		}
		return s.placeRequest(txCtx, &req, cp, memberID, now)
	})
	if err != nil {
		return domain.BookRequest{}, err
	}
	return req, nil
}

// RequestAnyCopy requests whichever Available copy of the book sorts first by
// barcode. Availability is rechecked under the row lock, not trusted from any
// earlier read.
func (s *CirculationService) RequestAnyCopy(ctx context.Context, memberID, bookID string) (domain.BookRequest, error) {
	if memberID == "" || bookID == "" {
		return domain.BookRequest{}, domain.ErrInvalidID
	}

	now := s.clock.Now()
	var req domain.BookRequest
	err := s.withRetry(ctx, func(txCtx context.Context) error {
		cp, err := s.repo.FirstAvailableCopyForUpdate(txCtx, bookID)
		if err != nil {
			return err
		}
		return s.placeRequest(txCtx, &req, cp, memberID, now)
	})
	if err != nil {
		return domain.BookRequest{}, err
	}
	return req, nil
}

func (s *CirculationService) placeRequest(ctx context.Context, out *domain.BookRequest, cp domain.Copy, memberID string, now time.Time) error {
	if cp.Status != domain.CopyStatusAvailable {
		return domain.ErrCopyUnavailable
	}
	if err := s.repo.UpdateCopyStatus(ctx, cp.Barcode, domain.CopyStatusAvailable, domain.CopyStatusPending); err != nil {
		return err
	}
	if err := s.repo.AdjustAvailableCopies(ctx, cp.BookID, -1); err != nil {
		return err
	}

	req := domain.BookRequest{
		ID:          newID(),
		MemberID:    memberID,
		CopyBarcode: cp.Barcode,
		BranchID:    cp.BranchID,
		Status:      domain.RequestStatusPending,
		RequestedAt: now,
	}
	if err := s.repo.CreateRequest(ctx, req); err != nil {
		return err
	}
	*out = req
	return nil
}

// ApproveRequest turns a pending request into a loan: copy goes CheckedOut,
// the request is resolved, a BookIssue is created with the branch's loan
// duration counted from the start of the issue day, and the book's lifetime
// issue count grows. Emits a RequestApproved event after commit.
func (s *CirculationService) ApproveRequest(ctx context.Context, requestID, librarianID string) (domain.BookIssue, error) {
	if requestID == "" || librarianID == "" {
		return domain.BookIssue{}, domain.ErrInvalidID
	}

	now := s.clock.Now()
	var issue domain.BookIssue
	var approved domain.BookRequest
	err := s.withRetry(ctx, func(txCtx context.Context) error {
		req, err := s.repo.GetRequestForUpdate(txCtx, requestID)
		if err != nil {
			return err
		}
		if req.Status != domain.RequestStatusPending {
			return domain.ErrInvalidRequestState
		}

		cp, err := s.repo.GetCopyForUpdate(txCtx, req.CopyBarcode)
		if err != nil {
			return err
		}
		if cp.Status != domain.CopyStatusPending {
			return domain.ErrInvalidCopyState
		}

		branch, err := s.repo.GetBranch(txCtx, cp.BranchID)
		if err != nil {
			return err
		}

		if err := s.repo.UpdateCopyStatus(txCtx, cp.Barcode, domain.CopyStatusPending, domain.CopyStatusCheckedOut); err != nil {
			return err
		}
		if err := s.repo.ResolveRequest(txCtx, req.ID, domain.RequestStatusApproved, librarianID, now); err != nil {
			return err
		}

		issue = domain.BookIssue{
			ID:          newID(),
			MemberID:    req.MemberID,
			CopyBarcode: cp.Barcode,
			BranchID:    cp.BranchID,
			IssuedBy:    librarianID,
			IssuedAt:    now,
			DueAt:       domain.RequestDueDate(now, branch.LoanDurationDays),
		}
		if err := s.repo.CreateIssue(txCtx, issue); err != nil {
			return err
		}
		if err := s.repo.IncrementIssueCount(txCtx, cp.BookID); err != nil {
			return err
		}

		approved = req
		return nil
	})
	if err != nil {
		return domain.BookIssue{}, err
	}

	s.events.Publish(event.Event{
		Kind:        event.KindRequestApproved,
		MemberID:    approved.MemberID,
		CopyBarcode: approved.CopyBarcode,
		BranchID:    approved.BranchID,
		EntityID:    approved.ID,
		OccurredAt:  now,
	})
	return issue, nil
}

// RejectRequest resolves a pending request without a loan: copy returns to
// Available and the available counter is restored.
func (s *CirculationService) RejectRequest(ctx context.Context, requestID, librarianID string) (domain.BookRequest, error) {
	if requestID == "" || librarianID == "" {
		return domain.BookRequest{}, domain.ErrInvalidID
	}

	now := s.clock.Now()
	var rejected domain.BookRequest
	err := s.withRetry(ctx, func(txCtx context.Context) error {
		req, err := s.repo.GetRequestForUpdate(txCtx, requestID)
		if err != nil {
			return err
		}
		if req.Status != domain.RequestStatusPending {
			return domain.ErrInvalidRequestState
		}

		cp, err := s.repo.GetCopyForUpdate(txCtx, req.CopyBarcode)
		if err != nil {
			return err
		}
		if cp.Status != domain.CopyStatusPending {
			return domain.ErrInvalidCopyState
		}

		if err := s.repo.UpdateCopyStatus(txCtx, cp.Barcode, domain.CopyStatusPending, domain.CopyStatusAvailable); err != nil {
			return err
		}
		if err := s.repo.AdjustAvailableCopies(txCtx, cp.BookID, 1); err != nil {
			return err
		}
		if err := s.repo.ResolveRequest(txCtx, req.ID, domain.RequestStatusRejected, librarianID, now); err != nil {
			return err
		}

		req.Status = domain.RequestStatusRejected
		req.ResolvedBy = librarianID
		req.ResolvedAt = &now
		rejected = req
		return nil
	})
	if err != nil {
		return domain.BookRequest{}, err
	}
	return rejected, nil
}
