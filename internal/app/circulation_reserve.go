package app

import (
	"context"
	"time"

	"github.com/hexs00si/lms-circulation/internal/domain"
)

// ReserveCopy places a time-boxed hold on an Available copy. Reservations do
// not touch the book's available counter; only the request path does. That
// asymmetry matches the historical behavior callers depend on.
func (s *CirculationService) ReserveCopy(ctx context.Context, memberID, barcode string) (domain.BookReservation, error) {
	if memberID == "" || barcode == "" {
		return domain.BookReservation{}, domain.ErrInvalidID
	}

	now := s.clock.Now()
	var res domain.BookReservation
	err := s.withRetry(ctx, func(txCtx context.Context) error {
		cp, err := s.repo.GetCopyForUpdate(txCtx, barcode)
		if err != nil {
			return err
		}
		return s.placeReservation(txCtx, &res, cp, memberID, now)
	})
	if err != nil {
		return domain.BookReservation{}, err
	}
	return res, nil
}

// ReserveAnyCopy reserves whichever Available copy of the book sorts first by
// barcode, rechecking availability under the row lock.
func (s *CirculationService) ReserveAnyCopy(ctx context.Context, memberID, bookID string) (domain.BookReservation, error) {
	if memberID == "" || bookID == "" {
		return domain.BookReservation{}, domain.ErrInvalidID
	}

	now := s.clock.Now()
	var res domain.BookReservation
	err := s.withRetry(ctx, func(txCtx context.Context) error {
		cp, err := s.repo.FirstAvailableCopyForUpdate(txCtx, bookID)
		if err != nil {
			return err
		}
		return s.placeReservation(txCtx, &res, cp, memberID, now)
	})
	if err != nil {
		return domain.BookReservation{}, err
	}
	return res, nil
}

func (s *CirculationService) placeReservation(ctx context.Context, out *domain.BookReservation, cp domain.Copy, memberID string, now time.Time) error {
	if cp.Status != domain.CopyStatusAvailable {
		return domain.ErrCopyUnavailable
	}
	if err := s.repo.UpdateCopyStatus(ctx, cp.Barcode, domain.CopyStatusAvailable, domain.CopyStatusReserved); err != nil {
		return err
	}

	res := domain.BookReservation{
		ID:          newID(),
		MemberID:    memberID,
		CopyBarcode: cp.Barcode,
		BranchID:    cp.BranchID,
		Status:      domain.ReservationStatusActive,
		ReservedAt:  now,
		ExpiresAt:   now.Add(domain.HoldWindow),
	}
	if err := s.repo.CreateReservation(ctx, res); err != nil {
		return err
	}
	*out = res
	return nil
}

// FulfillReservation converts an active reservation into a loan with a fixed
// one-month term, independent of branch policy. Placing the reservation left
// the available counter alone, so fulfillment takes the decrement that the
// eventual return will undo. An overdue reservation is marked Expired (and
// its copy freed) in a committed transaction before ErrReservationExpired is
// returned.
func (s *CirculationService) FulfillReservation(ctx context.Context, reservationID, librarianID string) (domain.BookIssue, error) {
	if reservationID == "" || librarianID == "" {
		return domain.BookIssue{}, domain.ErrInvalidID
	}

	now := s.clock.Now()
	var issue domain.BookIssue
	var expired bool
	err := s.withRetry(ctx, func(txCtx context.Context) error {
		res, err := s.repo.GetReservationForUpdate(txCtx, reservationID)
		if err != nil {
			return err
		}
		switch res.Status {
		case domain.ReservationStatusActive:
		case domain.ReservationStatusExpired:
			return domain.ErrReservationExpired
		default:
			return domain.ErrReservationNotActive
		}
		if res.ExpiredAt(now) {
			expired = true
			return s.expireReservation(txCtx, res)
		}

		cp, err := s.repo.GetCopyForUpdate(txCtx, res.CopyBarcode)
		if err != nil {
			return err
		}
		if cp.Status != domain.CopyStatusReserved {
			return domain.ErrInvalidCopyState
		}

		if err := s.repo.UpdateCopyStatus(txCtx, cp.Barcode, domain.CopyStatusReserved, domain.CopyStatusCheckedOut); err != nil {
			return err
		}
		if err := s.repo.AdjustAvailableCopies(txCtx, cp.BookID, -1); err != nil {
			return err
		}
		if err := s.repo.UpdateReservationStatus(txCtx, res.ID, domain.ReservationStatusActive, domain.ReservationStatusFulfilled); err != nil {
			return err
		}

		issue = domain.BookIssue{
			ID:          newID(),
			MemberID:    res.MemberID,
			CopyBarcode: cp.Barcode,
			BranchID:    cp.BranchID,
			IssuedBy:    librarianID,
			IssuedAt:    now,
			DueAt:       domain.ReservationDueDate(now),
		}
		if err := s.repo.CreateIssue(txCtx, issue); err != nil {
			return err
		}
		return s.repo.IncrementIssueCount(txCtx, cp.BookID)
	})
	if err != nil {
		return domain.BookIssue{}, err
	}
	if expired {
		return domain.BookIssue{}, domain.ErrReservationExpired
	}
	return issue, nil
}

// CancelReservation terminates an active reservation and frees its copy. Like
// fulfillment, an overdue reservation is marked Expired first and the caller
// gets ErrReservationExpired.
func (s *CirculationService) CancelReservation(ctx context.Context, reservationID string) (domain.BookReservation, error) {
	if reservationID == "" {
		return domain.BookReservation{}, domain.ErrInvalidID
	}

	now := s.clock.Now()
	var cancelled domain.BookReservation
	var expired bool
	err := s.withRetry(ctx, func(txCtx context.Context) error {
		res, err := s.repo.GetReservationForUpdate(txCtx, reservationID)
		if err != nil {
			return err
		}
		switch res.Status {
		case domain.ReservationStatusActive:
		case domain.ReservationStatusExpired:
			return domain.ErrReservationExpired
		default:
			return domain.ErrReservationNotActive
		}
		if res.ExpiredAt(now) {
			expired = true
			return s.expireReservation(txCtx, res)
		}

		cp, err := s.repo.GetCopyForUpdate(txCtx, res.CopyBarcode)
		if err != nil {
			return err
		}
		if cp.Status != domain.CopyStatusReserved {
			return domain.ErrInvalidCopyState
		}

		if err := s.repo.UpdateCopyStatus(txCtx, cp.Barcode, domain.CopyStatusReserved, domain.CopyStatusAvailable); err != nil {
			return err
		}
		if err := s.repo.UpdateReservationStatus(txCtx, res.ID, domain.ReservationStatusActive, domain.ReservationStatusCancelled); err != nil {
			return err
		}

		res.Status = domain.ReservationStatusCancelled
		cancelled = res
		return nil
	})
	if err != nil {
		return domain.BookReservation{}, err
	}
	if expired {
		return domain.BookReservation{}, domain.ErrReservationExpired
	}
	return cancelled, nil
}

// expireReservation frees the copy and marks the reservation Expired. Callers
// commit this even when the triggering operation fails for the caller.
func (s *CirculationService) expireReservation(ctx context.Context, res domain.BookReservation) error {
	if err := s.repo.UpdateCopyStatus(ctx, res.CopyBarcode, domain.CopyStatusReserved, domain.CopyStatusAvailable); err != nil {
		return err
	}
	return s.repo.UpdateReservationStatus(ctx, res.ID, domain.ReservationStatusActive, domain.ReservationStatusExpired)
}

const sweepBatchSize = 100

// ExpireOverdueReservations marks overdue Active reservations Expired, one
// transaction per reservation so a conflict on one does not block the rest.
// Lazy checks at fulfill/cancel time stay authoritative; this only keeps the
// stored statuses current.
func (s *CirculationService) ExpireOverdueReservations(ctx context.Context) (int, error) {
	now := s.clock.Now()
	ids, err := s.repo.ListOverdueReservationIDs(ctx, now, sweepBatchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, id := range ids {
		marked := false
		err := s.withRetry(ctx, func(txCtx context.Context) error {
			res, err := s.repo.GetReservationForUpdate(txCtx, id)
			if err != nil {
				return err
			}
			if res.Status != domain.ReservationStatusActive || !res.ExpiredAt(now) {
				return nil
			}
			if err := s.expireReservation(txCtx, res); err != nil {
				return err
			}
			marked = true
			return nil
		})
		if err != nil {
			return expired, err
		}
		if marked {
			expired++
		}
	}
	return expired, nil
}
