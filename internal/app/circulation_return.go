package app

import (
	"context"

	"github.com/hexs00si/lms-circulation/internal/domain"
	"github.com/hexs00si/lms-circulation/internal/event"
)

// ReturnResult carries the closed issue and the fine, if the return was late
// enough to owe one.
type ReturnResult struct {
	Issue domain.BookIssue
	Fine  *domain.Fine
}

// ReturnCopy closes the copy's open issue, frees the copy and restores the
// available counter. When the return is past due, the fine is computed from
// the branch's current per-day rate and recorded in the same transaction.
// Emits a FineImposed event after commit when a fine was created.
func (s *CirculationService) ReturnCopy(ctx context.Context, barcode, librarianID string) (ReturnResult, error) {
	if barcode == "" || librarianID == "" {
		return ReturnResult{}, domain.ErrInvalidID
	}

	now := s.clock.Now()
	var result ReturnResult
	err := s.withRetry(ctx, func(txCtx context.Context) error {
		issue, err := s.repo.GetOpenIssueForUpdate(txCtx, barcode)
		if err != nil {
			return err
		}

		cp, err := s.repo.GetCopyForUpdate(txCtx, barcode)
		if err != nil {
			return err
		}
		if cp.Status != domain.CopyStatusCheckedOut {
			return domain.ErrInvalidCopyState
		}

		if err := s.repo.CloseIssue(txCtx, issue.ID, now); err != nil {
			return err
		}
		if err := s.repo.UpdateCopyStatus(txCtx, barcode, domain.CopyStatusCheckedOut, domain.CopyStatusAvailable); err != nil {
			return err
		}
		if err := s.repo.AdjustAvailableCopies(txCtx, cp.BookID, 1); err != nil {
			return err
		}

		issue.ReturnedAt = &now
		issue.IsReturned = true
		result = ReturnResult{Issue: issue}

		if !now.After(issue.DueAt) {
			return nil
		}
		branch, err := s.repo.GetBranch(txCtx, cp.BranchID)
		if err != nil {
			return err
		}
		amount := domain.FineAmount(issue.DueAt, now, branch.FinePerDay)
		if amount <= 0 {
			return nil
		}

		fine := domain.Fine{
			ID:          newID(),
			MemberID:    issue.MemberID,
			CopyBarcode: barcode,
			IssueID:     issue.ID,
			Amount:      amount,
			ImposedAt:   now,
		}
		if err := s.repo.CreateFine(txCtx, fine); err != nil {
			return err
		}
		result.Fine = &fine
		return nil
	})
	if err != nil {
		return ReturnResult{}, err
	}

	if result.Fine != nil {
		s.events.Publish(event.Event{
			Kind:        event.KindFineImposed,
			MemberID:    result.Fine.MemberID,
			CopyBarcode: barcode,
			BranchID:    result.Issue.BranchID,
			EntityID:    result.Fine.ID,
			Amount:      result.Fine.Amount,
			OccurredAt:  now,
		})
	}
	return result, nil
}

// PayFine flips the fine to paid. Paying an already-paid fine is a no-op, not
// an error.
func (s *CirculationService) PayFine(ctx context.Context, fineID string) (domain.Fine, error) {
	if fineID == "" {
		return domain.Fine{}, domain.ErrInvalidID
	}

	var fine domain.Fine
	err := s.withRetry(ctx, func(txCtx context.Context) error {
		f, err := s.repo.GetFineForUpdate(txCtx, fineID)
		if err != nil {
			return err
		}
		if f.IsPaid {
			fine = f
			return nil
		}
		if err := s.repo.MarkFinePaid(txCtx, f.ID); err != nil {
			return err
		}
		f.IsPaid = true
		fine = f
		return nil
	})
	if err != nil {
		return domain.Fine{}, err
	}
	return fine, nil
}
