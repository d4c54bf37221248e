package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hexs00si/lms-circulation/internal/domain"
)

func (r *CirculationRepository) CreateRequest(ctx context.Context, req domain.BookRequest) error {
	const stmt = `
INSERT INTO book_requests (id, member_id, copy_barcode, branch_id, status, requested_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.exec(ctx, stmt,
		req.ID,
		req.MemberID,
		req.CopyBarcode,
		req.BranchID,
		req.Status,
		req.RequestedAt,
	)
	if err != nil {
		// The partial unique index on open requests per copy catches a
		// concurrent winner the row lock did not.
		if isUniqueViolation(err) {
			return domain.ErrConflictRetry
		}
		if isForeignKeyViolation(err) {
			return domain.ErrCopyNotFound
		}
		return fmt.Errorf("create request: %w", err)
	}
	return nil
}

func (r *CirculationRepository) GetRequestForUpdate(ctx context.Context, requestID string) (domain.BookRequest, error) {
	const query = `
SELECT id, member_id, copy_barcode, branch_id, status, requested_at, resolved_by, resolved_at
FROM book_requests
WHERE id = $1
FOR UPDATE`

	var req domain.BookRequest
	var resolvedBy *string
	err := r.queryRow(ctx, query, requestID).Scan(
		&req.ID, &req.MemberID, &req.CopyBarcode, &req.BranchID,
		&req.Status, &req.RequestedAt, &resolvedBy, &req.ResolvedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.BookRequest{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.BookRequest{}, domain.ErrRequestNotFound
		}
		return domain.BookRequest{}, fmt.Errorf("get request: %w", err)
	}
	if resolvedBy != nil {
		req.ResolvedBy = *resolvedBy
	}
	return req, nil
}

func (r *CirculationRepository) ResolveRequest(ctx context.Context, requestID string, status domain.RequestStatus, librarianID string, at time.Time) error {
	const stmt = `
UPDATE book_requests
SET status = $2, resolved_by = $3, resolved_at = $4
WHERE id = $1 AND status = 'pending'`

	tag, err := r.exec(ctx, stmt, requestID, status, librarianID, at)
	if err != nil {
		return fmt.Errorf("resolve request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidRequestState
	}
	return nil
}
