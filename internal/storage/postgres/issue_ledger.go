package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hexs00si/lms-circulation/internal/domain"
)

func (r *CirculationRepository) CreateIssue(ctx context.Context, issue domain.BookIssue) error {
	const stmt = `
INSERT INTO book_issues (id, member_id, copy_barcode, branch_id, issued_by, issued_at, due_at, is_returned)
VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE)`

	_, err := r.exec(ctx, stmt,
		issue.ID,
		issue.MemberID,
		issue.CopyBarcode,
		issue.BranchID,
		issue.IssuedBy,
		issue.IssuedAt,
		issue.DueAt,
	)
	if err != nil {
		// One open issue per copy, enforced by partial unique index.
		if isUniqueViolation(err) {
			return domain.ErrConflictRetry
		}
		if isForeignKeyViolation(err) {
			return domain.ErrCopyNotFound
		}
		return fmt.Errorf("create issue: %w", err)
	}
	return nil
}

func (r *CirculationRepository) GetOpenIssueForUpdate(ctx context.Context, barcode string) (domain.BookIssue, error) {
	const query = `
SELECT id, member_id, copy_barcode, branch_id, issued_by, issued_at, due_at, returned_at, is_returned
FROM book_issues
WHERE copy_barcode = $1 AND NOT is_returned
FOR UPDATE`

	var issue domain.BookIssue
	err := r.queryRow(ctx, query, barcode).Scan(
		&issue.ID, &issue.MemberID, &issue.CopyBarcode, &issue.BranchID,
		&issue.IssuedBy, &issue.IssuedAt, &issue.DueAt, &issue.ReturnedAt, &issue.IsReturned,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.BookIssue{}, domain.ErrNoOpenIssue
		}
		return domain.BookIssue{}, fmt.Errorf("get open issue: %w", err)
	}
	return issue, nil
}

func (r *CirculationRepository) CloseIssue(ctx context.Context, issueID string, returnedAt time.Time) error {
	const stmt = `
UPDATE book_issues
SET returned_at = $2, is_returned = TRUE
WHERE id = $1 AND NOT is_returned`

	tag, err := r.exec(ctx, stmt, issueID, returnedAt)
	if err != nil {
		return fmt.Errorf("close issue: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNoOpenIssue
	}
	return nil
}
