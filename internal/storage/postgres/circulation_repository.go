package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hexs00si/lms-circulation/internal/domain"
)

// CirculationRepository backs the circulation engine. Copy rows are locked
// with FOR UPDATE and every status change is conditional on the expected
// current value, so a caller that lost a race gets ErrConflictRetry instead
// of silently overwriting another session's transition.
type CirculationRepository struct {
	pool *pgxpool.Pool
}

func NewCirculationRepository(pool *pgxpool.Pool) *CirculationRepository {
	return &CirculationRepository{pool: pool}
}

func (r *CirculationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *CirculationRepository) GetCopyForUpdate(ctx context.Context, barcode string) (domain.Copy, error) {
	const query = `
SELECT barcode, book_id, branch_id, seq, status
FROM copies
WHERE barcode = $1
FOR UPDATE`

	var cp domain.Copy
	err := r.queryRow(ctx, query, barcode).Scan(&cp.Barcode, &cp.BookID, &cp.BranchID, &cp.Sequence, &cp.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Copy{}, domain.ErrCopyNotFound
		}
		return domain.Copy{}, fmt.Errorf("get copy: %w", err)
	}
	return cp, nil
}

// FirstAvailableCopyForUpdate picks the Available copy that sorts first by
// barcode, which keeps title-level selection deterministic.
func (r *CirculationRepository) FirstAvailableCopyForUpdate(ctx context.Context, bookID string) (domain.Copy, error) {
	const query = `
SELECT barcode, book_id, branch_id, seq, status
FROM copies
WHERE book_id = $1 AND status = 'available'
ORDER BY barcode
LIMIT 1
FOR UPDATE`

	var cp domain.Copy
	err := r.queryRow(ctx, query, bookID).Scan(&cp.Barcode, &cp.BookID, &cp.BranchID, &cp.Sequence, &cp.Status)
	if err == nil {
		return cp, nil
	}
	if isInvalidUUID(err) {
		return domain.Copy{}, domain.ErrInvalidID
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Copy{}, fmt.Errorf("first available copy: %w", err)
	}

	var exists bool
	if err := r.queryRow(ctx, `SELECT EXISTS (SELECT 1 FROM books WHERE id = $1)`, bookID).Scan(&exists); err != nil {
		return domain.Copy{}, fmt.Errorf("check book exists: %w", err)
	}
	if !exists {
		return domain.Copy{}, domain.ErrBookNotFound
	}
	return domain.Copy{}, domain.ErrCopyUnavailable
}

func (r *CirculationRepository) UpdateCopyStatus(ctx context.Context, barcode string, from, to domain.CopyStatus) error {
	const stmt = `UPDATE copies SET status = $3 WHERE barcode = $1 AND status = $2`

	tag, err := r.exec(ctx, stmt, barcode, from, to)
	if err != nil {
		return fmt.Errorf("update copy status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflictRetry
	}
	return nil
}

func (r *CirculationRepository) GetBranch(ctx context.Context, branchID string) (domain.Branch, error) {
	const query = `SELECT id, name, loan_duration_days, fine_per_day FROM branches WHERE id = $1`

	var b domain.Branch
	err := r.queryRow(ctx, query, branchID).Scan(&b.ID, &b.Name, &b.LoanDurationDays, &b.FinePerDay)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Branch{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Branch{}, domain.ErrBranchNotFound
		}
		return domain.Branch{}, fmt.Errorf("get branch: %w", err)
	}
	return b, nil
}

// AdjustAvailableCopies moves the counter inside the same transaction as the
// copy-status change. The guard keeps 0 <= available_copies <= quantity; a
// miss means the counter drifted under a concurrent writer, so retry.
func (r *CirculationRepository) AdjustAvailableCopies(ctx context.Context, bookID string, delta int) error {
	const stmt = `
UPDATE books
SET available_copies = available_copies + $2
WHERE id = $1
  AND available_copies + $2 >= 0
  AND available_copies + $2 <= quantity`

	tag, err := r.exec(ctx, stmt, bookID, delta)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("adjust available copies: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflictRetry
	}
	return nil
}

func (r *CirculationRepository) IncrementIssueCount(ctx context.Context, bookID string) error {
	const stmt = `UPDATE books SET issue_count = issue_count + 1 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, bookID)
	if err != nil {
		return fmt.Errorf("increment issue count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

func (r *CirculationRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *CirculationRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *CirculationRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
