package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hexs00si/lms-circulation/internal/domain"
)

func (r *CirculationRepository) CreateFine(ctx context.Context, fine domain.Fine) error {
	const stmt = `
INSERT INTO fines (id, member_id, copy_barcode, issue_id, amount, imposed_at, is_paid)
VALUES ($1, $2, $3, $4, $5, $6, FALSE)`

	_, err := r.exec(ctx, stmt,
		fine.ID,
		fine.MemberID,
		fine.CopyBarcode,
		fine.IssueID,
		fine.Amount,
		fine.ImposedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrNoOpenIssue
		}
		return fmt.Errorf("create fine: %w", err)
	}
	return nil
}

func (r *CirculationRepository) GetFineForUpdate(ctx context.Context, fineID string) (domain.Fine, error) {
	const query = `
SELECT id, member_id, copy_barcode, issue_id, amount, imposed_at, is_paid
FROM fines
WHERE id = $1
FOR UPDATE`

	var f domain.Fine
	err := r.queryRow(ctx, query, fineID).Scan(
		&f.ID, &f.MemberID, &f.CopyBarcode, &f.IssueID, &f.Amount, &f.ImposedAt, &f.IsPaid,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Fine{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Fine{}, domain.ErrFineNotFound
		}
		return domain.Fine{}, fmt.Errorf("get fine: %w", err)
	}
	return f, nil
}

func (r *CirculationRepository) MarkFinePaid(ctx context.Context, fineID string) error {
	const stmt = `UPDATE fines SET is_paid = TRUE WHERE id = $1`

	tag, err := r.exec(ctx, stmt, fineID)
	if err != nil {
		return fmt.Errorf("mark fine paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrFineNotFound
	}
	return nil
}
