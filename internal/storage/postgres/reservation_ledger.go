package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hexs00si/lms-circulation/internal/domain"
)

func (r *CirculationRepository) CreateReservation(ctx context.Context, res domain.BookReservation) error {
	const stmt = `
INSERT INTO book_reservations (id, member_id, copy_barcode, branch_id, status, reserved_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.exec(ctx, stmt,
		res.ID,
		res.MemberID,
		res.CopyBarcode,
		res.BranchID,
		res.Status,
		res.ReservedAt,
		res.ExpiresAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflictRetry
		}
		if isForeignKeyViolation(err) {
			return domain.ErrCopyNotFound
		}
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

func (r *CirculationRepository) GetReservationForUpdate(ctx context.Context, reservationID string) (domain.BookReservation, error) {
	const query = `
SELECT id, member_id, copy_barcode, branch_id, status, reserved_at, expires_at
FROM book_reservations
WHERE id = $1
FOR UPDATE`

	var res domain.BookReservation
	err := r.queryRow(ctx, query, reservationID).Scan(
		&res.ID, &res.MemberID, &res.CopyBarcode, &res.BranchID,
		&res.Status, &res.ReservedAt, &res.ExpiresAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.BookReservation{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.BookReservation{}, domain.ErrReservationNotFound
		}
		return domain.BookReservation{}, fmt.Errorf("get reservation: %w", err)
	}
	return res, nil
}

func (r *CirculationRepository) UpdateReservationStatus(ctx context.Context, reservationID string, from, to domain.ReservationStatus) error {
	const stmt = `UPDATE book_reservations SET status = $3 WHERE id = $1 AND status = $2`

	tag, err := r.exec(ctx, stmt, reservationID, from, to)
	if err != nil {
		return fmt.Errorf("update reservation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflictRetry
	}
	return nil
}

func (r *CirculationRepository) ListOverdueReservationIDs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	const query = `
SELECT id
FROM book_reservations
WHERE status = 'active' AND expires_at < $1
ORDER BY expires_at
LIMIT $2`

	rows, err := r.query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list overdue reservations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan reservation id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list overdue reservations: %w", err)
	}
	return ids, nil
}

func (r *CirculationRepository) ListExpiringReservations(ctx context.Context, now, until time.Time) ([]domain.BookReservation, error) {
	const query = `
SELECT id, member_id, copy_barcode, branch_id, status, reserved_at, expires_at
FROM book_reservations
WHERE status = 'active' AND expires_at > $1 AND expires_at <= $2
ORDER BY expires_at`

	rows, err := r.query(ctx, query, now, until)
	if err != nil {
		return nil, fmt.Errorf("list expiring reservations: %w", err)
	}
	defer rows.Close()

	var out []domain.BookReservation
	for rows.Next() {
		var res domain.BookReservation
		if err := rows.Scan(
			&res.ID, &res.MemberID, &res.CopyBarcode, &res.BranchID,
			&res.Status, &res.ReservedAt, &res.ExpiresAt,
		); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expiring reservations: %w", err)
	}
	return out, nil
}
