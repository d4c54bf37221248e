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

type CatalogRepository struct {
	pool *pgxpool.Pool
}

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

func (r *CatalogRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *CatalogRepository) CreateBook(ctx context.Context, book domain.Book) error {
	const stmt = `
INSERT INTO books (id, branch_id, title, author, isbn, description, quantity, available_copies, issue_count, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.exec(ctx, stmt,
		book.ID,
		book.BranchID,
		book.Title,
		book.Author,
		book.ISBN,
		book.Description,
		book.Quantity,
		book.AvailableCopies,
		book.IssueCount,
		book.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrBranchNotFound
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create book: %w", err)
	}
	return nil
}

const bookColumns = `id, branch_id, title, author, isbn, description, quantity, available_copies, issue_count, created_at`

func (r *CatalogRepository) GetBook(ctx context.Context, bookID string) (domain.Book, error) {
	return r.getBook(ctx, bookID, false)
}

func (r *CatalogRepository) GetBookForUpdate(ctx context.Context, bookID string) (domain.Book, error) {
	return r.getBook(ctx, bookID, true)
}

func (r *CatalogRepository) getBook(ctx context.Context, bookID string, forUpdate bool) (domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var b domain.Book
	err := r.queryRow(ctx, query, bookID).Scan(
		&b.ID, &b.BranchID, &b.Title, &b.Author, &b.ISBN, &b.Description,
		&b.Quantity, &b.AvailableCopies, &b.IssueCount, &b.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Book{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Book{}, domain.ErrBookNotFound
		}
		return domain.Book{}, fmt.Errorf("get book: %w", err)
	}
	return b, nil
}

func (r *CatalogRepository) ListBooksByBranch(ctx context.Context, branchID string) ([]domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE branch_id = $1 ORDER BY created_at, id`

	rows, err := r.query(ctx, query, branchID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var books []domain.Book
	for rows.Next() {
		var b domain.Book
		if err := rows.Scan(
			&b.ID, &b.BranchID, &b.Title, &b.Author, &b.ISBN, &b.Description,
			&b.Quantity, &b.AvailableCopies, &b.IssueCount, &b.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

func (r *CatalogRepository) CreateCopies(ctx context.Context, copies []domain.Copy) error {
	const stmt = `
INSERT INTO copies (barcode, book_id, branch_id, seq, status)
VALUES ($1, $2, $3, $4, $5)`

	for _, cp := range copies {
		_, err := r.exec(ctx, stmt, cp.Barcode, cp.BookID, cp.BranchID, cp.Sequence, cp.Status)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrConflictRetry
			}
			if isForeignKeyViolation(err) {
				return domain.ErrBookNotFound
			}
			return fmt.Errorf("create copy %s: %w", cp.Barcode, err)
		}
	}
	return nil
}

func (r *CatalogRepository) ListCopies(ctx context.Context, bookID string) ([]domain.Copy, error) {
	const query = `
SELECT barcode, book_id, branch_id, seq, status
FROM copies
WHERE book_id = $1
ORDER BY barcode`

	rows, err := r.query(ctx, query, bookID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list copies: %w", err)
	}
	defer rows.Close()

	var copies []domain.Copy
	for rows.Next() {
		var cp domain.Copy
		if err := rows.Scan(&cp.Barcode, &cp.BookID, &cp.BranchID, &cp.Sequence, &cp.Status); err != nil {
			return nil, fmt.Errorf("scan copy: %w", err)
		}
		copies = append(copies, cp)
	}
	if err := rows.Err(); err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list copies: %w", err)
	}
	return copies, nil
}

func (r *CatalogRepository) UpdateBookQuantity(ctx context.Context, bookID string, newQuantity, addedCopies int) error {
	const stmt = `
UPDATE books
SET quantity = $2, available_copies = available_copies + $3
WHERE id = $1`

	tag, err := r.exec(ctx, stmt, bookID, newQuantity, addedCopies)
	if err != nil {
		return fmt.Errorf("update book quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

func (r *CatalogRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *CatalogRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *CatalogRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
