package app

import (
	"context"

	"github.com/hexs00si/lms-circulation/internal/clock"
	"github.com/hexs00si/lms-circulation/internal/domain"
)

type CatalogRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateBook(ctx context.Context, book domain.Book) error
	GetBook(ctx context.Context, bookID string) (domain.Book, error)
	GetBookForUpdate(ctx context.Context, bookID string) (domain.Book, error)
	ListBooksByBranch(ctx context.Context, branchID string) ([]domain.Book, error)
	CreateCopies(ctx context.Context, copies []domain.Copy) error
	ListCopies(ctx context.Context, bookID string) ([]domain.Copy, error)
	UpdateBookQuantity(ctx context.Context, bookID string, newQuantity, addedCopies int) error
}

// CatalogService owns title-level writes: adding a title with its initial
// batch of copies and growing a title's inventory. Shrinking is unsupported;
// copies are retired individually outside this service.
type CatalogService struct {
	repo  CatalogRepository
	clock clock.Clock
}

func NewCatalogService(repo CatalogRepository, clk clock.Clock) *CatalogService {
	return &CatalogService{
		repo:  repo,
		clock: clk,
	}
}

type AddTitleInput struct {
	BranchID    string
	Title       string
	Author      string
	ISBN        string
	Description string
	Quantity    int
}

// AddTitle creates a Book and its Quantity sequential Available copies in one
// transaction. AvailableCopies starts equal to Quantity, IssueCount at zero.
func (s *CatalogService) AddTitle(ctx context.Context, in AddTitleInput) (domain.Book, error) {
	if in.BranchID == "" {
		return domain.Book{}, domain.ErrInvalidID
	}
	if in.Title == "" {
		return domain.Book{}, domain.ErrTitleRequired
	}
	if in.Quantity < 1 {
		return domain.Book{}, domain.ErrInvalidQuantity
	}

	book := domain.Book{
		ID:              newID(),
		BranchID:        in.BranchID,
		Title:           in.Title,
		Author:          in.Author,
		ISBN:            in.ISBN,
		Description:     in.Description,
		Quantity:        in.Quantity,
		AvailableCopies: in.Quantity,
		IssueCount:      0,
		CreatedAt:       s.clock.Now(),
	}
	copies := newCopies(book, 1, in.Quantity)

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.CreateBook(txCtx, book); err != nil {
			return err
		}
		return s.repo.CreateCopies(txCtx, copies)
	})
	if err != nil {
		return domain.Book{}, err
	}
	return book, nil
}

// IncreaseQuantity grows a title's inventory to newQuantity, creating the
// delta of Available copies with the next sequence numbers. The new quantity
// must strictly exceed the current one.
func (s *CatalogService) IncreaseQuantity(ctx context.Context, bookID string, newQuantity int) (domain.Book, error) {
	if bookID == "" {
		return domain.Book{}, domain.ErrInvalidID
	}
	if newQuantity < 1 {
		return domain.Book{}, domain.ErrInvalidQuantity
	}

	var book domain.Book
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		current, err := s.repo.GetBookForUpdate(txCtx, bookID)
		if err != nil {
			return err
		}
		if newQuantity <= current.Quantity {
			return domain.ErrQuantityNotIncreasing
		}

		delta := newQuantity - current.Quantity
		copies := newCopies(current, current.Quantity+1, newQuantity)
		if err := s.repo.CreateCopies(txCtx, copies); err != nil {
			return err
		}
		if err := s.repo.UpdateBookQuantity(txCtx, bookID, newQuantity, delta); err != nil {
			return err
		}

		current.Quantity = newQuantity
		current.AvailableCopies += delta
		book = current
		return nil
	})
	if err != nil {
		return domain.Book{}, err
	}
	return book, nil
}

func (s *CatalogService) GetBook(ctx context.Context, bookID string) (domain.Book, error) {
	if bookID == "" {
		return domain.Book{}, domain.ErrInvalidID
	}
	return s.repo.GetBook(ctx, bookID)
}

func (s *CatalogService) ListBooks(ctx context.Context, branchID string) ([]domain.Book, error) {
	if branchID == "" {
		return nil, domain.ErrInvalidID
	}
	return s.repo.ListBooksByBranch(ctx, branchID)
}

func (s *CatalogService) ListCopies(ctx context.Context, bookID string) ([]domain.Copy, error) {
	if bookID == "" {
		return nil, domain.ErrInvalidID
	}
	return s.repo.ListCopies(ctx, bookID)
}

func newCopies(book domain.Book, fromSeq, toSeq int) []domain.Copy {
	copies := make([]domain.Copy, 0, toSeq-fromSeq+1)
	for seq := fromSeq; seq <= toSeq; seq++ {
		copies = append(copies, domain.Copy{
			Barcode:  domain.CopyBarcode(book.ID, seq),
			BookID:   book.ID,
			BranchID: book.BranchID,
			Sequence: seq,
			Status:   domain.CopyStatusAvailable,
		})
	}
	return copies
}
