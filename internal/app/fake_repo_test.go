package app

import (
	"context"
	"sort"
	"time"

	"github.com/hexs00si/lms-circulation/internal/domain"
	"github.com/hexs00si/lms-circulation/internal/event"
)

// fakeCircRepo is an in-memory CirculationRepository. WithTx snapshots state
// and restores it when fn fails, matching the all-or-nothing behavior of the
// real transactions.
type fakeCircRepo struct {
	copies       map[string]domain.Copy
	books        map[string]*fakeBookCounters
	branches     map[string]domain.Branch
	requests     map[string]domain.BookRequest
	reservations map[string]domain.BookReservation
	issues       map[string]domain.BookIssue
	fines        map[string]domain.Fine

	txAttempts     int
	alwaysConflict bool
}

type fakeBookCounters struct {
	BranchID        string
	Quantity        int
	AvailableCopies int
	IssueCount      int
}

func newFakeCircRepo(branch domain.Branch, bookID string, copies []domain.Copy) *fakeCircRepo {
	repo := &fakeCircRepo{
		copies:       make(map[string]domain.Copy),
		books:        make(map[string]*fakeBookCounters),
		branches:     map[string]domain.Branch{branch.ID: branch},
		requests:     make(map[string]domain.BookRequest),
		reservations: make(map[string]domain.BookReservation),
		issues:       make(map[string]domain.BookIssue),
		fines:        make(map[string]domain.Fine),
	}
	available := 0
	for _, cp := range copies {
		repo.copies[cp.Barcode] = cp
		if cp.Status == domain.CopyStatusAvailable {
			available++
		}
	}
	repo.books[bookID] = &fakeBookCounters{
		BranchID:        branch.ID,
		Quantity:        len(copies),
		AvailableCopies: available,
	}
	return repo
}

type fakeSnapshot struct {
	copies       map[string]domain.Copy
	books        map[string]fakeBookCounters
	requests     map[string]domain.BookRequest
	reservations map[string]domain.BookReservation
	issues       map[string]domain.BookIssue
	fines        map[string]domain.Fine
}

func (f *fakeCircRepo) snapshot() fakeSnapshot {
	snap := fakeSnapshot{
		copies:       make(map[string]domain.Copy, len(f.copies)),
		books:        make(map[string]fakeBookCounters, len(f.books)),
		requests:     make(map[string]domain.BookRequest, len(f.requests)),
		reservations: make(map[string]domain.BookReservation, len(f.reservations)),
		issues:       make(map[string]domain.BookIssue, len(f.issues)),
		fines:        make(map[string]domain.Fine, len(f.fines)),
	}
	for k, v := range f.copies {
		snap.copies[k] = v
	}
	for k, v := range f.books {
		snap.books[k] = *v
	}
	for k, v := range f.requests {
		snap.requests[k] = v
	}
	for k, v := range f.reservations {
		snap.reservations[k] = v
	}
	for k, v := range f.issues {
		snap.issues[k] = v
	}
	for k, v := range f.fines {
		snap.fines[k] = v
	}
	return snap
}

func (f *fakeCircRepo) restore(snap fakeSnapshot) {
	f.copies = snap.copies
	f.books = make(map[string]*fakeBookCounters, len(snap.books))
	for k, v := range snap.books {
		counters := v
		f.books[k] = &counters
	}
	f.requests = snap.requests
	f.reservations = snap.reservations
	f.issues = snap.issues
	f.fines = snap.fines
}

func (f *fakeCircRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.txAttempts++
	snap := f.snapshot()
	if err := fn(ctx); err != nil {
		f.restore(snap)
		return err
	}
	return nil
}

func (f *fakeCircRepo) GetCopyForUpdate(_ context.Context, barcode string) (domain.Copy, error) {
	cp, ok := f.copies[barcode]
	if !ok {
		return domain.Copy{}, domain.ErrCopyNotFound
	}
	return cp, nil
}

func (f *fakeCircRepo) FirstAvailableCopyForUpdate(_ context.Context, bookID string) (domain.Copy, error) {
	barcodes := make([]string, 0, len(f.copies))
	for barcode, cp := range f.copies {
		if cp.BookID == bookID && cp.Status == domain.CopyStatusAvailable {
			barcodes = append(barcodes, barcode)
		}
	}
	if len(barcodes) == 0 {
		if _, ok := f.books[bookID]; !ok {
			return domain.Copy{}, domain.ErrBookNotFound
		}
		return domain.Copy{}, domain.ErrCopyUnavailable
	}
	sort.Strings(barcodes)
	return f.copies[barcodes[0]], nil
}

func (f *fakeCircRepo) UpdateCopyStatus(_ context.Context, barcode string, from, to domain.CopyStatus) error {
	if f.alwaysConflict {
		return domain.ErrConflictRetry
	}
	cp, ok := f.copies[barcode]
	if !ok {
		return domain.ErrCopyNotFound
	}
	if cp.Status != from {
		return domain.ErrConflictRetry
	}
	cp.Status = to
	f.copies[barcode] = cp
	return nil
}

func (f *fakeCircRepo) GetBranch(_ context.Context, branchID string) (domain.Branch, error) {
	branch, ok := f.branches[branchID]
	if !ok {
		return domain.Branch{}, domain.ErrBranchNotFound
	}
	return branch, nil
}

func (f *fakeCircRepo) AdjustAvailableCopies(_ context.Context, bookID string, delta int) error {
	book, ok := f.books[bookID]
	if !ok {
		return domain.ErrBookNotFound
	}
	next := book.AvailableCopies + delta
	if next < 0 || next > book.Quantity {
		return domain.ErrConflictRetry
	}
	book.AvailableCopies = next
	return nil
}

func (f *fakeCircRepo) IncrementIssueCount(_ context.Context, bookID string) error {
	book, ok := f.books[bookID]
	if !ok {
		return domain.ErrBookNotFound
	}
	book.IssueCount++
	return nil
}

func (f *fakeCircRepo) CreateRequest(_ context.Context, req domain.BookRequest) error {
	f.requests[req.ID] = req
	return nil
}

func (f *fakeCircRepo) GetRequestForUpdate(_ context.Context, requestID string) (domain.BookRequest, error) {
	req, ok := f.requests[requestID]
	if !ok {
		return domain.BookRequest{}, domain.ErrRequestNotFound
	}
	return req, nil
}

func (f *fakeCircRepo) ResolveRequest(_ context.Context, requestID string, status domain.RequestStatus, librarianID string, at time.Time) error {
	req, ok := f.requests[requestID]
	if !ok {
		return domain.ErrRequestNotFound
	}
	if req.Status != domain.RequestStatusPending {
		return domain.ErrInvalidRequestState
	}
	req.Status = status
	req.ResolvedBy = librarianID
	resolvedAt := at
	req.ResolvedAt = &resolvedAt
	f.requests[requestID] = req
	return nil
}

func (f *fakeCircRepo) CreateReservation(_ context.Context, res domain.BookReservation) error {
	f.reservations[res.ID] = res
	return nil
}

func (f *fakeCircRepo) GetReservationForUpdate(_ context.Context, reservationID string) (domain.BookReservation, error) {
	res, ok := f.reservations[reservationID]
	if !ok {
		return domain.BookReservation{}, domain.ErrReservationNotFound
	}
	return res, nil
}

func (f *fakeCircRepo) UpdateReservationStatus(_ context.Context, reservationID string, from, to domain.ReservationStatus) error {
	res, ok := f.reservations[reservationID]
	if !ok {
		return domain.ErrReservationNotFound
	}
	if res.Status != from {
		return domain.ErrConflictRetry
	}
	res.Status = to
	f.reservations[reservationID] = res
	return nil
}

func (f *fakeCircRepo) ListOverdueReservationIDs(_ context.Context, now time.Time, limit int) ([]string, error) {
	ids := make([]string, 0)
	for id, res := range f.reservations {
		if res.Status == domain.ReservationStatusActive && now.After(res.ExpiresAt) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (f *fakeCircRepo) ListExpiringReservations(_ context.Context, now, until time.Time) ([]domain.BookReservation, error) {
	out := make([]domain.BookReservation, 0)
	for _, res := range f.reservations {
		if res.Status != domain.ReservationStatusActive {
			continue
		}
		if res.ExpiresAt.After(now) && !res.ExpiresAt.After(until) {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCircRepo) CreateIssue(_ context.Context, issue domain.BookIssue) error {
	f.issues[issue.ID] = issue
	return nil
}

func (f *fakeCircRepo) GetOpenIssueForUpdate(_ context.Context, barcode string) (domain.BookIssue, error) {
	for _, issue := range f.issues {
		if issue.CopyBarcode == barcode && !issue.IsReturned {
			return issue, nil
		}
	}
	return domain.BookIssue{}, domain.ErrNoOpenIssue
}

func (f *fakeCircRepo) CloseIssue(_ context.Context, issueID string, returnedAt time.Time) error {
	issue, ok := f.issues[issueID]
	if !ok || issue.IsReturned {
		return domain.ErrNoOpenIssue
	}
	at := returnedAt
	issue.ReturnedAt = &at
	issue.IsReturned = true
	f.issues[issueID] = issue
	return nil
}

func (f *fakeCircRepo) CreateFine(_ context.Context, fine domain.Fine) error {
	f.fines[fine.ID] = fine
	return nil
}

func (f *fakeCircRepo) GetFineForUpdate(_ context.Context, fineID string) (domain.Fine, error) {
	fine, ok := f.fines[fineID]
	if !ok {
		return domain.Fine{}, domain.ErrFineNotFound
	}
	return fine, nil
}

func (f *fakeCircRepo) MarkFinePaid(_ context.Context, fineID string) error {
	fine, ok := f.fines[fineID]
	if !ok {
		return domain.ErrFineNotFound
	}
	fine.IsPaid = true
	f.fines[fineID] = fine
	return nil
}

// capturingPublisher records published events for assertions.
type capturingPublisher struct {
	events []event.Event
}

func (c *capturingPublisher) Publish(e event.Event) {
	c.events = append(c.events, e)
}
