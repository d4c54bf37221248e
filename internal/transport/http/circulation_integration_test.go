package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hexs00si/lms-circulation/internal/app"
	"github.com/hexs00si/lms-circulation/internal/clock"
	"github.com/hexs00si/lms-circulation/internal/domain"
	"github.com/hexs00si/lms-circulation/internal/storage/postgres"
	"github.com/hexs00si/lms-circulation/internal/testutil"
)

// Full loan lifecycle against a real database: add a title, request a copy,
// approve, return it late and settle the fine.
func TestLoanLifecycle_HTTPIntegration(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	branchID := testutil.InsertBranch(t, ctx, pool, "Central", 14, 5)

	issuedAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	catalogSvc := app.NewCatalogService(postgres.NewCatalogRepository(pool), clock.NewFixed(issuedAt))
	circSvc := app.NewCirculationService(postgres.NewCirculationRepository(pool), clock.NewFixed(issuedAt))

	body := []byte(`{"branch_id":"` + branchID + `","title":"Dune","author":"Frank Herbert","quantity":1}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/books", bytes.NewBuffer(body))
	req.Header.Set(librarianHeader, "librarian-1")
	rec := httptest.NewRecorder()
	HandleAddTitle(catalogSvc).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("add title: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var created bookResponse
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode book: %v", err)
	}
	barcode := domain.CopyBarcode(created.ID, 1)

	// Handlers below read path params, so drive them through the router.
	router := NewRouter(RouterConfig{Catalog: catalogSvc, Circulation: circSvc})

	req = httptest.NewRequest(http.MethodPost, "/v1/copies/"+barcode+"/request", nil)
	req.Header.Set(memberHeader, "member-1")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("request copy: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var placed requestResponse
	if err := json.NewDecoder(rec.Body).Decode(&placed); err != nil {
		t.Fatalf("decode request: %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/requests/"+placed.ID+"/approve", nil)
	req.Header.Set(librarianHeader, "librarian-1")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("approve: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var loaned issueResponse
	if err := json.NewDecoder(rec.Body).Decode(&loaned); err != nil {
		t.Fatalf("decode issue: %v", err)
	}
	wantDue := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	if !loaned.DueAt.Equal(wantDue) {
		t.Fatalf("expected due %v, got %v", wantDue, loaned.DueAt)
	}

	// Return three calendar days late at 5 per day.
	lateSvc := app.NewCirculationService(postgres.NewCirculationRepository(pool), clock.NewFixed(wantDue.AddDate(0, 0, 3).Add(11*time.Hour)))
	lateRouter := NewRouter(RouterConfig{Catalog: catalogSvc, Circulation: lateSvc})

	req = httptest.NewRequest(http.MethodPost, "/v1/copies/"+barcode+"/return", nil)
	req.Header.Set(librarianHeader, "librarian-1")
	rec = httptest.NewRecorder()
	lateRouter.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("return: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var returned returnResponse
	if err := json.NewDecoder(rec.Body).Decode(&returned); err != nil {
		t.Fatalf("decode return: %v", err)
	}
	if !returned.Issue.IsReturned {
		t.Fatalf("expected issue returned")
	}
	if returned.Fine == nil || returned.Fine.Amount != 15 {
		t.Fatalf("expected fine of 15, got %+v", returned.Fine)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/fines/"+returned.Fine.ID+"/pay", nil)
	req.Header.Set(memberHeader, "member-1")
	rec = httptest.NewRecorder()
	lateRouter.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("pay fine: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var paid fineResponse
	if err := json.NewDecoder(rec.Body).Decode(&paid); err != nil {
		t.Fatalf("decode fine: %v", err)
	}
	if !paid.IsPaid {
		t.Fatalf("expected fine paid")
	}

	var copyStatus string
	if err := pool.QueryRow(ctx, `SELECT status FROM copies WHERE barcode = $1`, barcode).Scan(&copyStatus); err != nil {
		t.Fatalf("query copy: %v", err)
	}
	if copyStatus != string(domain.CopyStatusAvailable) {
		t.Fatalf("expected copy available, got %s", copyStatus)
	}

	var available, issueCount int
	if err := pool.QueryRow(ctx, `SELECT available_copies, issue_count FROM books WHERE id = $1`, created.ID).Scan(&available, &issueCount); err != nil {
		t.Fatalf("query book: %v", err)
	}
	if available != 1 || issueCount != 1 {
		t.Fatalf("expected counters 1/1, got available=%d issue_count=%d", available, issueCount)
	}
}
