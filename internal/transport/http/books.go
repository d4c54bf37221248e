package http

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/hexs00si/lms-circulation/internal/app"
	"github.com/hexs00si/lms-circulation/internal/domain"
)

// Catalog is the slice of the catalog service the book handlers need.
type Catalog interface {
	AddTitle(ctx context.Context, in app.AddTitleInput) (domain.Book, error)
	IncreaseQuantity(ctx context.Context, bookID string, newQuantity int) (domain.Book, error)
	GetBook(ctx context.Context, bookID string) (domain.Book, error)
	ListBooks(ctx context.Context, branchID string) ([]domain.Book, error)
	ListCopies(ctx context.Context, bookID string) ([]domain.Copy, error)
}

// HandleAddTitle creates a title with its initial batch of copies.
func HandleAddTitle(svc Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := librarianID(r); !ok {
			writeError(w, http.StatusForbidden, codeForbidden, "librarian identity required")
			return
		}

		var req addTitleRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		book, err := svc.AddTitle(r.Context(), app.AddTitleInput{
			BranchID:    req.BranchID,
			Title:       req.Title,
			Author:      req.Author,
			ISBN:        req.ISBN,
			Description: req.Description,
			Quantity:    req.Quantity,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toBookResponse(book))
	}
}

// HandleIncreaseQuantity grows a title's inventory.
func HandleIncreaseQuantity(svc Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := librarianID(r); !ok {
			writeError(w, http.StatusForbidden, codeForbidden, "librarian identity required")
			return
		}

		var req increaseQuantityRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		book, err := svc.IncreaseQuantity(r.Context(), pathParam(r, "id"), req.Quantity)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toBookResponse(book))
	}
}

// HandleGetBook returns one book with its copies.
func HandleGetBook(svc Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookID := pathParam(r, "id")
		book, err := svc.GetBook(r.Context(), bookID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		copies, err := svc.ListCopies(r.Context(), bookID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := bookDetailResponse{bookResponse: toBookResponse(book)}
		for _, cp := range copies {
			resp.Copies = append(resp.Copies, copyResponse{
				Barcode: cp.Barcode,
				Status:  string(cp.Status),
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleListBooks lists a branch's titles.
func HandleListBooks(svc Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		branchID := r.URL.Query().Get("branch_id")
		books, err := svc.ListBooks(r.Context(), branchID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := make([]bookResponse, 0, len(books))
		for _, b := range books {
			resp = append(resp, toBookResponse(b))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func pathParam(r *http.Request, name string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(name)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type addTitleRequest struct {
	BranchID    string `json:"branch_id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	ISBN        string `json:"isbn"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
}

type increaseQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type bookResponse struct {
	ID              string    `json:"id"`
	BranchID        string    `json:"branch_id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	ISBN            string    `json:"isbn"`
	Description     string    `json:"description"`
	Quantity        int       `json:"quantity"`
	AvailableCopies int       `json:"available_copies"`
	IssueCount      int       `json:"issue_count"`
	CreatedAt       time.Time `json:"created_at"`
}

type copyResponse struct {
	Barcode string `json:"barcode"`
	Status  string `json:"status"`
}

type bookDetailResponse struct {
	bookResponse
	Copies []copyResponse `json:"copies"`
}

func toBookResponse(b domain.Book) bookResponse {
	return bookResponse{
		ID:              b.ID,
		BranchID:        b.BranchID,
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            b.ISBN,
		Description:     b.Description,
		Quantity:        b.Quantity,
		AvailableCopies: b.AvailableCopies,
		IssueCount:      b.IssueCount,
		CreatedAt:       b.CreatedAt,
	}
}
