package http

import (
	"context"
	"net/http"
	"time"

	"github.com/hexs00si/lms-circulation/internal/app"
	"github.com/hexs00si/lms-circulation/internal/domain"
)

// Returner is the slice of the circulation engine the return and fine
// handlers need.
type Returner interface {
	ReturnCopy(ctx context.Context, barcode, librarianID string) (app.ReturnResult, error)
	PayFine(ctx context.Context, fineID string) (domain.Fine, error)
}

// HandleReturnCopy closes the copy's open loan, imposing a fine when late.
func HandleReturnCopy(svc Returner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		librarian, ok := librarianID(r)
		if !ok {
			writeError(w, http.StatusForbidden, codeForbidden, "librarian identity required")
			return
		}

		result, err := svc.ReturnCopy(r.Context(), pathParam(r, "barcode"), librarian)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := returnResponse{Issue: toIssueResponse(result.Issue)}
		if result.Fine != nil {
			fine := toFineResponse(*result.Fine)
			resp.Fine = &fine
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandlePayFine settles a fine. Paying twice is a no-op.
func HandlePayFine(svc Returner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fine, err := svc.PayFine(r.Context(), pathParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toFineResponse(fine))
	}
}

type returnResponse struct {
	Issue issueResponse `json:"issue"`
	Fine  *fineResponse `json:"fine,omitempty"`
}

type fineResponse struct {
	ID          string    `json:"id"`
	MemberID    string    `json:"member_id"`
	CopyBarcode string    `json:"copy_barcode"`
	IssueID     string    `json:"issue_id"`
	Amount      int64     `json:"amount"`
	ImposedAt   time.Time `json:"imposed_at"`
	IsPaid      bool      `json:"is_paid"`
}

func toFineResponse(f domain.Fine) fineResponse {
	return fineResponse{
		ID:          f.ID,
		MemberID:    f.MemberID,
		CopyBarcode: f.CopyBarcode,
		IssueID:     f.IssueID,
		Amount:      f.Amount,
		ImposedAt:   f.ImposedAt,
		IsPaid:      f.IsPaid,
	}
}
