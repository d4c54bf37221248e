package http

import (
	"context"
	"net/http"
	"time"

	"github.com/hexs00si/lms-circulation/internal/domain"
)

// Requester is the slice of the circulation engine the request handlers need.
type Requester interface {
	RequestCopy(ctx context.Context, memberID, barcode string) (domain.BookRequest, error)
	RequestAnyCopy(ctx context.Context, memberID, bookID string) (domain.BookRequest, error)
	ApproveRequest(ctx context.Context, requestID, librarianID string) (domain.BookIssue, error)
	RejectRequest(ctx context.Context, requestID, librarianID string) (domain.BookRequest, error)
}

// HandleRequestCopy puts a specific copy on hold for the calling member.
func HandleRequestCopy(svc Requester) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		member, ok := memberID(r)
		if !ok {
			writeError(w, http.StatusForbidden, codeForbidden, "member identity required")
			return
		}

		req, err := svc.RequestCopy(r.Context(), member, pathParam(r, "barcode"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toRequestResponse(req))
	}
}

// HandleRequestAnyCopy requests the first available copy of a title.
func HandleRequestAnyCopy(svc Requester) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		member, ok := memberID(r)
		if !ok {
			writeError(w, http.StatusForbidden, codeForbidden, "member identity required")
			return
		}

		req, err := svc.RequestAnyCopy(r.Context(), member, pathParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toRequestResponse(req))
	}
}

// HandleApproveRequest resolves a pending request into a loan.
func HandleApproveRequest(svc Requester) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		librarian, ok := librarianID(r)
		if !ok {
			writeError(w, http.StatusForbidden, codeForbidden, "librarian identity required")
			return
		}

		issue, err := svc.ApproveRequest(r.Context(), pathParam(r, "id"), librarian)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toIssueResponse(issue))
	}
}

// HandleRejectRequest resolves a pending request without a loan.
func HandleRejectRequest(svc Requester) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		librarian, ok := librarianID(r)
		if !ok {
			writeError(w, http.StatusForbidden, codeForbidden, "librarian identity required")
			return
		}

		req, err := svc.RejectRequest(r.Context(), pathParam(r, "id"), librarian)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRequestResponse(req))
	}
}

type requestResponse struct {
	ID          string     `json:"id"`
	MemberID    string     `json:"member_id"`
	CopyBarcode string     `json:"copy_barcode"`
	BranchID    string     `json:"branch_id"`
	Status      string     `json:"status"`
	RequestedAt time.Time  `json:"requested_at"`
	ResolvedBy  string     `json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

func toRequestResponse(req domain.BookRequest) requestResponse {
	return requestResponse{
		ID:          req.ID,
		MemberID:    req.MemberID,
		CopyBarcode: req.CopyBarcode,
		BranchID:    req.BranchID,
		Status:      string(req.Status),
		RequestedAt: req.RequestedAt,
		ResolvedBy:  req.ResolvedBy,
		ResolvedAt:  req.ResolvedAt,
	}
}

type issueResponse struct {
	ID          string     `json:"id"`
	MemberID    string     `json:"member_id"`
	CopyBarcode string     `json:"copy_barcode"`
	BranchID    string     `json:"branch_id"`
	IssuedBy    string     `json:"issued_by"`
	IssuedAt    time.Time  `json:"issued_at"`
	DueAt       time.Time  `json:"due_at"`
	ReturnedAt  *time.Time `json:"returned_at,omitempty"`
	IsReturned  bool       `json:"is_returned"`
}

func toIssueResponse(issue domain.BookIssue) issueResponse {
	return issueResponse{
		ID:          issue.ID,
		MemberID:    issue.MemberID,
		CopyBarcode: issue.CopyBarcode,
		BranchID:    issue.BranchID,
		IssuedBy:    issue.IssuedBy,
		IssuedAt:    issue.IssuedAt,
		DueAt:       issue.DueAt,
		ReturnedAt:  issue.ReturnedAt,
		IsReturned:  issue.IsReturned,
	}
}
