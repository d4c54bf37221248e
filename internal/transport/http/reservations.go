package http

import (
	"context"
	"net/http"
	"time"

	"github.com/hexs00si/lms-circulation/internal/domain"
)

// Reserver is the slice of the circulation engine the reservation handlers
// need.
type Reserver interface {
	ReserveCopy(ctx context.Context, memberID, barcode string) (domain.BookReservation, error)
	ReserveAnyCopy(ctx context.Context, memberID, bookID string) (domain.BookReservation, error)
	FulfillReservation(ctx context.Context, reservationID, librarianID string) (domain.BookIssue, error)
	CancelReservation(ctx context.Context, reservationID string) (domain.BookReservation, error)
}

// HandleReserveCopy places a hold on a specific copy.
func HandleReserveCopy(svc Reserver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		member, ok := memberID(r)
		if !ok {
			writeError(w, http.StatusForbidden, codeForbidden, "member identity required")
			return
		}

		res, err := svc.ReserveCopy(r.Context(), member, pathParam(r, "barcode"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toReservationResponse(res))
	}
}

// HandleReserveAnyCopy places a hold on the first available copy of a title.
func HandleReserveAnyCopy(svc Reserver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		member, ok := memberID(r)
		if !ok {
			writeError(w, http.StatusForbidden, codeForbidden, "member identity required")
			return
		}

		res, err := svc.ReserveAnyCopy(r.Context(), member, pathParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toReservationResponse(res))
	}
}

// HandleFulfillReservation issues the reserved copy to the reservation's
// member.
func HandleFulfillReservation(svc Reserver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		librarian, ok := librarianID(r)
		if !ok {
			writeError(w, http.StatusForbidden, codeForbidden, "librarian identity required")
			return
		}

		issue, err := svc.FulfillReservation(r.Context(), pathParam(r, "id"), librarian)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toIssueResponse(issue))
	}
}

// HandleCancelReservation cancels an active reservation.
func HandleCancelReservation(svc Reserver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.CancelReservation(r.Context(), pathParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toReservationResponse(res))
	}
}

type reservationResponse struct {
	ID          string    `json:"id"`
	MemberID    string    `json:"member_id"`
	CopyBarcode string    `json:"copy_barcode"`
	BranchID    string    `json:"branch_id"`
	Status      string    `json:"status"`
	ReservedAt  time.Time `json:"reserved_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func toReservationResponse(res domain.BookReservation) reservationResponse {
	return reservationResponse{
		ID:          res.ID,
		MemberID:    res.MemberID,
		CopyBarcode: res.CopyBarcode,
		BranchID:    res.BranchID,
		Status:      string(res.Status),
		ReservedAt:  res.ReservedAt,
		ExpiresAt:   res.ExpiresAt,
	}
}
