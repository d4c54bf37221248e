package http

import (
	"errors"
	"net/http"

	"github.com/hexs00si/lms-circulation/internal/domain"
)

const (
	codeNotFound           = "not_found"
	codeMethodNotAllowed   = "method_not_allowed"
	codeInvalidRequestBody = "invalid_request_body"
	codeInvalidID          = "invalid_id"
	codeTitleRequired      = "title_required"
	codeInvalidQuantity    = "invalid_quantity"
	codeQuantityNotGrowing = "quantity_not_increasing"
	codeInvalidCopyState   = "invalid_copy_state"
	codeRequestResolved    = "request_already_resolved"
	codeReservationClosed  = "reservation_not_active"
	codeReservationExpired = "reservation_expired"
	codeCopyUnavailable    = "copy_unavailable"
	codeNoOpenIssue        = "no_open_issue"
	codeConflictRetry      = "conflict_retry"
	codeForbidden          = "forbidden"
	codeTooManyRequests    = "too_many_requests"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps an engine error to an HTTP status and code. Callers
// must assume no state changed whenever a non-2xx response comes back.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrTitleRequired):
		writeError(w, http.StatusBadRequest, codeTitleRequired, err.Error())
	case errors.Is(err, domain.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, codeInvalidQuantity, err.Error())
	case errors.Is(err, domain.ErrBookNotFound),
		errors.Is(err, domain.ErrCopyNotFound),
		errors.Is(err, domain.ErrRequestNotFound),
		errors.Is(err, domain.ErrReservationNotFound),
		errors.Is(err, domain.ErrFineNotFound),
		errors.Is(err, domain.ErrBranchNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, domain.ErrQuantityNotIncreasing):
		writeError(w, http.StatusConflict, codeQuantityNotGrowing, err.Error())
	case errors.Is(err, domain.ErrInvalidCopyState):
		writeError(w, http.StatusConflict, codeInvalidCopyState, err.Error())
	case errors.Is(err, domain.ErrInvalidRequestState):
		writeError(w, http.StatusConflict, codeRequestResolved, err.Error())
	case errors.Is(err, domain.ErrReservationNotActive):
		writeError(w, http.StatusConflict, codeReservationClosed, err.Error())
	case errors.Is(err, domain.ErrReservationExpired):
		writeError(w, http.StatusConflict, codeReservationExpired, err.Error())
	case errors.Is(err, domain.ErrCopyUnavailable):
		writeError(w, http.StatusConflict, codeCopyUnavailable, err.Error())
	case errors.Is(err, domain.ErrNoOpenIssue):
		writeError(w, http.StatusConflict, codeNoOpenIssue, err.Error())
	case errors.Is(err, domain.ErrConflictRetry):
		writeError(w, http.StatusConflict, codeConflictRetry, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
