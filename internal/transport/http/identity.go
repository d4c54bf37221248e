package http

import "net/http"

// Caller identity arrives pre-authenticated from the identity provider in
// front of this service. Handlers only check that the role the operation
// needs is actually present and pass it through explicitly.
const (
	memberHeader    = "X-Member-ID"
	librarianHeader = "X-Librarian-ID"
)

func memberID(r *http.Request) (string, bool) {
	id := r.Header.Get(memberHeader)
	return id, id != ""
}

func librarianID(r *http.Request) (string, bool) {
	id := r.Header.Get(librarianHeader)
	return id, id != ""
}
