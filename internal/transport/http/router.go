package http

import (
	"log"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"golang.org/x/time/rate"
)

// Circulation is the full engine surface the router wires up.
type Circulation interface {
	Requester
	Reserver
	Returner
}

type RouterConfig struct {
	Catalog     Catalog
	Circulation Circulation
	Logger      *log.Logger
	CORSOrigins []string
	// RateLimit is per-client-IP requests per second; zero disables limiting.
	RateLimit rate.Limit
	RateBurst int
}

// NewRouter assembles the API. Middleware order, outermost first: request
// logging, CORS, panic recovery, rate limiting, router.
func NewRouter(cfg RouterConfig) http.Handler {
	router := httprouter.New()
	router.NotFound = NotFoundHandler()
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	})

	router.HandlerFunc(http.MethodGet, "/health", HealthHandler)

	router.HandlerFunc(http.MethodPost, "/v1/books", HandleAddTitle(cfg.Catalog))
	router.HandlerFunc(http.MethodGet, "/v1/books", HandleListBooks(cfg.Catalog))
	router.HandlerFunc(http.MethodGet, "/v1/books/:id", HandleGetBook(cfg.Catalog))
	router.HandlerFunc(http.MethodPatch, "/v1/books/:id/quantity", HandleIncreaseQuantity(cfg.Catalog))

	router.HandlerFunc(http.MethodPost, "/v1/books/:id/request", HandleRequestAnyCopy(cfg.Circulation))
	router.HandlerFunc(http.MethodPost, "/v1/books/:id/reserve", HandleReserveAnyCopy(cfg.Circulation))

	router.HandlerFunc(http.MethodPost, "/v1/copies/:barcode/request", HandleRequestCopy(cfg.Circulation))
	router.HandlerFunc(http.MethodPost, "/v1/copies/:barcode/reserve", HandleReserveCopy(cfg.Circulation))
	router.HandlerFunc(http.MethodPost, "/v1/copies/:barcode/return", HandleReturnCopy(cfg.Circulation))

	router.HandlerFunc(http.MethodPost, "/v1/requests/:id/approve", HandleApproveRequest(cfg.Circulation))
	router.HandlerFunc(http.MethodPost, "/v1/requests/:id/reject", HandleRejectRequest(cfg.Circulation))

	router.HandlerFunc(http.MethodPost, "/v1/reservations/:id/fulfill", HandleFulfillReservation(cfg.Circulation))
	router.HandlerFunc(http.MethodPost, "/v1/reservations/:id/cancel", HandleCancelReservation(cfg.Circulation))

	router.HandlerFunc(http.MethodPost, "/v1/fines/:id/pay", HandlePayFine(cfg.Circulation))

	var handler http.Handler = router
	if cfg.RateLimit > 0 {
		handler = RateLimit(handler, cfg.RateLimit, cfg.RateBurst)
	}
	handler = RecoverPanic(handler)
	handler = CORS(cfg.CORSOrigins, handler)
	return RequestLogger(handler, cfg.Logger)
}
