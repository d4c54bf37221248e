package http

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RequestLogger logs basic request details and latency.
func RequestLogger(next http.Handler, logger *log.Logger) http.Handler {
	if logger == nil {
		logger = log.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger.Printf(
			"request method=%s path=%s status=%d duration=%s",
			r.Method,
			r.URL.Path,
			rec.status,
			time.Since(start),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RecoverPanic converts a downstream panic into a clean 500 instead of a
// dropped connection.
func RecoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				w.Header().Set("Connection", "close")
				writeError(w, http.StatusInternalServerError, codeInternalError, fmt.Sprintf("%v", v))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type rateLimitClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const (
	rateLimitIdleTTL    = 3 * time.Minute
	rateLimitEvictEvery = time.Minute
)

// RateLimit applies a per-client-IP token bucket. Idle entries are evicted
// lazily on request, at most once per minute, so constructing the handler
// spawns no goroutine.
func RateLimit(next http.Handler, limit rate.Limit, burst int) http.Handler {
	if burst < 1 {
		burst = 1
	}

	var (
		mu        sync.Mutex
		clients   = make(map[string]*rateLimitClient)
		lastEvict = time.Now()
	)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		now := time.Now()
		mu.Lock()
		if now.Sub(lastEvict) > rateLimitEvictEvery {
			for addr, c := range clients {
				if now.Sub(c.lastSeen) > rateLimitIdleTTL {
					delete(clients, addr)
				}
			}
			lastEvict = now
		}
		c, ok := clients[ip]
		if !ok {
			c = &rateLimitClient{limiter: rate.NewLimiter(limit, burst)}
			clients[ip] = c
		}
		c.lastSeen = now
		allowed := c.limiter.Allow()
		mu.Unlock()

		if !allowed {
			writeError(w, http.StatusTooManyRequests, codeTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
