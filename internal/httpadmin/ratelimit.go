package httpadmin

import (
	"net/http"

	"golang.org/x/time/rate"

	"github.com/fulmenhq/fulmen-go/internal/fulmenerrors"
)

// RateLimit rejects requests once limiter's token bucket runs dry,
// writing a 429 with CodeHTTPRateLimited instead of letting the
// handler run.
func RateLimit(limiter *rate.Limiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			WriteError(w, http.StatusTooManyRequests, fulmenerrors.New(fulmenerrors.CodeHTTPRateLimited, "admin endpoint rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// DefaultLimiter is a conservative default for admin endpoints: they
// are operator-triggered, not high-throughput.
func DefaultLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Limit(5), 10)
}
