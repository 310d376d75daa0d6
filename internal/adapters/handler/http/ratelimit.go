package http

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/vncsmyrnk/livepoll/internal/adapters/ratelimit"
	"github.com/vncsmyrnk/livepoll/internal/core/services"
)

// RateLimit rejects a client once it exceeds limit requests per window on
// the named route. Limiter errors let the request through.
func RateLimit(limiter ratelimit.Limiter, name string, limit int, window time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := name + ":" + services.ClientIP(r.Header.Get("X-Forwarded-For"), r.RemoteAddr)

			res, err := limiter.Allow(r.Context(), key, limit, window)
			if err != nil {
				logger.Error("rate limiter unavailable", "route", name, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			if !res.Allowed {
				retry := int(math.Ceil(time.Until(res.ResetAt).Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(max(1, retry)))
				writeError(w, http.StatusTooManyRequests, "Too many requests, please try again later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
