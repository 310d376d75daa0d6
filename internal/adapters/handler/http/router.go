package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vncsmyrnk/livepoll/internal/adapters/ratelimit"
)

// RateLimits configures the per-client limits of the write endpoints.
type RateLimits struct {
	Limiter ratelimit.Limiter
	Create  int
	Vote    int
	Window  time.Duration
}

func NewHandler(
	pollHandler *PollHandler,
	voteHandler *VoteHandler,
	liveHandler http.Handler,
	metricsHandler http.Handler,
	limits RateLimits,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}
	r.Handle("/ws", liveHandler)

	r.Route("/api", func(r chi.Router) {
		r.Route("/polls", func(r chi.Router) {
			r.With(RateLimit(limits.Limiter, "create", limits.Create, limits.Window, logger)).
				Post("/", pollHandler.CreatePoll)
			r.Get("/{id}", pollHandler.GetPoll)
			r.Get("/{id}/results", pollHandler.GetResults)
			r.With(RateLimit(limits.Limiter, "vote", limits.Vote, limits.Window, logger)).
				Post("/{id}/votes", voteHandler.VoteOnPoll)
		})
	})

	return r
}
