package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

const voterCookieMaxAge = 365 * 24 * 60 * 60

type VoteHandler struct {
	service      ports.VoteService
	identity     ports.IdentityResolver
	cookieSecure bool
	logger       *slog.Logger
}

func NewVoteHandler(service ports.VoteService, identity ports.IdentityResolver, cookieSecure bool, logger *slog.Logger) *VoteHandler {
	return &VoteHandler{
		service:      service,
		identity:     identity,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

type voteRequest struct {
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId"`
}

type voteResponse struct {
	OK bool `json:"ok"`
}

// VoteOnPoll godoc
// @Summary      Casts an anonymous vote
// @Description  The voter is recognised by the `pv_<poll id>` cookie or by a fingerprint of address and user agent. `questionId` may be omitted for single-question polls.
// @Tags         votes
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Poll ID"
// @Success      201
// @Failure      400
// @Failure      404
// @Failure      409
// @Failure      429
// @Router       /api/polls/{id}/votes [post]
func (h *VoteHandler) VoteOnPoll(w http.ResponseWriter, r *http.Request) {
	pollID := chi.URLParam(r, "id")

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if req.OptionID == "" {
		writeError(w, http.StatusBadRequest, "Missing optionId")
		return
	}

	cookieName := voterCookieName(pollID)
	meta := ports.RequestMeta{
		RemoteAddr:   r.RemoteAddr,
		ForwardedFor: r.Header.Get("X-Forwarded-For"),
		UserAgent:    r.UserAgent(),
	}
	if c, err := r.Cookie(cookieName); err == nil {
		meta.Token = c.Value
	}

	identity, issued, err := h.identity.Resolve(pollID, meta)
	if err != nil {
		h.logger.Error("failed to resolve voter identity", "poll_id", pollID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}

	err = h.service.Vote(r.Context(), ports.VoteInput{
		PollID:     pollID,
		QuestionID: req.QuestionID,
		OptionID:   req.OptionID,
		Identity:   identity,
	})

	// Unknown polls never get a voter cookie.
	if issued && !errors.Is(err, domain.ErrPollNotFound) {
		http.SetCookie(w, &http.Cookie{
			Name:     cookieName,
			Value:    identity.Token,
			Path:     "/",
			MaxAge:   voterCookieMaxAge,
			HttpOnly: true,
			Secure:   h.cookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	if err != nil {
		status, message := voteErrorStatus(err)
		writeError(w, status, message)
		return
	}

	writeJSON(w, http.StatusCreated, voteResponse{OK: true})
}

func voterCookieName(pollID string) string {
	return "pv_" + pollID
}

func voteErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrMissingOption):
		return http.StatusBadRequest, "Missing optionId"
	case errors.Is(err, domain.ErrInvalidOption):
		return http.StatusBadRequest, "Invalid option"
	case errors.Is(err, domain.ErrPollNotFound):
		return http.StatusNotFound, "Poll not found"
	case errors.Is(err, domain.ErrQuestionNotFound):
		return http.StatusNotFound, "Question not found"
	case errors.Is(err, domain.ErrAlreadyVoted):
		return http.StatusConflict, "Already voted for this question"
	case errors.Is(err, domain.ErrQuotaExceeded):
		return http.StatusTooManyRequests, "Vote limit reached for this question"
	default:
		return http.StatusInternalServerError, "Failed to record vote"
	}
}
