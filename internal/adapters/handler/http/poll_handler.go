package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

type PollHandler struct {
	service ports.PollService
	tally   ports.TallyService
	logger  *slog.Logger
}

func NewPollHandler(service ports.PollService, tally ports.TallyService, logger *slog.Logger) *PollHandler {
	return &PollHandler{
		service: service,
		tally:   tally,
		logger:  logger,
	}
}

type createQuestionRequest struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type createPollRequest struct {
	Question  string                  `json:"question"`
	Options   []string                `json:"options"`
	Questions []createQuestionRequest `json:"questions"`
	Settings  struct {
		AllowMultipleVotes  bool `json:"allowMultipleVotes"`
		MaxVotesPerQuestion int  `json:"maxVotesPerQuestion"`
	} `json:"settings"`
}

type createPollResponse struct {
	ID   string `json:"id"`
	Link string `json:"link"`
}

type pollViewResponse struct {
	Poll      *domain.Poll        `json:"poll"`
	Questions []domain.Question   `json:"questions"`
	Results   []domain.TallyEntry `json:"results"`
}

// CreatePoll godoc
// @Summary      Creates a poll
// @Description  Accepts either `questions` (each with at least two options) or the single `question` + `options` shape.
// @Tags         polls
// @Accept       json
// @Produce      json
// @Success      201
// @Failure      400
// @Failure      429
// @Router       /api/polls [post]
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req createPollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	input := ports.CreatePollInput{
		Question: req.Question,
		Options:  req.Options,
		Policy: domain.VotingPolicy{
			AllowMultipleVotes:  req.Settings.AllowMultipleVotes,
			MaxVotesPerQuestion: req.Settings.MaxVotesPerQuestion,
		},
	}
	for _, q := range req.Questions {
		input.Questions = append(input.Questions, ports.CreateQuestionInput{Text: q.Question, Options: q.Options})
	}

	poll, err := h.service.Create(r.Context(), input)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidPoll) {
			writeError(w, http.StatusBadRequest, "Invalid payload")
			return
		}
		h.logger.Error("failed to create poll", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create poll")
		return
	}

	writeJSON(w, http.StatusCreated, createPollResponse{
		ID:   poll.ID,
		Link: "/api/polls/" + poll.ID,
	})
}

// GetPoll godoc
// @Summary      Gets a poll with its questions and current results
// @Tags         polls
// @Produce      json
// @Param        id   path      string  true  "Poll ID"
// @Success      200
// @Failure      404
// @Router       /api/polls/{id} [get]
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var (
		poll    *domain.Poll
		results []domain.TallyEntry
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		poll, err = h.service.GetPoll(ctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		results, err = h.tally.Tally(ctx, id)
		return err
	})

	if err := g.Wait(); err != nil {
		h.writeReadError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pollViewResponse{
		Poll:      poll,
		Questions: poll.Questions,
		Results:   results,
	})
}

// GetResults godoc
// @Summary      Gets the current tally of a poll
// @Tags         polls
// @Produce      json
// @Param        id   path      string  true  "Poll ID"
// @Success      200
// @Failure      404
// @Router       /api/polls/{id}/results [get]
func (h *PollHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.tally.Tally(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeReadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *PollHandler) writeReadError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrPollNotFound) {
		writeError(w, http.StatusNotFound, "Poll not found")
		return
	}
	h.logger.Error("failed to load poll", "error", err)
	writeError(w, http.StatusInternalServerError, "Failed to load poll")
}
