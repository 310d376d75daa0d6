package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

const (
	maxQuestionLen = 300
	maxOptionLen   = 200
)

type pollService struct {
	repo ports.PollRepository
}

func NewPollService(repo ports.PollRepository) ports.PollService {
	return &pollService{
		repo: repo,
	}
}

// Create builds a poll from either input shape. Explicit questions without
// text or with fewer than two options are dropped; the poll is rejected when
// none remain.
func (s *pollService) Create(ctx context.Context, input ports.CreatePollInput) (*domain.Poll, error) {
	pollID := uuid.NewString()
	now := time.Now().UTC()

	poll := &domain.Poll{
		ID:        pollID,
		CreatedAt: now,
	}

	if len(input.Questions) > 0 {
		for _, qIn := range input.Questions {
			q, ok := buildQuestion(pollID, uuid.NewString(), qIn.Text, qIn.Options)
			if ok {
				poll.Questions = append(poll.Questions, q)
			}
		}
		if len(poll.Questions) == 0 {
			return nil, fmt.Errorf("%w: no question with text and at least two options", domain.ErrInvalidPoll)
		}
		poll.Policy = domain.VotingPolicy{
			AllowMultipleVotes:  input.Policy.AllowMultipleVotes,
			MaxVotesPerQuestion: max(1, input.Policy.MaxVotesPerQuestion),
		}
	} else {
		q, ok := buildQuestion(pollID, domain.SingleQuestionID, input.Question, input.Options)
		if !ok {
			return nil, fmt.Errorf("%w: question and at least two options are required", domain.ErrInvalidPoll)
		}
		poll.Questions = []domain.Question{q}
		poll.Policy = domain.VotingPolicy{MaxVotesPerQuestion: 1}
	}
	poll.Title = poll.Questions[0].Text

	if err := s.repo.Save(ctx, poll); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreFailure, err)
	}

	return poll, nil
}

func (s *pollService) GetPoll(ctx context.Context, id string) (*domain.Poll, error) {
	poll, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrPollNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreFailure, err)
	}
	return poll, nil
}

func buildQuestion(pollID, questionID, text string, optionTexts []string) (domain.Question, bool) {
	text = truncate(strings.TrimSpace(text), maxQuestionLen)
	if text == "" {
		return domain.Question{}, false
	}

	q := domain.Question{ID: questionID, PollID: pollID, Text: text}
	for _, optText := range optionTexts {
		optText = truncate(strings.TrimSpace(optText), maxOptionLen)
		if optText == "" {
			continue
		}
		q.Options = append(q.Options, domain.Option{
			ID:         uuid.NewString(),
			QuestionID: questionID,
			PollID:     pollID,
			Text:       optText,
		})
	}

	return q, len(q.Options) >= 2
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
