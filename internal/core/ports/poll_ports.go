package ports

import (
	"context"

	"github.com/vncsmyrnk/livepoll/internal/core/domain"
)

// PollRepository is the read/write boundary of the poll store. Every poll it
// returns has at least one question; legacy polls come back with the single
// implicit question.
type PollRepository interface {
	Save(ctx context.Context, poll *domain.Poll) error
	GetByID(ctx context.Context, id string) (*domain.Poll, error)
	GetQuestions(ctx context.Context, pollID string) ([]domain.Question, error)
	GetOptions(ctx context.Context, pollID, questionID string) ([]domain.Option, error)
}

type CreateQuestionInput struct {
	Text    string
	Options []string
}

// CreatePollInput accepts either the explicit multi-question shape
// (Questions) or the legacy single-question shape (Question and Options).
type CreatePollInput struct {
	Questions []CreateQuestionInput
	Question  string
	Options   []string
	Policy    domain.VotingPolicy
}

type PollService interface {
	Create(ctx context.Context, input CreatePollInput) (*domain.Poll, error)
	GetPoll(ctx context.Context, id string) (*domain.Poll, error)
}
