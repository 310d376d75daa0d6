package ports

import (
	"context"

	"github.com/vncsmyrnk/livepoll/internal/core/domain"
)

type VoteRepository interface {
	// CountVotes counts votes on the question whose token or fingerprint
	// matches the identity.
	CountVotes(ctx context.Context, pollID, questionID string, identity domain.Identity) (int, error)
	// SaveVote appends the vote and fills in its id. Exclusive votes are
	// covered by the store's uniqueness constraint; a violation is reported
	// as domain.ErrAlreadyVoted.
	SaveVote(ctx context.Context, vote *domain.Vote, exclusive bool) error
}

type VoteInput struct {
	PollID     string
	QuestionID string
	OptionID   string
	Identity   domain.Identity
}

type VoteService interface {
	Vote(ctx context.Context, input VoteInput) error
}

// Notifier is told about every admitted vote once it is durable.
type Notifier interface {
	Notify(pollID string)
}
