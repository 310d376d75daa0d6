package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

type voteRepository struct {
	db *sql.DB
}

func NewVoteRepository(db *sql.DB) ports.VoteRepository {
	return &voteRepository{
		db: db,
	}
}

func (r *voteRepository) CountVotes(ctx context.Context, pollID, questionID string, identity domain.Identity) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM votes
		WHERE poll_id = $1 AND question_id = $2 AND (voter_token = $3 OR voter_fingerprint = $4)
	`
	var count int
	err := r.db.QueryRowContext(ctx, query, pollID, questionID, identity.Token, identity.Fingerprint).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return count, nil
}

func (r *voteRepository) SaveVote(ctx context.Context, vote *domain.Vote, exclusive bool) error {
	query := `
		INSERT INTO votes (poll_id, question_id, option_id, voter_token, voter_fingerprint, exclusive, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		vote.PollID, vote.QuestionID, vote.OptionID, vote.VoterToken, vote.VoterFingerprint, exclusive, vote.CreatedAt.UnixMilli(),
	).Scan(&vote.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyVoted
		}
		return fmt.Errorf("failed to save vote: %w", err)
	}
	return nil
}
