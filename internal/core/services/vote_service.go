package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
	"github.com/vncsmyrnk/livepoll/internal/platform/keylock"
	"github.com/vncsmyrnk/livepoll/internal/platform/metrics"
)

// voteService is the admission controller: it decides whether a vote is
// accepted and, if so, appends it and notifies the poll's room.
type voteService struct {
	pollRepo ports.PollRepository
	voteRepo ports.VoteRepository
	notifier ports.Notifier
	locks    *keylock.Locker
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

func NewVoteService(
	pollRepo ports.PollRepository,
	voteRepo ports.VoteRepository,
	notifier ports.Notifier,
	m *metrics.Metrics,
	logger *slog.Logger,
) ports.VoteService {
	return &voteService{
		pollRepo: pollRepo,
		voteRepo: voteRepo,
		notifier: notifier,
		locks:    keylock.New(),
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Vote checks option validity strictly before the duplicate and quota
// checks. The count and the insert run under locks on both identity
// components so a voter matched by either one is serialized.
func (s *voteService) Vote(ctx context.Context, input ports.VoteInput) error {
	if input.OptionID == "" {
		return s.reject(domain.ErrMissingOption)
	}

	poll, err := s.pollRepo.GetByID(ctx, input.PollID)
	if err != nil {
		if errors.Is(err, domain.ErrPollNotFound) {
			return s.reject(err)
		}
		return s.storeFailure("load poll", input.PollID, err)
	}

	question, ok := poll.Question(input.QuestionID)
	if !ok {
		return s.reject(domain.ErrQuestionNotFound)
	}
	if !question.HasOption(input.OptionID) {
		return s.reject(domain.ErrInvalidOption)
	}

	unlock := s.locks.Lock(
		voterLockKey(poll.ID, question.ID, "token", input.Identity.Token),
		voterLockKey(poll.ID, question.ID, "fingerprint", input.Identity.Fingerprint),
	)
	vote, err := s.admit(ctx, poll, question.ID, input)
	unlock()
	if err != nil {
		return err
	}

	s.metrics.IncrementVotesAdmitted()
	s.logger.Info("vote admitted", "poll_id", poll.ID, "question_id", question.ID, "vote_id", vote.ID)
	s.notifier.Notify(poll.ID)

	return nil
}

func (s *voteService) admit(ctx context.Context, poll *domain.Poll, questionID string, input ports.VoteInput) (*domain.Vote, error) {
	count, err := s.voteRepo.CountVotes(ctx, poll.ID, questionID, input.Identity)
	if err != nil {
		return nil, s.storeFailure("count votes", poll.ID, err)
	}

	if !poll.Policy.AllowMultipleVotes && count >= 1 {
		return nil, s.reject(domain.ErrAlreadyVoted)
	}
	if poll.Policy.AllowMultipleVotes && count >= poll.Policy.Quota() {
		return nil, s.reject(domain.ErrQuotaExceeded)
	}

	vote := &domain.Vote{
		PollID:           poll.ID,
		QuestionID:       questionID,
		OptionID:         input.OptionID,
		VoterToken:       input.Identity.Token,
		VoterFingerprint: input.Identity.Fingerprint,
		CreatedAt:        s.now(),
	}

	if err := s.voteRepo.SaveVote(ctx, vote, !poll.Policy.AllowMultipleVotes); err != nil {
		if errors.Is(err, domain.ErrAlreadyVoted) {
			return nil, s.reject(err)
		}
		return nil, s.storeFailure("save vote", poll.ID, err)
	}

	return vote, nil
}

func (s *voteService) reject(err error) error {
	s.metrics.IncrementVotesRejected(rejectReason(err))
	return err
}

func (s *voteService) storeFailure(op, pollID string, err error) error {
	s.logger.Error("vote store failure", "op", op, "poll_id", pollID, "error", err)
	s.metrics.IncrementVotesRejected(rejectReason(domain.ErrStoreFailure))
	return fmt.Errorf("%w: %s: %w", domain.ErrStoreFailure, op, err)
}

func voterLockKey(pollID, questionID, kind, value string) string {
	return pollID + "|" + questionID + "|" + kind + "|" + value
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingOption):
		return "missing_option"
	case errors.Is(err, domain.ErrPollNotFound):
		return "poll_not_found"
	case errors.Is(err, domain.ErrQuestionNotFound):
		return "question_not_found"
	case errors.Is(err, domain.ErrInvalidOption):
		return "invalid_option"
	case errors.Is(err, domain.ErrAlreadyVoted):
		return "already_voted"
	case errors.Is(err, domain.ErrQuotaExceeded):
		return "quota_exceeded"
	default:
		return "store_failure"
	}
}
