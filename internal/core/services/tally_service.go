package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

type tallyService struct {
	pollRepo  ports.PollRepository
	tallyRepo ports.TallyRepository
}

func NewTallyService(pollRepo ports.PollRepository, tallyRepo ports.TallyRepository) ports.TallyService {
	return &tallyService{
		pollRepo:  pollRepo,
		tallyRepo: tallyRepo,
	}
}

// Tally reads the current counts straight from the vote log; nothing is
// cached, so the result always reflects the store at call time.
func (s *tallyService) Tally(ctx context.Context, pollID string) ([]domain.TallyEntry, error) {
	entries, err := s.tallyRepo.ListOptionsWithCounts(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreFailure, err)
	}
	if len(entries) > 0 {
		return entries, nil
	}

	// A poll always has options, so an empty tally usually means no poll.
	if _, err := s.pollRepo.GetQuestions(ctx, pollID); err != nil {
		if errors.Is(err, domain.ErrPollNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreFailure, err)
	}
	return entries, nil
}
