package ports

import (
	"context"

	"github.com/vncsmyrnk/livepoll/internal/core/domain"
)

type TallyRepository interface {
	ListOptionsWithCounts(ctx context.Context, pollID string) ([]domain.TallyEntry, error)
}

type TallyService interface {
	Tally(ctx context.Context, pollID string) ([]domain.TallyEntry, error)
}
