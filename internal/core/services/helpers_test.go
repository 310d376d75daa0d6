package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/livepoll/internal/adapters/repository/sqldb"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
	"github.com/vncsmyrnk/livepoll/internal/platform/metrics"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	db, err := sqldb.Open(ctx, sqldb.SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, sqldb.Migrate(ctx, db, sqldb.SQLite))
	return db
}

// countingNotifier records every notification it receives.
type countingNotifier struct {
	mu    sync.Mutex
	calls map[string]int
}

func newCountingNotifier() *countingNotifier {
	return &countingNotifier{calls: make(map[string]int)}
}

func (n *countingNotifier) Notify(pollID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls[pollID]++
}

func (n *countingNotifier) Count(pollID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[pollID]
}

type testEnv struct {
	pollRepo ports.PollRepository
	polls    ports.PollService
	votes    ports.VoteService
	tally    ports.TallyService
	notifier *countingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupDB(t)

	pollRepo := sqldb.NewPollRepository(db)
	notifier := newCountingNotifier()

	return &testEnv{
		pollRepo: pollRepo,
		polls:    NewPollService(pollRepo),
		votes:    NewVoteService(pollRepo, sqldb.NewVoteRepository(db), notifier, metrics.New(nil), discardLogger()),
		tally:    NewTallyService(pollRepo, sqldb.NewTallyRepository(db)),
		notifier: notifier,
	}
}

func (e *testEnv) createLegacy(t *testing.T) *domain.Poll {
	t.Helper()
	poll, err := e.polls.Create(context.Background(), ports.CreatePollInput{
		Question: "Best color?",
		Options:  []string{"Red", "Blue", "Green"},
	})
	require.NoError(t, err)
	return poll
}

func (e *testEnv) createMulti(t *testing.T, allowMultiple bool, max int) *domain.Poll {
	t.Helper()
	poll, err := e.polls.Create(context.Background(), ports.CreatePollInput{
		Questions: []ports.CreateQuestionInput{
			{Text: "Lunch?", Options: []string{"Pizza", "Salad", "Soup"}},
			{Text: "Drink?", Options: []string{"Water", "Juice"}},
		},
		Policy: domain.VotingPolicy{AllowMultipleVotes: allowMultiple, MaxVotesPerQuestion: max},
	})
	require.NoError(t, err)
	return poll
}

func countFor(entries []domain.TallyEntry, optionID string) int64 {
	for _, e := range entries {
		if e.OptionID == optionID {
			return e.Count
		}
	}
	return -1
}

type mockPollRepository struct {
	mock.Mock
}

func (m *mockPollRepository) Save(ctx context.Context, poll *domain.Poll) error {
	args := m.Called(ctx, poll)
	return args.Error(0)
}

func (m *mockPollRepository) GetByID(ctx context.Context, id string) (*domain.Poll, error) {
	args := m.Called(ctx, id)
	poll, _ := args.Get(0).(*domain.Poll)
	return poll, args.Error(1)
}

func (m *mockPollRepository) GetQuestions(ctx context.Context, pollID string) ([]domain.Question, error) {
	args := m.Called(ctx, pollID)
	questions, _ := args.Get(0).([]domain.Question)
	return questions, args.Error(1)
}

func (m *mockPollRepository) GetOptions(ctx context.Context, pollID, questionID string) ([]domain.Option, error) {
	args := m.Called(ctx, pollID, questionID)
	options, _ := args.Get(0).([]domain.Option)
	return options, args.Error(1)
}

type mockVoteRepository struct {
	mock.Mock
}

func (m *mockVoteRepository) CountVotes(ctx context.Context, pollID, questionID string, identity domain.Identity) (int, error) {
	args := m.Called(ctx, pollID, questionID, identity)
	return args.Int(0), args.Error(1)
}

func (m *mockVoteRepository) SaveVote(ctx context.Context, vote *domain.Vote, exclusive bool) error {
	args := m.Called(ctx, vote, exclusive)
	return args.Error(0)
}

type mockTallyRepository struct {
	mock.Mock
}

func (m *mockTallyRepository) ListOptionsWithCounts(ctx context.Context, pollID string) ([]domain.TallyEntry, error) {
	args := m.Called(ctx, pollID)
	entries, _ := args.Get(0).([]domain.TallyEntry)
	return entries, args.Error(1)
}
