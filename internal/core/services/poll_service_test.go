package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

func TestCreatePoll_Legacy(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	created, err := env.polls.Create(ctx, ports.CreatePollInput{
		Question: "  Best color?  ",
		Options:  []string{"Red", " ", "Blue"},
		Policy:   domain.VotingPolicy{AllowMultipleVotes: true, MaxVotesPerQuestion: 4},
	})
	require.NoError(t, err)

	poll, err := env.polls.GetPoll(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Best color?", poll.Title)
	assert.False(t, poll.Policy.AllowMultipleVotes)
	assert.Equal(t, 1, poll.Policy.MaxVotesPerQuestion)
	require.Len(t, poll.Questions, 1)
	assert.Equal(t, domain.SingleQuestionID, poll.Questions[0].ID)
	assert.Len(t, poll.Questions[0].Options, 2)
}

func TestCreatePoll_MultiQuestion(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	created, err := env.polls.Create(ctx, ports.CreatePollInput{
		Questions: []ports.CreateQuestionInput{
			{Text: "", Options: []string{"a", "b"}},
			{Text: "Only one option", Options: []string{"a", ""}},
			{Text: "Lunch?", Options: []string{"Pizza", "Salad"}},
			{Text: "Drink?", Options: []string{"Water", "Juice", "Tea"}},
		},
		Policy: domain.VotingPolicy{AllowMultipleVotes: true, MaxVotesPerQuestion: 0},
	})
	require.NoError(t, err)

	poll, err := env.polls.GetPoll(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lunch?", poll.Title)
	assert.True(t, poll.Policy.AllowMultipleVotes)
	assert.Equal(t, 1, poll.Policy.MaxVotesPerQuestion)
	require.Len(t, poll.Questions, 2)
	assert.Equal(t, "Lunch?", poll.Questions[0].Text)
	assert.Equal(t, "Drink?", poll.Questions[1].Text)
	assert.Len(t, poll.Questions[1].Options, 3)
}

func TestCreatePoll_Invalid(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	tests := []struct {
		name  string
		input ports.CreatePollInput
	}{
		{name: "empty"},
		{name: "legacy without question", input: ports.CreatePollInput{Options: []string{"a", "b"}}},
		{name: "legacy with one option", input: ports.CreatePollInput{Question: "q", Options: []string{"a"}}},
		{name: "no usable question", input: ports.CreatePollInput{Questions: []ports.CreateQuestionInput{
			{Text: "q", Options: []string{"a"}},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.polls.Create(ctx, tt.input)
			assert.ErrorIs(t, err, domain.ErrInvalidPoll)
		})
	}
}

func TestCreatePoll_Truncates(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	poll, err := env.polls.Create(ctx, ports.CreatePollInput{
		Question: strings.Repeat("é", 400),
		Options:  []string{strings.Repeat("x", 250), "short"},
	})
	require.NoError(t, err)

	assert.Equal(t, maxQuestionLen, utf8.RuneCountInString(poll.Title))
	assert.Equal(t, maxOptionLen, utf8.RuneCountInString(poll.Questions[0].Options[0].Text))
}

func TestCreatePoll_StoreFailure(t *testing.T) {
	repo := new(mockPollRepository)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Poll")).Return(errors.New("disk full"))

	_, err := NewPollService(repo).Create(context.Background(), ports.CreatePollInput{
		Question: "q",
		Options:  []string{"a", "b"},
	})
	assert.ErrorIs(t, err, domain.ErrStoreFailure)
}

func TestGetPoll_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.polls.GetPoll(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrPollNotFound)
	assert.NotErrorIs(t, err, domain.ErrStoreFailure)
}
