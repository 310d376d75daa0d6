package domain

import "errors"

var (
	ErrPollNotFound     = errors.New("poll not found")
	ErrQuestionNotFound = errors.New("question not found for this poll")
	ErrInvalidPoll      = errors.New("invalid poll payload")
	ErrMissingOption    = errors.New("missing option id")
	ErrInvalidOption    = errors.New("invalid option for this question")
	ErrAlreadyVoted     = errors.New("already voted for this question")
	ErrQuotaExceeded    = errors.New("vote limit reached for this question")
	ErrStoreFailure     = errors.New("store failure")
)
