package domain

import (
	"time"
)

type Vote struct {
	ID               int64     `json:"id"`
	PollID           string    `json:"poll_id"`
	QuestionID       string    `json:"question_id"`
	OptionID         string    `json:"option_id"`
	VoterToken       string    `json:"-"`
	VoterFingerprint string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
}

// Identity is the pair of signals used to recognise a returning voter. Two
// identities are the same voter when either component matches.
type Identity struct {
	Token       string
	Fingerprint string
}
