package domain

import (
	"time"
)

// SingleQuestionID identifies the implicit question of a poll created with
// the legacy single-question shape.
const SingleQuestionID = "single"

type Poll struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Policy    VotingPolicy `json:"settings"`
	Questions []Question   `json:"questions,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

type VotingPolicy struct {
	AllowMultipleVotes  bool `json:"allowMultipleVotes"`
	MaxVotesPerQuestion int  `json:"maxVotesPerQuestion"`
}

// Quota is the number of votes a single voter may cast on one question.
func (p VotingPolicy) Quota() int {
	if !p.AllowMultipleVotes {
		return 1
	}
	return max(1, p.MaxVotesPerQuestion)
}

type Question struct {
	ID      string   `json:"id"`
	PollID  string   `json:"-"`
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

type Option struct {
	ID         string `json:"id"`
	QuestionID string `json:"question_id"`
	PollID     string `json:"-"`
	Text       string `json:"text"`
}

// Question returns the question with the given id. An empty id selects the
// implicit legacy question.
func (p *Poll) Question(id string) (*Question, bool) {
	if id == "" {
		id = SingleQuestionID
	}
	for i := range p.Questions {
		if p.Questions[i].ID == id {
			return &p.Questions[i], true
		}
	}
	return nil, false
}

func (q *Question) HasOption(optionID string) bool {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}
