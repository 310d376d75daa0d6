package domain

// TallyEntry is the number of admitted votes for one option of a poll.
type TallyEntry struct {
	QuestionID string `json:"question_id"`
	OptionID   string `json:"option_id"`
	Text       string `json:"text"`
	Count      int64  `json:"count"`
}
