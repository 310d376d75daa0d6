package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

type pollRepository struct {
	db *sql.DB
}

func NewPollRepository(db *sql.DB) ports.PollRepository {
	return &pollRepository{
		db: db,
	}
}

// Save writes the poll with all of its questions and options in one
// transaction. A question with the SingleQuestionID is stored in the legacy
// shape: no question row, options attached directly to the poll.
func (r *pollRepository) Save(ctx context.Context, poll *domain.Poll) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	queryPoll := `
		INSERT INTO polls (id, title, allow_multiple_votes, max_votes_per_question, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = tx.ExecContext(ctx, queryPoll,
		poll.ID, poll.Title, poll.Policy.AllowMultipleVotes, poll.Policy.Quota(), poll.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert poll: %w", err)
	}

	queryQuestion := `
		INSERT INTO questions (id, poll_id, text, position)
		VALUES ($1, $2, $3, $4)
	`
	queryOption := `
		INSERT INTO options (id, poll_id, question_id, text)
		VALUES ($1, $2, $3, $4)
	`
	optStmt, err := tx.PrepareContext(ctx, queryOption)
	if err != nil {
		return fmt.Errorf("failed to prepare option statement: %w", err)
	}
	defer optStmt.Close()

	for pos, q := range poll.Questions {
		var questionID sql.NullString
		if q.ID != domain.SingleQuestionID {
			if _, err := tx.ExecContext(ctx, queryQuestion, q.ID, poll.ID, q.Text, pos); err != nil {
				return fmt.Errorf("failed to insert question: %w", err)
			}
			questionID = sql.NullString{String: q.ID, Valid: true}
		}

		for _, opt := range q.Options {
			if _, err := optStmt.ExecContext(ctx, opt.ID, poll.ID, questionID, opt.Text); err != nil {
				return fmt.Errorf("failed to insert option: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *pollRepository) GetByID(ctx context.Context, id string) (*domain.Poll, error) {
	poll, err := r.fetchPoll(ctx, id)
	if err != nil {
		return nil, err
	}

	questions, err := r.fetchQuestions(ctx, poll)
	if err != nil {
		return nil, err
	}

	for i := range questions {
		options, err := r.GetOptions(ctx, poll.ID, questions[i].ID)
		if err != nil {
			return nil, err
		}
		questions[i].Options = options
	}
	poll.Questions = questions

	return poll, nil
}

func (r *pollRepository) GetQuestions(ctx context.Context, pollID string) ([]domain.Question, error) {
	poll, err := r.fetchPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	return r.fetchQuestions(ctx, poll)
}

func (r *pollRepository) GetOptions(ctx context.Context, pollID, questionID string) ([]domain.Option, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if questionID == domain.SingleQuestionID {
		rows, err = r.db.QueryContext(ctx, `
			SELECT id, text
			FROM options
			WHERE poll_id = $1 AND question_id IS NULL
			ORDER BY id
		`, pollID)
	} else {
		rows, err = r.db.QueryContext(ctx, `
			SELECT id, text
			FROM options
			WHERE poll_id = $1 AND question_id = $2
			ORDER BY id
		`, pollID, questionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get options: %w", err)
	}
	defer rows.Close()

	var options []domain.Option
	for rows.Next() {
		opt := domain.Option{PollID: pollID, QuestionID: questionID}
		if err := rows.Scan(&opt.ID, &opt.Text); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		options = append(options, opt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating options: %w", err)
	}
	return options, nil
}

func (r *pollRepository) fetchPoll(ctx context.Context, id string) (*domain.Poll, error) {
	query := `
		SELECT id, title, allow_multiple_votes, max_votes_per_question, created_at
		FROM polls
		WHERE id = $1
	`

	var (
		poll      domain.Poll
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&poll.ID, &poll.Title, &poll.Policy.AllowMultipleVotes, &poll.Policy.MaxVotesPerQuestion, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPollNotFound
		}
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}
	poll.CreatedAt = time.UnixMilli(createdAt).UTC()

	return &poll, nil
}

// fetchQuestions loads the explicit questions of the poll, falling back to
// the implicit single question when it has none.
func (r *pollRepository) fetchQuestions(ctx context.Context, poll *domain.Poll) ([]domain.Question, error) {
	query := `
		SELECT id, text
		FROM questions
		WHERE poll_id = $1
		ORDER BY position, id
	`
	rows, err := r.db.QueryContext(ctx, query, poll.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		q := domain.Question{PollID: poll.ID}
		if err := rows.Scan(&q.ID, &q.Text); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating questions: %w", err)
	}

	if len(questions) == 0 {
		questions = []domain.Question{{ID: domain.SingleQuestionID, PollID: poll.ID, Text: poll.Title}}
	}
	return questions, nil
}
