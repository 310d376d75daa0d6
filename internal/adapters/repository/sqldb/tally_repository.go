package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

type tallyRepository struct {
	db *sql.DB
}

func NewTallyRepository(db *sql.DB) ports.TallyRepository {
	return &tallyRepository{
		db: db,
	}
}

// ListOptionsWithCounts counts votes per option of the poll. A vote only
// counts against an option when it also names the option's question.
func (r *tallyRepository) ListOptionsWithCounts(ctx context.Context, pollID string) ([]domain.TallyEntry, error) {
	query := `
		SELECT COALESCE(o.question_id, $2), o.id, o.text, COUNT(v.id)
		FROM options o
		LEFT JOIN votes v
			ON v.option_id = o.id
			AND v.poll_id = o.poll_id
			AND v.question_id = COALESCE(o.question_id, $2)
		WHERE o.poll_id = $1
		GROUP BY o.id, o.question_id, o.text
		ORDER BY o.id
	`
	rows, err := r.db.QueryContext(ctx, query, pollID, domain.SingleQuestionID)
	if err != nil {
		return nil, fmt.Errorf("failed to tally votes for poll %s: %w", pollID, err)
	}
	defer rows.Close()

	entries := []domain.TallyEntry{}
	for rows.Next() {
		var e domain.TallyEntry
		if err := rows.Scan(&e.QuestionID, &e.OptionID, &e.Text, &e.Count); err != nil {
			return nil, fmt.Errorf("failed to scan tally: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tally: %w", err)
	}

	// Database collations may not order ids bytewise.
	slices.SortFunc(entries, func(a, b domain.TallyEntry) int {
		return strings.Compare(a.OptionID, b.OptionID)
	})

	return entries, nil
}
