package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-round-service/internal/domain"
)

// QuestionLoader loads generator output from Postgres. Each question_sets
// row holds one generator batch as a JSONB array of question records.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, data FROM question_sets WHERE NOT disabled ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("load question sets: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan question set: %w", err)
		}
		var batch []domain.Question
		if err := json.Unmarshal(raw, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal question set %s: %w", id, err)
		}
		questions = append(questions, batch...)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate question sets: %w", err)
	}
	return questions, nil
}
