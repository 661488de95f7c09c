package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"exodus-quiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionBank stores questions as JSONB and serves random draws from them.
type QuestionBank struct {
	pool *pgxpool.Pool
}

func NewQuestionBank(pool *pgxpool.Pool) *QuestionBank {
	return &QuestionBank{pool: pool}
}

type storedQuestion struct {
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
	Reference          string   `json:"reference"`
	Explanation        string   `json:"explanation"`
}

// Generate draws req.Count random questions of the difficulty, skipping excluded texts.
func (b *QuestionBank) Generate(ctx context.Context, req domain.GenerationRequest) ([]domain.Question, error) {
	exclude := req.ExcludeTexts
	if exclude == nil {
		exclude = []string{}
	}
	rows, err := b.pool.Query(ctx,
		`SELECT data FROM questions WHERE difficulty=$1 AND NOT (text = ANY($2)) ORDER BY random() LIMIT $3`,
		string(req.Difficulty), exclude, req.Count)
	if err != nil {
		return nil, domain.GenerationFailed(fmt.Errorf("query questions: %w", err))
	}
	defer rows.Close()

	questions := make([]domain.Question, 0, req.Count)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, domain.GenerationFailed(fmt.Errorf("scan question: %w", err))
		}
		var sq storedQuestion
		if err := json.Unmarshal(raw, &sq); err != nil {
			return nil, domain.GenerationFailed(fmt.Errorf("unmarshal question: %w", err))
		}
		// Each draw is a new question instance within a session.
		questions = append(questions, domain.Question{
			ID:                 uuid.NewString(),
			Text:               sq.Text,
			Options:            sq.Options,
			CorrectAnswerIndex: sq.CorrectAnswerIndex,
			Reference:          sq.Reference,
			Explanation:        sq.Explanation,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, domain.GenerationFailed(fmt.Errorf("read questions: %w", err))
	}
	if len(questions) < req.Count {
		return nil, domain.GenerationFailed(fmt.Errorf("bank has %d unseen %s questions, need %d", len(questions), req.Difficulty, req.Count))
	}
	return questions, nil
}

// Store upserts questions by text and returns how many were new.
func (b *QuestionBank) Store(ctx context.Context, difficulty domain.Difficulty, questions []domain.Question) (int, error) {
	batch := &pgx.Batch{}
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			return 0, err
		}
		data, err := json.Marshal(storedQuestion{
			Text:               q.Text,
			Options:            q.Options,
			CorrectAnswerIndex: q.CorrectAnswerIndex,
			Reference:          q.Reference,
			Explanation:        q.Explanation,
		})
		if err != nil {
			return 0, fmt.Errorf("marshal question: %w", err)
		}
		id := q.ID
		if id == "" {
			id = uuid.NewString()
		}
		batch.Queue(`INSERT INTO questions (id, difficulty, text, data) VALUES ($1, $2, $3, $4::jsonb) ON CONFLICT (text) DO NOTHING`,
			id, string(difficulty), q.Text, string(data))
	}

	results := b.pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range questions {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("insert question: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// Count returns how many questions of a difficulty are stored.
func (b *QuestionBank) Count(ctx context.Context, difficulty domain.Difficulty) (int, error) {
	var n int
	err := b.pool.QueryRow(ctx, `SELECT count(*) FROM questions WHERE difficulty=$1`, string(difficulty)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}
