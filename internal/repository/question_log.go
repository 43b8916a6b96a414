package repository

import (
	"context"
	"encoding/json"

	"github.com/cloo-solutions/askhr/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionLogRepository stores answered questions for evaluation/feedback loops.
type QuestionLogRepository struct {
	pool *pgxpool.Pool
}

func NewQuestionLogRepository(pool *pgxpool.Pool) *QuestionLogRepository {
	return &QuestionLogRepository{pool: pool}
}

func (r *QuestionLogRepository) CreateQuestionLog(ctx context.Context, entry service.QuestionLogEntry) (string, error) {
	citations := entry.Citations
	if citations == nil {
		citations = []string{}
	}
	citationsJSON, _ := json.Marshal(citations)

	var id string
	err := r.pool.QueryRow(ctx,
		`INSERT INTO question_logs (question, answer, confidence, insufficient, rounds, evidence_count, citations, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		entry.Question,
		entry.Answer,
		entry.Confidence,
		entry.Insufficient,
		entry.Rounds,
		entry.EvidenceCount,
		citationsJSON,
		entry.DurationMs,
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}
