package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/cloo-solutions/askhr/internal/domain"
	"github.com/cloo-solutions/askhr/internal/telemetry"
)

// AnswerOrchestrator defines the loop interface consumed by QuestionService.
type AnswerOrchestrator interface {
	Run(ctx context.Context, question string) (*domain.Answer, *RunStats, error)
}

// QuestionLogEntry records one answered question for offline evaluation.
type QuestionLogEntry struct {
	Question      string
	Answer        string
	Confidence    float64
	Insufficient  bool
	Rounds        int
	EvidenceCount int
	Citations     []string
	DurationMs    int64
}

// QuestionLogStore defines the repository interface for question logging.
type QuestionLogStore interface {
	CreateQuestionLog(ctx context.Context, entry QuestionLogEntry) (string, error)
}

// QuestionService is the boundary surface of the answering pipeline: one
// synchronous operation that returns a validated Answer or a reported failure.
type QuestionService struct {
	orchestrator AnswerOrchestrator
	logs         QuestionLogStore
}

func NewQuestionService(orchestrator AnswerOrchestrator, logs QuestionLogStore) *QuestionService {
	return &QuestionService{orchestrator: orchestrator, logs: logs}
}

// AnswerQuestion runs the full retrieval-augmented loop for one question.
func (s *QuestionService) AnswerQuestion(ctx context.Context, question string) (*domain.Answer, error) {
	ctx, span := telemetry.StartSpan(ctx, "QuestionService.AnswerQuestion", telemetry.SpanAttributes{
		Operation: "ask",
	})
	defer span.End()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.ErrEmptyQuestion
	}

	start := time.Now()
	answer, stats, err := s.orchestrator.Run(ctx, question)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	if s.logs != nil {
		entry := QuestionLogEntry{
			Question:      question,
			Answer:        answer.Text,
			Confidence:    answer.Confidence,
			Insufficient:  answer.InsufficientEvidence,
			Rounds:        stats.Rounds,
			EvidenceCount: stats.EvidenceCount,
			Citations:     answer.Citations,
			DurationMs:    time.Since(start).Milliseconds(),
		}
		if _, logErr := s.logs.CreateQuestionLog(ctx, entry); logErr != nil {
			// Logging is best effort; never fail the question over it.
			log.Printf("question: failed to record question log: %v", logErr)
		}
	}

	return answer, nil
}
