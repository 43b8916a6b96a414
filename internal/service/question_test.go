package service

import (
	"context"
	"errors"
	"testing"

	"github.com/cloo-solutions/askhr/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAnswerOrchestrator is a mock implementation of AnswerOrchestrator
type MockAnswerOrchestrator struct {
	mock.Mock
}

func (m *MockAnswerOrchestrator) Run(ctx context.Context, question string) (*domain.Answer, *RunStats, error) {
	args := m.Called(ctx, question)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Answer), args.Get(1).(*RunStats), args.Error(2)
}

// MockQuestionLogStore is a mock implementation of QuestionLogStore
type MockQuestionLogStore struct {
	mock.Mock
}

func (m *MockQuestionLogStore) CreateQuestionLog(ctx context.Context, entry QuestionLogEntry) (string, error) {
	args := m.Called(ctx, entry)
	return args.String(0), args.Error(1)
}

func TestQuestionService_AnswerQuestion_Success(t *testing.T) {
	answer := &domain.Answer{Text: "25 days.", Confidence: 0.9, Citations: []string{"doc-1:0001"}}
	stats := &RunStats{Rounds: 2, EvidenceCount: 4, FinalState: StateFinalAnswer}

	orchestrator := new(MockAnswerOrchestrator)
	orchestrator.On("Run", mock.Anything, "How many vacation days?").Return(answer, stats, nil)

	logs := new(MockQuestionLogStore)
	logs.On("CreateQuestionLog", mock.Anything, mock.MatchedBy(func(e QuestionLogEntry) bool {
		return e.Question == "How many vacation days?" &&
			e.Answer == "25 days." &&
			e.Rounds == 2 &&
			e.EvidenceCount == 4
	})).Return("log-1", nil)

	svc := NewQuestionService(orchestrator, logs)
	got, err := svc.AnswerQuestion(context.Background(), "How many vacation days?")

	require.NoError(t, err)
	assert.Equal(t, answer, got)
	logs.AssertExpectations(t)
}

func TestQuestionService_AnswerQuestion_TrimsWhitespace(t *testing.T) {
	orchestrator := new(MockAnswerOrchestrator)
	orchestrator.On("Run", mock.Anything, "Sick leave?").Return(
		&domain.Answer{Text: "ok", Confidence: 0.5}, &RunStats{}, nil)

	svc := NewQuestionService(orchestrator, nil)
	_, err := svc.AnswerQuestion(context.Background(), "  Sick leave?  \n")

	require.NoError(t, err)
	orchestrator.AssertCalled(t, "Run", mock.Anything, "Sick leave?")
}

func TestQuestionService_AnswerQuestion_EmptyQuestion(t *testing.T) {
	orchestrator := new(MockAnswerOrchestrator)

	svc := NewQuestionService(orchestrator, nil)
	_, err := svc.AnswerQuestion(context.Background(), "   ")

	assert.ErrorIs(t, err, domain.ErrEmptyQuestion)
	orchestrator.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestQuestionService_AnswerQuestion_OrchestratorError(t *testing.T) {
	orchestrator := new(MockAnswerOrchestrator)
	orchestrator.On("Run", mock.Anything, mock.Anything).Return(nil, nil, errors.New("agent down"))

	logs := new(MockQuestionLogStore)

	svc := NewQuestionService(orchestrator, logs)
	_, err := svc.AnswerQuestion(context.Background(), "Anything?")

	require.Error(t, err)
	logs.AssertNotCalled(t, "CreateQuestionLog", mock.Anything, mock.Anything)
}

func TestQuestionService_AnswerQuestion_LogFailureIsSwallowed(t *testing.T) {
	orchestrator := new(MockAnswerOrchestrator)
	orchestrator.On("Run", mock.Anything, mock.Anything).Return(
		&domain.Answer{Text: "ok", Confidence: 0.5}, &RunStats{}, nil)

	logs := new(MockQuestionLogStore)
	logs.On("CreateQuestionLog", mock.Anything, mock.Anything).Return("", errors.New("database error"))

	svc := NewQuestionService(orchestrator, logs)
	answer, err := svc.AnswerQuestion(context.Background(), "Anything?")

	require.NoError(t, err, "logging is best effort")
	assert.Equal(t, "ok", answer.Text)
}

func TestQuestionService_AnswerQuestion_NilLogStore(t *testing.T) {
	orchestrator := new(MockAnswerOrchestrator)
	orchestrator.On("Run", mock.Anything, mock.Anything).Return(
		&domain.Answer{Text: "ok", Confidence: 0.5}, &RunStats{}, nil)

	svc := NewQuestionService(orchestrator, nil)
	_, err := svc.AnswerQuestion(context.Background(), "Anything?")

	require.NoError(t, err)
}
