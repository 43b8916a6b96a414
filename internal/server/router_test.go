package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cloo-solutions/askhr/internal/api/handlers"
	"github.com/cloo-solutions/askhr/internal/domain"
	"github.com/cloo-solutions/askhr/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockQuestionService struct {
	mock.Mock
}

func (m *MockQuestionService) AnswerQuestion(ctx context.Context, question string) (*domain.Answer, error) {
	args := m.Called(ctx, question)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Answer), args.Error(1)
}

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Ingest(ctx context.Context, input service.IngestInput) (*domain.Document, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentService) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentService) ListDocuments(ctx context.Context, input service.ListDocumentsInput) (*service.ListDocumentsOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListDocumentsOutput), args.Error(1)
}

func setupRouter() (http.Handler, *MockQuestionService, *MockDocumentService) {
	questionSvc := new(MockQuestionService)
	documentSvc := new(MockDocumentService)

	router := NewRouter(RouterConfig{
		AskHandler:      handlers.NewAskHandler(questionSvc),
		DocumentHandler: handlers.NewDocumentHandler(documentSvc),
	})
	return router, questionSvc, documentSvc
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
}

func TestRouter_AskRoute(t *testing.T) {
	router, questionSvc, _ := setupRouter()
	questionSvc.On("AnswerQuestion", mock.Anything, "How many vacation days?").Return(&domain.Answer{
		Text:       "25 days.",
		Confidence: 0.9,
		Citations:  []string{"doc-1:0001"},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"question": "How many vacation days?"}`))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "25 days.")
	questionSvc.AssertExpectations(t)
}

func TestRouter_DocumentRoutes(t *testing.T) {
	router, _, documentSvc := setupRouter()

	doc := &domain.Document{
		ID:        "doc-1",
		Title:     "Policy",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	documentSvc.On("Ingest", mock.Anything, mock.Anything).Return(doc, nil)
	documentSvc.On("GetByID", mock.Anything, "doc-1").Return(doc, nil)
	documentSvc.On("ListDocuments", mock.Anything, mock.Anything).Return(&service.ListDocumentsOutput{
		Items: []*domain.Document{doc},
	}, nil)

	post := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader(`{"title": "Policy", "body": "text"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, post)
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/documents/doc-1", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/documents", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_UnknownRoute(t *testing.T) {
	router, _, _ := setupRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_RequestIDPropagated(t *testing.T) {
	router, questionSvc, _ := setupRouter()
	questionSvc.On("AnswerQuestion", mock.Anything, mock.Anything).Return(&domain.Answer{Text: "ok"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"question": "hi"}`))
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}
