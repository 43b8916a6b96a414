package service

import (
	"context"
	"errors"
	"testing"

	"github.com/cloo-solutions/askhr/internal/domain"
	"github.com/cloo-solutions/askhr/internal/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDocumentRepository is a mock implementation of DocumentRepositoryInterface
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Upsert(ctx context.Context, d *domain.Document) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentRepository) ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*DocumentPageResult, error) {
	args := m.Called(ctx, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DocumentPageResult), args.Error(1)
}

// MockIngestJobCreator is a mock implementation of IngestJobRepositoryInterface
type MockIngestJobCreator struct {
	mock.Mock
}

func (m *MockIngestJobCreator) Create(ctx context.Context, job *domain.IngestJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// stubUUIDGenerator returns canned IDs in order
type stubUUIDGenerator struct {
	ids  []string
	next int
}

func (g *stubUUIDGenerator) NewString() string {
	id := g.ids[g.next]
	g.next++
	return id
}

func TestDocumentService_Ingest_Success(t *testing.T) {
	docRepo := new(MockDocumentRepository)
	docRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(d *domain.Document) bool {
		return d.ID == "expenses-policy" && d.Title == "Expenses Policy"
	})).Return(nil)

	jobRepo := new(MockIngestJobCreator)
	jobRepo.On("Create", mock.Anything, mock.MatchedBy(func(j *domain.IngestJob) bool {
		return j.DocumentID == "expenses-policy" && j.Status == domain.IngestJobStatusPending
	})).Return(nil)

	svc := NewDocumentService(docRepo, jobRepo)
	doc, err := svc.Ingest(context.Background(), IngestInput{
		ID:    "expenses-policy",
		Title: "Expenses Policy",
		Body:  "Expenses must be filed within thirty days.",
	})

	require.NoError(t, err)
	assert.Equal(t, "expenses-policy", doc.ID)
	assert.False(t, doc.CreatedAt.IsZero())
	docRepo.AssertExpectations(t)
	jobRepo.AssertExpectations(t)
}

func TestDocumentService_Ingest_GeneratesIDWhenMissing(t *testing.T) {
	docRepo := new(MockDocumentRepository)
	docRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	jobRepo := new(MockIngestJobCreator)
	jobRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	gen := &stubUUIDGenerator{ids: []string{"generated-doc-id", "generated-job-id"}}
	svc := NewDocumentServiceWithUUIDGen(docRepo, jobRepo, gen)

	doc, err := svc.Ingest(context.Background(), IngestInput{Title: "Untitled Upload", Body: "text"})

	require.NoError(t, err)
	assert.Equal(t, "generated-doc-id", doc.ID)
	jobRepo.AssertCalled(t, "Create", mock.Anything, mock.MatchedBy(func(j *domain.IngestJob) bool {
		return j.ID == "generated-job-id" && j.DocumentID == "generated-doc-id"
	}))
}

func TestDocumentService_Ingest_MissingTitleIsValidationError(t *testing.T) {
	svc := NewDocumentService(new(MockDocumentRepository), new(MockIngestJobCreator))

	_, err := svc.Ingest(context.Background(), IngestInput{ID: "doc-1", Body: "text"})

	require.Error(t, err)
	var domainErr *domain.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, domain.ErrCodeValidation, domainErr.Code)
}

func TestDocumentService_Ingest_UnorderedPageMarkersRejected(t *testing.T) {
	svc := NewDocumentService(new(MockDocumentRepository), new(MockIngestJobCreator))

	_, err := svc.Ingest(context.Background(), IngestInput{
		ID:    "doc-1",
		Title: "Policy",
		Body:  "text",
		PageMarkers: []domain.PageMarker{
			{Page: 2, Offset: 50},
			{Page: 1, Offset: 0},
		},
	})

	require.Error(t, err)
	var domainErr *domain.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, domain.ErrCodeValidation, domainErr.Code)
}

func TestDocumentService_Ingest_UpsertFailureSurfaces(t *testing.T) {
	docRepo := new(MockDocumentRepository)
	docRepo.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("database error"))

	jobRepo := new(MockIngestJobCreator)

	svc := NewDocumentService(docRepo, jobRepo)
	_, err := svc.Ingest(context.Background(), IngestInput{ID: "doc-1", Title: "Policy", Body: "text"})

	require.Error(t, err)
	jobRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDocumentService_GetByID(t *testing.T) {
	docRepo := new(MockDocumentRepository)
	docRepo.On("GetByID", mock.Anything, "doc-1").Return(&domain.Document{ID: "doc-1", Title: "Policy"}, nil)

	svc := NewDocumentService(docRepo, new(MockIngestJobCreator))
	doc, err := svc.GetByID(context.Background(), "doc-1")

	require.NoError(t, err)
	assert.Equal(t, "doc-1", doc.ID)
}

func TestDocumentService_ListDocuments_DefaultLimit(t *testing.T) {
	docRepo := new(MockDocumentRepository)
	docRepo.On("ListWithCursor", mock.Anything, (*pagination.Cursor)(nil), 20).Return(&DocumentPageResult{
		Items:      []*domain.Document{{ID: "doc-1"}},
		NextCursor: "next",
		HasMore:    true,
	}, nil)

	svc := NewDocumentService(docRepo, new(MockIngestJobCreator))
	out, err := svc.ListDocuments(context.Background(), ListDocumentsInput{})

	require.NoError(t, err)
	assert.Len(t, out.Items, 1)
	assert.Equal(t, "next", out.Cursor)
	assert.True(t, out.HasMore)
	docRepo.AssertExpectations(t)
}

func TestDocumentService_ListDocuments_InvalidCursorIgnored(t *testing.T) {
	docRepo := new(MockDocumentRepository)
	docRepo.On("ListWithCursor", mock.Anything, (*pagination.Cursor)(nil), 10).Return(&DocumentPageResult{}, nil)

	svc := NewDocumentService(docRepo, new(MockIngestJobCreator))
	_, err := svc.ListDocuments(context.Background(), ListDocumentsInput{Cursor: "not-base64!!!", Limit: 10})

	require.NoError(t, err, "a bad cursor falls back to the first page")
	docRepo.AssertExpectations(t)
}
