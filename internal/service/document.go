package service

import (
	"context"
	"time"

	"github.com/cloo-solutions/askhr/internal/domain"
	"github.com/cloo-solutions/askhr/internal/pagination"
	"github.com/cloo-solutions/askhr/internal/telemetry"
	"github.com/google/uuid"
)

// DocumentRepositoryInterface defines the repository interface for document persistence
type DocumentRepositoryInterface interface {
	Upsert(ctx context.Context, d *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*DocumentPageResult, error)
}

type DocumentPageResult struct {
	Items      []*domain.Document
	NextCursor string
	HasMore    bool
}

// IngestJobRepositoryInterface defines the repository interface for ingest job persistence
type IngestJobRepositoryInterface interface {
	Create(ctx context.Context, job *domain.IngestJob) error
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// DocumentService handles business logic for ingested documents
type DocumentService struct {
	docRepo DocumentRepositoryInterface
	jobRepo IngestJobRepositoryInterface
	uuidGen UUIDGenerator
}

func NewDocumentService(docRepo DocumentRepositoryInterface, jobRepo IngestJobRepositoryInterface) *DocumentService {
	return &DocumentService{
		docRepo: docRepo,
		jobRepo: jobRepo,
		uuidGen: &DefaultUUIDGenerator{},
	}
}

// NewDocumentServiceWithUUIDGen creates a DocumentService with a custom UUID generator (for testing)
func NewDocumentServiceWithUUIDGen(docRepo DocumentRepositoryInterface, jobRepo IngestJobRepositoryInterface, uuidGen UUIDGenerator) *DocumentService {
	return &DocumentService{docRepo: docRepo, jobRepo: jobRepo, uuidGen: uuidGen}
}

// IngestInput represents the input for ingesting a document
type IngestInput struct {
	ID          string
	Title       string
	SourcePath  string
	Body        string
	PageMarkers []domain.PageMarker
}

type ListDocumentsInput struct {
	Cursor string
	Limit  int
}

type ListDocumentsOutput struct {
	Items   []*domain.Document
	Cursor  string
	HasMore bool
}

// Ingest stores (or replaces) a document and queues an ingest job for it.
// Re-ingesting an existing ID is idempotent: the document and its chunks are
// replaced, never duplicated.
func (s *DocumentService) Ingest(ctx context.Context, input IngestInput) (*domain.Document, error) {
	ctx, span := telemetry.StartSpan(ctx, "DocumentService.Ingest", telemetry.SpanAttributes{
		DocumentID: input.ID,
		Operation:  "ingest",
	})
	defer span.End()

	now := time.Now().UTC()
	id := input.ID
	if id == "" {
		id = s.uuidGen.NewString()
	}

	doc := &domain.Document{
		ID:          id,
		Title:       input.Title,
		SourcePath:  input.SourcePath,
		Body:        input.Body,
		PageMarkers: input.PageMarkers,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := domain.ValidateDocument(doc); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid document", err)
	}

	if err := s.docRepo.Upsert(ctx, doc); err != nil {
		return nil, err
	}

	job := &domain.IngestJob{
		ID:         s.uuidGen.NewString(),
		DocumentID: id,
		Status:     domain.IngestJobStatusPending,
		CreatedAt:  now,
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, err
	}

	return doc, nil
}

// GetByID retrieves a document by ID
func (s *DocumentService) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	return s.docRepo.GetByID(ctx, id)
}

func (s *DocumentService) ListDocuments(ctx context.Context, input ListDocumentsInput) (*ListDocumentsOutput, error) {
	cursor, _ := pagination.DecodeCursor(input.Cursor)
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	result, err := s.docRepo.ListWithCursor(ctx, cursor, limit)
	if err != nil {
		return nil, err
	}

	return &ListDocumentsOutput{
		Items:   result.Items,
		Cursor:  result.NextCursor,
		HasMore: result.HasMore,
	}, nil
}
