package service

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/askhr/internal/domain"
)

// DocumentGetter defines the read interface the ingest path needs.
type DocumentGetter interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// IngestService runs the chunk-and-index pipeline for stored documents.
// It is called by the background worker one document at a time.
type IngestService struct {
	docs    DocumentGetter
	indexer *Indexer
}

func NewIngestService(docs DocumentGetter, indexer *Indexer) *IngestService {
	return &IngestService{docs: docs, indexer: indexer}
}

// IndexDocument loads the document and indexes all of its chunks. A run with
// failed batches returns an error so the job is retried; completed batches
// are safe to redo because upserts are idempotent.
func (s *IngestService) IndexDocument(ctx context.Context, documentID string) error {
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return err
	}

	report, err := s.indexer.IndexDocument(ctx, doc)
	if err != nil {
		return err
	}
	if len(report.Failures) > 0 {
		return fmt.Errorf("%d of %d chunks failed to index", report.ChunkCount-report.Indexed, report.ChunkCount)
	}
	return nil
}
