package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cloo-solutions/askhr/internal/domain"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// ChunkStore defines the vector store interface used during indexing.
// UpsertChunks must be idempotent: re-indexing a chunk ID overwrites its
// prior vector and metadata.
type ChunkStore interface {
	UpsertChunks(ctx context.Context, chunks []domain.Chunk) error
	DeleteChunksFrom(ctx context.Context, documentID string, fromIndex int) error
}

// IndexerConfig controls batching, parallelism and retry behavior.
type IndexerConfig struct {
	BatchSize      int
	Workers        int
	MaxAttempts    int
	RetryBaseDelay time.Duration
}

// DefaultIndexerConfig provides sane defaults for indexing.
func DefaultIndexerConfig() IndexerConfig {
	return IndexerConfig{
		BatchSize:      16,
		Workers:        4,
		MaxAttempts:    3,
		RetryBaseDelay: 500 * time.Millisecond,
	}
}

// BatchFailure records one batch that could not be indexed after all retries.
type BatchFailure struct {
	FirstIndex int
	LastIndex  int
	Err        string
}

// IndexReport summarizes one document's indexing run. Ingestion is not
// atomic: failed batches are reported while the rest of the document lands.
type IndexReport struct {
	DocumentID string
	ChunkCount int
	Indexed    int
	Failures   []BatchFailure
}

// Indexer embeds document chunks and upserts them into the vector store.
type Indexer struct {
	chunker   *Chunker
	embedding EmbeddingClient
	store     ChunkStore
	cfg       IndexerConfig
}

func NewIndexer(chunker *Chunker, embedding EmbeddingClient, store ChunkStore, cfg IndexerConfig) *Indexer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultIndexerConfig().BatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultIndexerConfig().MaxAttempts
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = DefaultIndexerConfig().RetryBaseDelay
	}
	return &Indexer{chunker: chunker, embedding: embedding, store: store, cfg: cfg}
}

// IndexDocument chunks the document, embeds each batch and upserts the
// results. Batches run on a bounded worker pool; a batch that exhausts its
// retries is recorded in the report and the remaining batches continue.
// Stale chunks from a previously longer version of the document are removed.
func (ix *Indexer) IndexDocument(ctx context.Context, doc *domain.Document) (*IndexReport, error) {
	if err := domain.ValidateDocument(doc); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "cannot index document", err)
	}

	chunks := ix.chunker.ChunkAll(doc)
	report := &IndexReport{DocumentID: doc.ID, ChunkCount: len(chunks)}

	batches := make(chan []domain.Chunk)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for w := 0; w < ix.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range batches {
				if err := ix.indexBatch(ctx, batch); err != nil {
					mu.Lock()
					report.Failures = append(report.Failures, BatchFailure{
						FirstIndex: batch[0].Index,
						LastIndex:  batch[len(batch)-1].Index,
						Err:        err.Error(),
					})
					mu.Unlock()
					log.Printf("indexer: batch %d-%d of document %s failed: %v",
						batch[0].Index, batch[len(batch)-1].Index, doc.ID, err)
					continue
				}
				mu.Lock()
				report.Indexed += len(batch)
				mu.Unlock()
			}
		}()
	}

	for start := 0; start < len(chunks); start += ix.cfg.BatchSize {
		end := start + ix.cfg.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batches <- chunks[start:end]
	}
	close(batches)
	wg.Wait()

	if err := ix.store.DeleteChunksFrom(ctx, doc.ID, len(chunks)); err != nil {
		return report, fmt.Errorf("failed to delete stale chunks: %w", err)
	}

	return report, nil
}

func (ix *Indexer) indexBatch(ctx context.Context, batch []domain.Chunk) error {
	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Content
	}

	var embeddings [][]float32
	err := withRetry(ctx, ix.cfg.MaxAttempts, ix.cfg.RetryBaseDelay, func() error {
		var embedErr error
		embeddings, embedErr = ix.embedding.GenerateEmbeddings(ctx, texts)
		return embedErr
	})
	if err != nil {
		return fmt.Errorf("failed to embed batch: %w", err)
	}
	if len(embeddings) != len(batch) {
		return fmt.Errorf("embedding provider returned %d vectors for %d chunks", len(embeddings), len(batch))
	}

	now := time.Now().UTC()
	for i := range batch {
		batch[i].Embedding = embeddings[i]
		batch[i].CreatedAt = now
		batch[i].UpdatedAt = now
	}

	err = withRetry(ctx, ix.cfg.MaxAttempts, ix.cfg.RetryBaseDelay, func() error {
		return ix.store.UpsertChunks(ctx, batch)
	})
	if err != nil {
		return fmt.Errorf("failed to upsert batch: %w", err)
	}
	return nil
}

// withRetry runs fn up to attempts times with exponential backoff, giving up
// early when the context is cancelled.
func withRetry(ctx context.Context, attempts int, baseDelay time.Duration, fn func() error) error {
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := baseDelay << (attempt - 1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}
