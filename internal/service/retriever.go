package service

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/cloo-solutions/askhr/internal/domain"
)

// VectorSearcher defines the vector store query interface.
type VectorSearcher interface {
	QueryNearest(ctx context.Context, embedding []float32, topK int) ([]domain.EvidenceItem, error)
}

// RetrieverConfig controls retrieval behavior.
type RetrieverConfig struct {
	TopK           int
	ScoreThreshold float32
	// Dimensions is the embedding dimensionality the index was built with.
	// A query embedding of any other size is a configuration error.
	Dimensions     int
	EmbedTimeout   time.Duration
	StoreTimeout   time.Duration
	RetryBaseDelay time.Duration
}

// DefaultRetrieverConfig provides sane defaults for retrieval.
func DefaultRetrieverConfig() RetrieverConfig {
	return RetrieverConfig{
		TopK:           5,
		ScoreThreshold: 0.35,
		Dimensions:     1536,
		EmbedTimeout:   30 * time.Second,
		StoreTimeout:   10 * time.Second,
		RetryBaseDelay: 500 * time.Millisecond,
	}
}

// Retriever is the search tool: it embeds a query and returns the ranked,
// score-filtered evidence set from the vector store.
type Retriever struct {
	embedding EmbeddingClient
	store     VectorSearcher
	cfg       RetrieverConfig
}

func NewRetriever(embedding EmbeddingClient, store VectorSearcher, cfg RetrieverConfig) *Retriever {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultRetrieverConfig().TopK
	}
	if cfg.EmbedTimeout <= 0 {
		cfg.EmbedTimeout = DefaultRetrieverConfig().EmbedTimeout
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = DefaultRetrieverConfig().StoreTimeout
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = DefaultRetrieverConfig().RetryBaseDelay
	}
	return &Retriever{embedding: embedding, store: store, cfg: cfg}
}

// Retrieve embeds the query and returns evidence ordered by descending
// similarity, ties broken by smaller chunk ID. An empty result is a valid
// outcome and signals that no evidence was found.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]domain.EvidenceItem, error) {
	if strings.TrimSpace(query) == "" {
		return []domain.EvidenceItem{}, nil
	}

	embedCtx, cancel := context.WithTimeout(ctx, r.cfg.EmbedTimeout)
	defer cancel()
	embedding, err := r.embedding.GenerateEmbedding(embedCtx, query)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeProvider, "failed to embed query", err)
	}
	if r.cfg.Dimensions > 0 && len(embedding) != r.cfg.Dimensions {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeConfiguration,
			"query embedding dimensionality does not match the index", domain.ErrDimensionMismatch)
	}

	results, err := r.queryStore(ctx, embedding)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeProvider, "vector store query failed", err)
	}

	filtered := results[:0]
	for _, item := range results {
		if item.Score >= r.cfg.ScoreThreshold {
			filtered = append(filtered, item)
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].Score != filtered[j].Score {
			return filtered[i].Score > filtered[j].Score
		}
		return filtered[i].ChunkID < filtered[j].ChunkID
	})

	return filtered, nil
}

// queryStore runs the nearest-neighbor query, retrying once with backoff on
// a transient store failure.
func (r *Retriever) queryStore(ctx context.Context, embedding []float32) ([]domain.EvidenceItem, error) {
	queryCtx, cancel := context.WithTimeout(ctx, r.cfg.StoreTimeout)
	results, err := r.store.QueryNearest(queryCtx, embedding, r.cfg.TopK)
	cancel()
	if err == nil {
		return results, nil
	}

	log.Printf("retriever: store query failed, retrying once: %v", err)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(r.cfg.RetryBaseDelay):
	}

	queryCtx, cancel = context.WithTimeout(ctx, r.cfg.StoreTimeout)
	defer cancel()
	return r.store.QueryNearest(queryCtx, embedding, r.cfg.TopK)
}
