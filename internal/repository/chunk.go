package repository

import (
	"context"
	"time"

	"github.com/cloo-solutions/askhr/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ChunkRepository persists embedded chunks and serves nearest-neighbor
// queries over them.
type ChunkRepository struct {
	db dbtx
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool}
}

func NewChunkRepositoryWithTx(tx dbtx) *ChunkRepository {
	return &ChunkRepository{db: tx}
}

// UpsertChunks inserts or replaces chunks by ID. Chunk IDs are deterministic
// per document and index, so re-indexing the same document overwrites rows
// instead of duplicating them.
func (r *ChunkRepository) UpsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	for _, c := range chunks {
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		updatedAt := c.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = createdAt
		}
		_, err := r.db.Exec(ctx,
			`INSERT INTO chunks
				(id, document_id, chunk_index, content, char_count, overlap, page, embedding, created_at, updated_at)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 ON CONFLICT (id) DO UPDATE
			 SET content = EXCLUDED.content,
			     char_count = EXCLUDED.char_count,
			     overlap = EXCLUDED.overlap,
			     page = EXCLUDED.page,
			     embedding = EXCLUDED.embedding,
			     updated_at = EXCLUDED.updated_at`,
			c.ID,
			c.DocumentID,
			c.Index,
			c.Content,
			c.CharCount,
			c.Overlap,
			c.Page,
			pgvector.NewVector(c.Embedding),
			createdAt,
			updatedAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// DeleteChunksFrom removes chunks of a document at or above the given index.
// Used after re-indexing a document that shrank.
func (r *ChunkRepository) DeleteChunksFrom(ctx context.Context, documentID string, fromIndex int) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM chunks WHERE document_id = $1 AND chunk_index >= $2`,
		documentID, fromIndex,
	)
	return err
}

// QueryNearest returns the topK chunks closest to the query embedding by
// cosine distance. Score is cosine similarity in [0,1] for normalized
// embeddings. Ties on distance break on chunk ID so results are stable.
func (r *ChunkRepository) QueryNearest(ctx context.Context, embedding []float32, topK int) ([]domain.EvidenceItem, error) {
	if topK <= 0 {
		topK = 5
	}

	vec := pgvector.NewVector(embedding)

	rows, err := r.db.Query(ctx,
		`SELECT id, document_id, content, 1 - (embedding <=> $1) AS score, page
		 FROM chunks
		 WHERE embedding IS NOT NULL
		 ORDER BY embedding <=> $1 ASC, id ASC
		 LIMIT $2`,
		vec, topK,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.EvidenceItem, 0, topK)
	for rows.Next() {
		var item domain.EvidenceItem
		if err := rows.Scan(&item.ChunkID, &item.DocumentID, &item.Content, &item.Score, &item.Page); err != nil {
			return nil, err
		}
		results = append(results, item)
	}
	return results, rows.Err()
}

// CountByDocument reports how many chunks a document currently has indexed.
func (r *ChunkRepository) CountByDocument(ctx context.Context, documentID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM chunks WHERE document_id = $1`,
		documentID,
	).Scan(&count)
	return count, err
}
