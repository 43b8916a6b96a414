//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/cloo-solutions/askhr/internal/domain"
	"github.com/cloo-solutions/askhr/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// axisVector returns a 1536-dim unit vector along the given axis. Cosine
// similarity between equal axes is 1, between different axes 0.
func axisVector(axis int) []float32 {
	v := make([]float32, 1536)
	v[axis] = 1
	return v
}

func seedChunks(ctx context.Context, t *testing.T, docRepo *DocumentRepository, chunkRepo *ChunkRepository) {
	t.Helper()
	require.NoError(t, docRepo.Upsert(ctx, testDocument("doc-1")))

	chunks := []domain.Chunk{
		{ID: domain.ChunkID("doc-1", 0), DocumentID: "doc-1", Index: 0, Content: "vacation days", CharCount: 13, Page: 1, Embedding: axisVector(0)},
		{ID: domain.ChunkID("doc-1", 1), DocumentID: "doc-1", Index: 1, Content: "sick leave", CharCount: 10, Page: 1, Embedding: axisVector(1)},
		{ID: domain.ChunkID("doc-1", 2), DocumentID: "doc-1", Index: 2, Content: "parental leave", CharCount: 14, Page: 2, Embedding: axisVector(2)},
	}
	require.NoError(t, chunkRepo.UpsertChunks(ctx, chunks))
}

func TestChunkRepository_QueryNearest(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	docRepo := NewDocumentRepository(pool)
	chunkRepo := NewChunkRepository(pool)
	seedChunks(ctx, t, docRepo, chunkRepo)

	results, err := chunkRepo.QueryNearest(ctx, axisVector(1), 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "doc-1:0001", results[0].ChunkID, "exact match ranks first")
	assert.Equal(t, "sick leave", results[0].Content)
	assert.InDelta(t, 1.0, results[0].Score, 0.001)
	assert.Less(t, results[1].Score, results[0].Score)
}

func TestChunkRepository_UpsertOverwritesByID(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	docRepo := NewDocumentRepository(pool)
	chunkRepo := NewChunkRepository(pool)
	seedChunks(ctx, t, docRepo, chunkRepo)

	updated := []domain.Chunk{
		{ID: domain.ChunkID("doc-1", 0), DocumentID: "doc-1", Index: 0, Content: "updated content", CharCount: 15, Page: 1, Embedding: axisVector(0)},
	}
	require.NoError(t, chunkRepo.UpsertChunks(ctx, updated))

	count, err := chunkRepo.CountByDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count, "re-upsert must not duplicate rows")

	results, err := chunkRepo.QueryNearest(ctx, axisVector(0), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "updated content", results[0].Content)
}

func TestChunkRepository_DeleteChunksFrom(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	docRepo := NewDocumentRepository(pool)
	chunkRepo := NewChunkRepository(pool)
	seedChunks(ctx, t, docRepo, chunkRepo)

	require.NoError(t, chunkRepo.DeleteChunksFrom(ctx, "doc-1", 1))

	count, err := chunkRepo.CountByDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "only the chunk below the cut index survives")
}

func TestChunkRepository_DeleteCascadesWithDocument(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	docRepo := NewDocumentRepository(pool)
	chunkRepo := NewChunkRepository(pool)
	seedChunks(ctx, t, docRepo, chunkRepo)

	require.NoError(t, docRepo.Delete(ctx, "doc-1"))

	count, err := chunkRepo.CountByDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
