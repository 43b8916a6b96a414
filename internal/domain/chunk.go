package domain

import (
	"fmt"
	"time"
)

// Chunk is a bounded segment of one document, the unit of indexing and
// retrieval. Chunk IDs are deterministic: the same document text chunked with
// the same configuration always produces the same IDs, which makes re-indexing
// idempotent.
type Chunk struct {
	ID         string
	DocumentID string
	Index      int
	Content    string
	CharCount  int
	// Overlap is the number of runes shared with the previous chunk.
	// Zero for the first chunk of a document.
	Overlap   int
	Page      int
	Embedding []float32
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChunkID derives the stable chunk identifier from the owning document ID and
// the chunk's sequence index.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s:%04d", documentID, index)
}
