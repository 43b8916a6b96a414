package domain

// EvidenceItem is one retrieval result: a chunk reference plus its similarity
// score, with the chunk text denormalized so the agent can use it directly.
// Evidence is produced per query and never persisted.
type EvidenceItem struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Content    string  `json:"content"`
	Score      float32 `json:"score"`
	Page       int     `json:"page,omitempty"`
}
