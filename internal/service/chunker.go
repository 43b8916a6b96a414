package service

import (
	"iter"
	"strings"
	"unicode"

	"github.com/cloo-solutions/askhr/internal/domain"
)

// ChunkConfig controls how document text is split for indexing.
type ChunkConfig struct {
	// MaxChars is the hard upper bound on chunk length in runes.
	MaxChars int
	// MinChars is the earliest point at which a natural breakpoint is
	// accepted; below it the chunk is cut at MaxChars exactly.
	MinChars int
	// Overlap is the number of trailing runes re-included at the start of
	// the next chunk.
	Overlap int
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChars: 1200,
		MinChars: 400,
		Overlap:  200,
	}
}

// Chunker splits document text into bounded, overlapping chunks with stable
// IDs. The produced chunks cover the text with no gaps: stripping each
// chunk's Overlap prefix and concatenating reconstructs the original text.
type Chunker struct {
	cfg ChunkConfig
}

func NewChunker(cfg ChunkConfig) *Chunker {
	if cfg.MaxChars <= 0 {
		cfg = DefaultChunkConfig()
	}
	if cfg.Overlap >= cfg.MaxChars {
		cfg.Overlap = cfg.MaxChars - 1
	}
	return &Chunker{cfg: cfg}
}

// Chunks returns a lazy, restartable sequence of chunks for the document.
// Documents shorter than MaxChars yield exactly one chunk; documents with no
// non-whitespace content yield none.
func (c *Chunker) Chunks(doc *domain.Document) iter.Seq[domain.Chunk] {
	return func(yield func(domain.Chunk) bool) {
		if strings.TrimSpace(doc.Body) == "" {
			return
		}

		runes := []rune(doc.Body)
		start := 0
		index := 0
		overlap := 0

		for start < len(runes) {
			end := start + c.cfg.MaxChars
			if end >= len(runes) {
				end = len(runes)
			} else {
				end = c.breakpoint(runes, start, end)
			}

			chunk := domain.Chunk{
				ID:         domain.ChunkID(doc.ID, index),
				DocumentID: doc.ID,
				Index:      index,
				Content:    string(runes[start:end]),
				CharCount:  end - start,
				Overlap:    overlap,
				Page:       doc.PageAt(start),
			}
			if !yield(chunk) {
				return
			}

			if end >= len(runes) {
				return
			}

			next := end - c.cfg.Overlap
			if next <= start {
				next = end
			}
			overlap = end - next
			start = next
			index++
		}
	}
}

// ChunkAll collects the full chunk sequence into a slice.
func (c *Chunker) ChunkAll(doc *domain.Document) []domain.Chunk {
	var chunks []domain.Chunk
	for chunk := range c.Chunks(doc) {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// breakpoint finds the cut position for a chunk starting at start with a hard
// limit at end. Paragraph ends are preferred over sentence ends over plain
// whitespace; a break counts only past the MinChars floor.
func (c *Chunker) breakpoint(runes []rune, start, end int) int {
	floor := start + c.cfg.MinChars
	if floor >= end {
		floor = start
	}

	for i := end; i > floor; i-- {
		if runes[i-1] == '\n' && i >= 2 && runes[i-2] == '\n' {
			return i
		}
	}
	for i := end; i > floor; i-- {
		if isSentenceEnd(runes[i-1]) && (i >= len(runes) || unicode.IsSpace(runes[i])) {
			return i
		}
	}
	for i := end; i > floor; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return end
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?':
		return true
	default:
		return false
	}
}
