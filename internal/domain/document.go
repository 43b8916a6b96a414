package domain

import (
	"fmt"
	"time"
)

// PageMarker maps a rune offset in the extracted text to the source page
// that begins at that offset. Markers are kept sorted by offset.
type PageMarker struct {
	Page   int `json:"page"`
	Offset int `json:"offset"`
}

// Document is an ingested source document. The text is the extracted,
// already-converted form; extraction itself happens upstream.
// Documents are immutable after ingestion: re-posting the same ID replaces
// the whole record and its chunks.
type Document struct {
	ID          string
	Title       string
	SourcePath  string
	Body        string
	PageMarkers []PageMarker
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PageAt returns the source page containing the given rune offset, or 0 when
// the document carries no page markers.
func (d *Document) PageAt(offset int) int {
	page := 0
	for _, m := range d.PageMarkers {
		if m.Offset > offset {
			break
		}
		page = m.Page
	}
	return page
}

// ValidateDocument validates a Document instance
func ValidateDocument(d *Document) error {
	if d == nil {
		return fmt.Errorf("document cannot be nil")
	}
	if d.ID == "" {
		return fmt.Errorf("document ID is required")
	}
	if d.Title == "" {
		return fmt.Errorf("document Title is required")
	}
	for i := 1; i < len(d.PageMarkers); i++ {
		if d.PageMarkers[i].Offset < d.PageMarkers[i-1].Offset {
			return fmt.Errorf("document page markers must be ordered by offset")
		}
	}
	return nil
}
