package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     *Document
		wantErr string
	}{
		{
			name: "valid document",
			doc:  &Document{ID: "doc-1", Title: "Vacation Policy", Body: "text"},
		},
		{
			name: "valid with ordered markers",
			doc: &Document{
				ID:    "doc-1",
				Title: "Policy",
				PageMarkers: []PageMarker{
					{Page: 1, Offset: 0},
					{Page: 2, Offset: 100},
				},
			},
		},
		{
			name:    "nil document",
			doc:     nil,
			wantErr: "cannot be nil",
		},
		{
			name:    "missing ID",
			doc:     &Document{Title: "Policy"},
			wantErr: "ID is required",
		},
		{
			name:    "missing title",
			doc:     &Document{ID: "doc-1"},
			wantErr: "Title is required",
		},
		{
			name: "unordered markers",
			doc: &Document{
				ID:    "doc-1",
				Title: "Policy",
				PageMarkers: []PageMarker{
					{Page: 2, Offset: 100},
					{Page: 1, Offset: 0},
				},
			},
			wantErr: "ordered by offset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestDocument_PageAt(t *testing.T) {
	doc := &Document{
		PageMarkers: []PageMarker{
			{Page: 1, Offset: 0},
			{Page: 2, Offset: 100},
			{Page: 3, Offset: 250},
		},
	}

	assert.Equal(t, 1, doc.PageAt(0))
	assert.Equal(t, 1, doc.PageAt(99))
	assert.Equal(t, 2, doc.PageAt(100))
	assert.Equal(t, 3, doc.PageAt(9999))
}

func TestDocument_PageAt_NoMarkers(t *testing.T) {
	doc := &Document{}
	assert.Equal(t, 0, doc.PageAt(42))
}

func TestChunkID(t *testing.T) {
	assert.Equal(t, "doc-1:0000", ChunkID("doc-1", 0))
	assert.Equal(t, "doc-1:0042", ChunkID("doc-1", 42))
	assert.Equal(t, "expenses-policy:1234", ChunkID("expenses-policy", 1234))
}

func TestIsValidIngestJobStatus(t *testing.T) {
	assert.True(t, IsValidIngestJobStatus(IngestJobStatusPending))
	assert.True(t, IsValidIngestJobStatus(IngestJobStatusProcessing))
	assert.True(t, IsValidIngestJobStatus(IngestJobStatusCompleted))
	assert.True(t, IsValidIngestJobStatus(IngestJobStatusFailed))
	assert.False(t, IsValidIngestJobStatus("queued"))
	assert.False(t, IsValidIngestJobStatus(""))
}
