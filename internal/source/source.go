// Package source loads raw policy documents from external locations
// (local directories, object storage) and turns them into ingest inputs.
package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloo-solutions/askhr/internal/domain"
	"github.com/cloo-solutions/askhr/internal/service"
)

// DefaultExtensions are the file types treated as policy documents.
var DefaultExtensions = []string{".txt", ".md"}

// Source lists raw documents ready for ingestion.
type Source interface {
	Load(ctx context.Context) ([]service.IngestInput, error)
}

// FilesystemSource reads documents from a local directory tree.
type FilesystemSource struct {
	root       string
	extensions []string
}

func NewFilesystemSource(root string, extensions []string) *FilesystemSource {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	return &FilesystemSource{root: root, extensions: extensions}
}

// Load walks the directory and returns one ingest input per matching file.
// Document IDs derive from the relative path, so re-running over the same
// tree updates documents instead of duplicating them.
func (s *FilesystemSource) Load(ctx context.Context) ([]service.IngestInput, error) {
	var inputs []service.IngestInput

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !hasExtension(path, s.extensions) {
			return nil
		}

		input, err := s.LoadFile(path)
		if err != nil {
			return err
		}
		inputs = append(inputs, *input)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inputs, nil
}

// LoadFile builds the ingest input for a single file under the source root.
func (s *FilesystemSource) LoadFile(path string) (*service.IngestInput, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		rel = filepath.Base(path)
	}

	body, markers := splitPages(string(raw))
	return &service.IngestInput{
		ID:          DocumentID(rel),
		Title:       titleFromPath(rel),
		SourcePath:  rel,
		Body:        body,
		PageMarkers: markers,
	}, nil
}

// Matches reports whether the path is a document this source would load.
func (s *FilesystemSource) Matches(path string) bool {
	return hasExtension(path, s.extensions)
}

// DocumentID derives a stable document ID from a relative source path.
func DocumentID(rel string) string {
	id := strings.TrimSuffix(rel, filepath.Ext(rel))
	id = strings.ToLower(id)
	id = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, id)
	return strings.Trim(id, "-")
}

func titleFromPath(rel string) string {
	base := filepath.Base(rel)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")
	return strings.TrimSpace(base)
}

func hasExtension(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// splitPages converts form-feed page breaks into page markers. Offsets are
// rune positions into the returned body, matching how chunk pages resolve.
func splitPages(raw string) (string, []domain.PageMarker) {
	if !strings.Contains(raw, "\f") {
		return raw, nil
	}

	var b strings.Builder
	markers := []domain.PageMarker{{Page: 1, Offset: 0}}
	page := 1
	offset := 0

	for _, r := range raw {
		if r == '\f' {
			page++
			b.WriteRune('\n')
			offset++
			markers = append(markers, domain.PageMarker{Page: page, Offset: offset})
			continue
		}
		b.WriteRune(r)
		offset++
	}

	return b.String(), markers
}
