package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cloo-solutions/askhr/internal/domain"
	"github.com/cloo-solutions/askhr/internal/pagination"
	"github.com/cloo-solutions/askhr/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DocumentRepository struct {
	db dbtx
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: pool}
}

func NewDocumentRepositoryWithTx(tx pgx.Tx) *DocumentRepository {
	return &DocumentRepository{db: tx}
}

// Upsert inserts the document or replaces an existing row with the same ID.
func (r *DocumentRepository) Upsert(ctx context.Context, d *domain.Document) error {
	markers, err := json.Marshal(d.PageMarkers)
	if err != nil {
		return fmt.Errorf("failed to encode page markers: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO documents (id, title, source_path, body, page_markers, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE
		 SET title = EXCLUDED.title,
		     source_path = EXCLUDED.source_path,
		     body = EXCLUDED.body,
		     page_markers = EXCLUDED.page_markers,
		     updated_at = EXCLUDED.updated_at`,
		d.ID, d.Title, nullableString(d.SourcePath), d.Body, markers, d.CreatedAt, d.UpdatedAt,
	)
	return err
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	var d domain.Document
	var sourcePath *string
	var markers []byte
	err := r.db.QueryRow(ctx,
		`SELECT id, title, source_path, body, page_markers, created_at, updated_at
		 FROM documents WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.Title, &sourcePath, &d.Body, &markers, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	if sourcePath != nil {
		d.SourcePath = *sourcePath
	}
	if len(markers) > 0 {
		if err := json.Unmarshal(markers, &d.PageMarkers); err != nil {
			return nil, fmt.Errorf("failed to decode page markers: %w", err)
		}
	}
	return &d, nil
}

func (r *DocumentRepository) ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*service.DocumentPageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT id, title, source_path, body, page_markers, created_at, updated_at
			 FROM documents
			 WHERE (updated_at, id) < ($1, $2)
			 ORDER BY updated_at DESC, id DESC
			 LIMIT $3`,
			cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT id, title, source_path, body, page_markers, created_at, updated_at
			 FROM documents
			 ORDER BY updated_at DESC, id DESC
			 LIMIT $1`,
			limit+1,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanDocumentRows(rows)
	if err != nil {
		return nil, err
	}

	result := &service.DocumentPageResult{Items: items}
	if len(items) > limit {
		result.Items = items[:limit]
		result.HasMore = true
		last := result.Items[len(result.Items)-1]
		result.NextCursor = pagination.EncodeCursor(last.ID, last.UpdatedAt)
	}
	return result, nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func scanDocumentRows(rows pgx.Rows) ([]*domain.Document, error) {
	var results []*domain.Document
	for rows.Next() {
		var d domain.Document
		var sourcePath *string
		var markers []byte
		if err := rows.Scan(&d.ID, &d.Title, &sourcePath, &d.Body, &markers, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		if sourcePath != nil {
			d.SourcePath = *sourcePath
		}
		if len(markers) > 0 {
			if err := json.Unmarshal(markers, &d.PageMarkers); err != nil {
				return nil, err
			}
		}
		results = append(results, &d)
	}
	return results, rows.Err()
}
