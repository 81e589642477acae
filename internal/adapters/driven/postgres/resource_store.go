package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ResourceStore = (*ResourceStore)(nil)

// ResourceStore implements driven.ResourceStore using PostgreSQL.
// Chunks are stored as a JSONB array on the resource row.
type ResourceStore struct {
	db *DB
}

// NewResourceStore creates a new ResourceStore
func NewResourceStore(db *DB) *ResourceStore {
	return &ResourceStore{db: db}
}

// Create inserts a new resource
func (s *ResourceStore) Create(ctx context.Context, r *domain.Resource) error {
	chunksJSON, err := marshalChunks(r.TextChunks)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO resources (` + resourceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO NOTHING
	`

	result, err := s.db.ExecContext(ctx, query,
		r.ID,
		r.FileName,
		r.FilePath,
		r.FileSize,
		r.MimeType,
		r.SubjectID,
		r.UploadedBy,
		r.UploadDate,
		r.ExtractionStatus,
		NullTime(r.ExtractionDate),
		r.PageCount,
		r.WordCount,
		r.ExtractedText,
		chunksJSON,
		r.ProcessingMethod,
		r.JSONFileStatus,
		r.JSONFilePath,
	)
	if err != nil {
		return fmt.Errorf("insert resource: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

// Get retrieves a resource by ID
func (s *ResourceStore) Get(ctx context.Context, id string) (*domain.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE id = $1`

	r, err := scanResource(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// List returns resources newest first. Extracted text and chunks are left
// out of listings.
func (s *ResourceStore) List(ctx context.Context, filter domain.ResourceFilter) ([]*domain.Resource, error) {
	query := `
		SELECT id, file_name, file_path, file_size, mime_type, subject_id, uploaded_by, upload_date,
			extraction_status, extraction_date, page_count, word_count, '', '[]'::jsonb,
			processing_method, json_file_status, json_file_path
		FROM resources
		WHERE ($1 = '' OR subject_id = $1)
		  AND ($2 = '' OR extraction_status = $2)
		ORDER BY upload_date DESC
		LIMIT $3 OFFSET $4
	`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, query, filter.SubjectID, string(filter.ExtractionStatus), limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("query resources: %w", err)
	}
	defer rows.Close()

	resources := []*domain.Resource{}
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		r.TextChunks = nil
		resources = append(resources, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return resources, nil
}

// UpdateExtraction writes the extraction field group, but only while the
// stored status still equals from.
func (s *ResourceStore) UpdateExtraction(ctx context.Context, id string, from domain.ExtractionStatus, u domain.ExtractionUpdate) error {
	if !from.CanTransitionTo(u.Status) {
		return fmt.Errorf("extraction %s -> %s: %w", from, u.Status, domain.ErrInvalidTransition)
	}

	var (
		result sql.Result
		err    error
	)
	if u.ExtractionDate == nil {
		result, err = s.db.ExecContext(ctx,
			`UPDATE resources SET extraction_status = $1 WHERE id = $2 AND extraction_status = $3`,
			u.Status, id, from,
		)
	} else {
		chunksJSON, mErr := marshalChunks(u.TextChunks)
		if mErr != nil {
			return mErr
		}
		result, err = s.db.ExecContext(ctx, `
			UPDATE resources
			SET extraction_status = $1, extraction_date = $2, page_count = $3, word_count = $4,
				extracted_text = $5, text_chunks = $6, processing_method = $7
			WHERE id = $8 AND extraction_status = $9
		`,
			u.Status,
			NullTime(u.ExtractionDate),
			u.PageCount,
			u.WordCount,
			u.ExtractedText,
			chunksJSON,
			u.ProcessingMethod,
			id,
			from,
		)
	}
	if err != nil {
		return fmt.Errorf("update extraction: %w", err)
	}
	return s.checkSwapped(ctx, result, id, "extraction_status", string(from))
}

// UpdateArtifact resolves the artifact state, but only while the stored
// status still equals from.
func (s *ResourceStore) UpdateArtifact(ctx context.Context, id string, from, status domain.JSONFileStatus, path string) error {
	if !from.CanTransitionTo(status) {
		return fmt.Errorf("json file %s -> %s: %w", from, status, domain.ErrInvalidTransition)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE resources SET json_file_status = $1, json_file_path = $2 WHERE id = $3 AND json_file_status = $4`,
		status, path, id, from,
	)
	if err != nil {
		return fmt.Errorf("update artifact: %w", err)
	}
	return s.checkSwapped(ctx, result, id, "json_file_status", string(from))
}

// Ping checks if the database is reachable
func (s *ResourceStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// checkSwapped tells a missing row apart from a lost compare-and-set.
func (s *ResourceStore) checkSwapped(ctx context.Context, result sql.Result, id, column, from string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}

	var current string
	err = s.db.QueryRowContext(ctx, `SELECT `+column+` FROM resources WHERE id = $1`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%s is %s, expected %s: %w", column, current, from, domain.ErrInvalidTransition)
}
