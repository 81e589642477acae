package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

//go:embed schema.sql
var schema string

// DB is the pool shared by the resource store, the table lock and the
// Postgres task queue.
type DB struct {
	*sql.DB
}

// Config holds the connection string and pool limits. Zero limits fall back
// to the package defaults.
type Config struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = time.Minute
)

func (c Config) withDefaults() Config {
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = defaultMaxOpenConns
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = defaultMaxIdleConns
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = defaultConnMaxLifetime
	}
	if c.ConnMaxIdleTime <= 0 {
		c.ConnMaxIdleTime = defaultConnMaxIdleTime
	}
	return c
}

// Connect opens the pool and verifies it with a ping. The schema is applied
// separately by InitSchema.
func Connect(ctx context.Context, cfg Config) (*DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database url: %w", domain.ErrInvalidInput)
	}
	cfg = cfg.withDefaults()

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &DB{DB: db}, nil
}

// InitSchema creates the resources, tasks and locks tables if missing.
func (db *DB) InitSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Ping reports database reachability for the readiness endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}

// NullTime converts a time pointer to sql.NullTime
func NullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// TimePtr converts sql.NullTime to time pointer
func TimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// resourceColumns is the column order scanResource expects.
const resourceColumns = `
	id, file_name, file_path, file_size, mime_type, subject_id, uploaded_by, upload_date,
	extraction_status, extraction_date, page_count, word_count, extracted_text, text_chunks,
	processing_method, json_file_status, json_file_path
`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanResource reads one row selected with resourceColumns. The text_chunks
// JSONB array is decoded into TextChunks.
func scanResource(row rowScanner) (*domain.Resource, error) {
	var r domain.Resource
	var extractionDate sql.NullTime
	var chunksJSON []byte

	err := row.Scan(
		&r.ID,
		&r.FileName,
		&r.FilePath,
		&r.FileSize,
		&r.MimeType,
		&r.SubjectID,
		&r.UploadedBy,
		&r.UploadDate,
		&r.ExtractionStatus,
		&extractionDate,
		&r.PageCount,
		&r.WordCount,
		&r.ExtractedText,
		&chunksJSON,
		&r.ProcessingMethod,
		&r.JSONFileStatus,
		&r.JSONFilePath,
	)
	if err != nil {
		return nil, err
	}

	r.ExtractionDate = TimePtr(extractionDate)
	if len(chunksJSON) > 0 {
		if err := json.Unmarshal(chunksJSON, &r.TextChunks); err != nil {
			return nil, fmt.Errorf("unmarshal chunks: %w", err)
		}
	}
	return &r, nil
}

// marshalChunks encodes chunks for the text_chunks column; nil becomes [].
func marshalChunks(chunks []domain.Chunk) ([]byte, error) {
	if chunks == nil {
		chunks = []domain.Chunk{}
	}
	data, err := json.Marshal(chunks)
	if err != nil {
		return nil, fmt.Errorf("marshal chunks: %w", err)
	}
	return data, nil
}
