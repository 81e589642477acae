package driven

import (
	"context"
	"io"
)

// FileStore keeps uploaded source files.
type FileStore interface {
	// Save copies r into the store under a name derived from id and
	// fileName and returns the stored path and byte size. Reading more than
	// maxBytes aborts with domain.ErrFileTooLarge and removes the partial file.
	Save(ctx context.Context, id, fileName string, r io.Reader, maxBytes int64) (path string, size int64, err error)

	// Remove deletes a stored file. Missing files are not an error.
	Remove(ctx context.Context, path string) error
}

// ArtifactWriter persists artifact documents.
type ArtifactWriter interface {
	// Write serializes body as JSON to path, replacing any existing file.
	Write(ctx context.Context, path string, body any) error

	// Read returns the raw artifact bytes at path.
	Read(ctx context.Context, path string) ([]byte, error)
}
