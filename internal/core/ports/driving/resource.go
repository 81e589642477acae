package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

// UploadRequest is one uploaded file with its form fields.
type UploadRequest struct {
	FileName    string
	ContentType string
	// Size is the declared size in bytes; 0 when unknown.
	Size      int64
	SubjectID string
	Body      io.Reader
}

// ResourceService accepts uploads and serves their ingestion results.
type ResourceService interface {
	// Upload validates and stores the file, creates the resource, marks it
	// processing and enqueues extraction. It returns before extraction runs.
	Upload(ctx context.Context, caller *domain.AuthContext, req UploadRequest) (*domain.Resource, error)

	// Get retrieves a resource with its extraction state.
	Get(ctx context.Context, id string) (*domain.Resource, error)

	// List retrieves resources matching the filter.
	List(ctx context.Context, filter domain.ResourceFilter) ([]*domain.Resource, error)

	// Chunks returns the resource's chunks. Empty until extraction completes.
	Chunks(ctx context.Context, id string) ([]domain.Chunk, error)

	// Content returns the raw JSON artifact. Returns domain.ErrNotFound
	// until the artifact has been created.
	Content(ctx context.Context, id string) ([]byte, error)
}
