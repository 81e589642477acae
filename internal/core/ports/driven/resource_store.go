package driven

import (
	"context"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

// ResourceStore persists uploaded resources and their two status machines.
// Status updates are compare-and-set: they apply only while the stored
// status still equals from, and return domain.ErrInvalidTransition otherwise.
type ResourceStore interface {
	// Create inserts a new resource. Returns domain.ErrAlreadyExists on id clash.
	Create(ctx context.Context, resource *domain.Resource) error

	// Get retrieves a resource by ID, including its chunks.
	Get(ctx context.Context, id string) (*domain.Resource, error)

	// List retrieves resources matching the filter, newest first.
	// Extracted text and chunks are omitted.
	List(ctx context.Context, filter domain.ResourceFilter) ([]*domain.Resource, error)

	// UpdateExtraction writes the extraction state.
	UpdateExtraction(ctx context.Context, id string, from domain.ExtractionStatus, update domain.ExtractionUpdate) error

	// UpdateArtifact writes the JSON artifact state.
	UpdateArtifact(ctx context.Context, id string, from domain.JSONFileStatus, status domain.JSONFileStatus, path string) error

	// Ping checks if the store is reachable.
	Ping(ctx context.Context) error
}
