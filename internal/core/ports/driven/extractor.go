package driven

import (
	"context"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

// Extractor is one extraction tier. Tiers are tried in priority order until
// one succeeds.
type Extractor interface {
	// Name identifies the tier in logs.
	Name() string

	// Extract reads the file at path and returns text, chunks and counts.
	// On failure it returns a non-nil error; the result, if any, is ignored.
	Extract(ctx context.Context, path string) (*domain.ExtractionResult, error)

	// SupportedTypes returns the MIME types this tier handles.
	// Wildcards like "application/*" are allowed.
	SupportedTypes() []string

	// Priority orders tiers (higher = tried first).
	// Priority ranges:
	//   50-100: external or layout-aware tools
	//   1-49:   in-process fallbacks
	Priority() int
}

// ExtractorRegistry holds the available extraction tiers.
type ExtractorRegistry interface {
	// GetAll returns the tiers matching a MIME type, highest priority first.
	GetAll(mimeType string) []Extractor

	// Register adds a tier.
	Register(extractor Extractor)

	// List returns the registered tier names in priority order.
	List() []string
}

// CommandResult is the outcome of an external command that ran to completion.
type CommandResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// CommandRunner runs external programs. It returns an error only when the
// program could not be started or was killed by ctx; a non-zero exit status
// is reported through CommandResult.ExitCode.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (*CommandResult, error)
}

// ChunkProcessor enriches chunks after extraction.
type ChunkProcessor interface {
	// Process returns the enriched chunks. It must not reorder, add or
	// remove chunks.
	Process(chunks []domain.Chunk) []domain.Chunk

	// Name returns the processor name for logging.
	Name() string

	// Order returns the position in the pipeline (lower = earlier).
	Order() int
}

// ChunkPipeline chains chunk processors in order.
type ChunkPipeline interface {
	Process(chunks []domain.Chunk) []domain.Chunk
	Add(processor ChunkProcessor)
	List() []string
}
