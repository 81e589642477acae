package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// Orchestrator runs the extraction tiers for a resource in priority order
// and returns the first successful result.
type Orchestrator struct {
	registry driven.ExtractorRegistry
	logger   *slog.Logger
}

// OrchestratorConfig holds configuration for the orchestrator.
type OrchestratorConfig struct {
	Registry driven.ExtractorRegistry
	Logger   *slog.Logger
}

// NewOrchestrator creates a new extraction orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		registry: cfg.Registry,
		logger:   logger,
	}
}

// Extract never fails: when every tier errors the result is
// domain.FailedExtraction.
func (o *Orchestrator) Extract(ctx context.Context, resource *domain.Resource) *domain.ExtractionResult {
	logger := o.logger.With("resource_id", resource.ID)

	tiers := o.registry.GetAll(resource.MimeType)
	if len(tiers) == 0 {
		logger.Warn("no extractor for mime type", "mime_type", resource.MimeType)
		return domain.FailedExtraction()
	}

	for _, tier := range tiers {
		result, err := o.runTier(ctx, tier, resource.FilePath)
		if err == nil && result.Succeeded() {
			logger.Info("extraction succeeded",
				"tier", tier.Name(),
				"pages", result.PageCount,
				"words", result.WordCount,
				"chunks", len(result.TextChunks),
			)
			return result
		}
		if err == nil {
			err = fmt.Errorf("tier reported status %q", statusOf(result))
		}
		logger.Warn("extraction tier failed, trying next", "tier", tier.Name(), "error", err)
	}

	logger.Error("all extraction tiers failed")
	return domain.FailedExtraction()
}

// runTier isolates the caller from panics inside a tier.
func (o *Orchestrator) runTier(ctx context.Context, tier driven.Extractor, path string) (result *domain.ExtractionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("extractor %s panicked: %v", tier.Name(), r)
		}
	}()
	return tier.Extract(ctx, path)
}

func statusOf(r *domain.ExtractionResult) domain.ExtractionStatus {
	if r == nil {
		return ""
	}
	return r.Status
}
