package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// DefaultLockTTL bounds how long one resource stays locked by a worker.
const DefaultLockTTL = 15 * time.Minute

// IngestionPipeline runs one extraction task end to end:
// extract, record the result, assemble the artifact, record the artifact.
// Each stage fails independently.
type IngestionPipeline struct {
	store        driven.ResourceStore
	orchestrator *Orchestrator
	status       *StatusManager
	assembler    *ArtifactAssembler
	lock         driven.DistributedLock
	lockTTL      time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

// IngestionPipelineConfig holds configuration for the pipeline.
type IngestionPipelineConfig struct {
	Store        driven.ResourceStore
	Orchestrator *Orchestrator
	Status       *StatusManager
	Assembler    *ArtifactAssembler
	Lock         driven.DistributedLock // optional
	LockTTL      time.Duration
	Logger       *slog.Logger
}

// NewIngestionPipeline creates a new pipeline.
func NewIngestionPipeline(cfg IngestionPipelineConfig) *IngestionPipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &IngestionPipeline{
		store:        cfg.Store,
		orchestrator: cfg.Orchestrator,
		status:       cfg.Status,
		assembler:    cfg.Assembler,
		lock:         cfg.Lock,
		lockTTL:      ttl,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// ResourceLockName is the distributed lock key for one resource.
func ResourceLockName(resourceID string) string {
	return "resource:" + resourceID
}

// Process ingests one resource. Extraction and artifact failures are
// recorded on the resource, not returned; an error means the task itself
// could not run (resource missing, lock backend down, already locked).
func (p *IngestionPipeline) Process(ctx context.Context, resourceID string) error {
	logger := p.logger.With("resource_id", resourceID)

	if p.lock != nil {
		name := ResourceLockName(resourceID)
		acquired, err := p.lock.Acquire(ctx, name, p.lockTTL)
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !acquired {
			return fmt.Errorf("resource %s is already being processed", resourceID)
		}
		defer func() {
			if err := p.lock.Release(context.WithoutCancel(ctx), name); err != nil {
				logger.Warn("failed to release resource lock", "error", err)
			}
		}()
	}

	resource, err := p.store.Get(ctx, resourceID)
	if err != nil {
		return fmt.Errorf("load resource: %w", err)
	}

	switch resource.ExtractionStatus {
	case domain.ExtractionStatusCompleted, domain.ExtractionStatusFailed:
		logger.Info("extraction already resolved, skipping", "status", resource.ExtractionStatus)
		return nil
	case domain.ExtractionStatusPending:
		// The upload path could not record processing; do it now.
		if err := p.status.MarkProcessing(ctx, resourceID); err == nil {
			resource.ExtractionStatus = domain.ExtractionStatusProcessing
		}
	}

	result := p.orchestrator.Extract(ctx, resource)
	_ = p.status.MarkExtractionResult(ctx, resourceID, result)

	// The artifact is attempted for failed extractions too; its outcome is
	// recorded independently of the extraction status.
	resource.ExtractionStatus = domain.ExtractionStatusProcessing
	if err := resource.ApplyExtraction(result, p.now()); err != nil {
		logger.Warn("could not apply extraction locally", "error", err)
	}

	artifact := p.assembler.Assemble(resource, result)
	path := domain.ArtifactPath(resource.FilePath)
	if err := p.assembler.Write(ctx, path, artifact); err != nil {
		logger.Error("artifact write failed", "path", path, "error", err)
		_ = p.status.MarkArtifactResult(ctx, resourceID, domain.JSONFileStatusFailed, "")
		return nil
	}

	_ = p.status.MarkArtifactResult(ctx, resourceID, domain.JSONFileStatusCreated, path)
	logger.Info("resource ingested", "artifact", path, "chunks", len(result.TextChunks))
	return nil
}
