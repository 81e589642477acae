package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// StatusManager persists the two resource state machines. Every call is
// best effort: errors are logged and returned, never retried.
type StatusManager struct {
	store  driven.ResourceStore
	logger *slog.Logger
	now    func() time.Time
}

// NewStatusManager creates a status manager. A nil logger selects slog.Default().
func NewStatusManager(store driven.ResourceStore, logger *slog.Logger) *StatusManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusManager{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// MarkProcessing moves extraction from pending to processing.
func (m *StatusManager) MarkProcessing(ctx context.Context, id string) error {
	from := domain.ExtractionStatusPending
	to := domain.ExtractionStatusProcessing

	err := m.store.UpdateExtraction(ctx, id, from, domain.ExtractionUpdate{Status: to})
	if err != nil {
		m.logger.Warn("failed to mark resource processing", "resource_id", id, "error", err)
	}
	return err
}

// MarkExtractionResult resolves extraction to the result's status and
// stores its content fields.
func (m *StatusManager) MarkExtractionResult(ctx context.Context, id string, result *domain.ExtractionResult) error {
	from := domain.ExtractionStatusProcessing
	if !from.CanTransitionTo(result.Status) {
		err := fmt.Errorf("extraction %s -> %s: %w", from, result.Status, domain.ErrInvalidTransition)
		m.logger.Warn("refused extraction status update", "resource_id", id, "error", err)
		return err
	}

	at := m.now()
	update := domain.ExtractionUpdate{
		Status:           result.Status,
		ExtractionDate:   &at,
		PageCount:        result.PageCount,
		WordCount:        result.WordCount,
		ExtractedText:    result.ExtractedText,
		TextChunks:       result.TextChunks,
		ProcessingMethod: result.ProcessingMethod,
	}
	if err := m.store.UpdateExtraction(ctx, id, from, update); err != nil {
		m.logger.Error("failed to store extraction result",
			"resource_id", id,
			"status", result.Status,
			"error", err,
		)
		return err
	}

	m.logger.Info("extraction resolved",
		"resource_id", id,
		"status", result.Status,
		"method", result.ProcessingMethod,
	)
	return nil
}

// MarkArtifactResult resolves the artifact state. path is stored only
// when the artifact was created.
func (m *StatusManager) MarkArtifactResult(ctx context.Context, id string, status domain.JSONFileStatus, path string) error {
	from := domain.JSONFileStatusPending
	if !from.CanTransitionTo(status) {
		err := fmt.Errorf("json file %s -> %s: %w", from, status, domain.ErrInvalidTransition)
		m.logger.Warn("refused artifact status update", "resource_id", id, "error", err)
		return err
	}
	if status != domain.JSONFileStatusCreated {
		path = ""
	}

	if err := m.store.UpdateArtifact(ctx, id, from, status, path); err != nil {
		m.logger.Error("failed to store artifact status",
			"resource_id", id,
			"status", status,
			"error", err,
		)
		return err
	}
	return nil
}
