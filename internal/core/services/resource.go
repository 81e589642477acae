package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
	"github.com/custodia-labs/lectern/internal/core/ports/driving"
)

// Ensure resourceService implements ResourceService
var _ driving.ResourceService = (*resourceService)(nil)

// DefaultMaxUploadBytes is the upload limit when none is configured.
const DefaultMaxUploadBytes int64 = 50 << 20

const pdfMimeType = "application/pdf"

// ResourceServiceConfig holds the dependencies of the resource service.
type ResourceServiceConfig struct {
	Store          driven.ResourceStore
	Files          driven.FileStore
	Artifacts      driven.ArtifactWriter
	Queue          driven.TaskQueue
	Status         *StatusManager
	MaxUploadBytes int64
	Logger         *slog.Logger
}

type resourceService struct {
	store     driven.ResourceStore
	files     driven.FileStore
	artifacts driven.ArtifactWriter
	queue     driven.TaskQueue
	status    *StatusManager
	maxBytes  int64
	logger    *slog.Logger
}

// NewResourceService creates a new ResourceService
func NewResourceService(cfg ResourceServiceConfig) driving.ResourceService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxBytes := cfg.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &resourceService{
		store:     cfg.Store,
		files:     cfg.Files,
		artifacts: cfg.Artifacts,
		queue:     cfg.Queue,
		status:    cfg.Status,
		maxBytes:  maxBytes,
		logger:    logger,
	}
}

// Upload stores the file and hands extraction to the queue.
func (s *resourceService) Upload(ctx context.Context, caller *domain.AuthContext, req driving.UploadRequest) (*domain.Resource, error) {
	if caller == nil {
		return nil, domain.ErrUnauthorized
	}
	if !caller.CanUpload() {
		return nil, domain.ErrForbidden
	}

	fileName := filepath.Base(strings.TrimSpace(req.FileName))
	subjectID := strings.TrimSpace(req.SubjectID)
	switch {
	case req.Body == nil, fileName == "", fileName == ".", fileName == string(filepath.Separator):
		return nil, fmt.Errorf("file is required: %w", domain.ErrInvalidInput)
	case subjectID == "":
		return nil, fmt.Errorf("subjectId is required: %w", domain.ErrInvalidInput)
	case !isPDF(fileName, req.ContentType):
		return nil, fmt.Errorf("%s: only PDF files are accepted: %w", fileName, domain.ErrUnsupportedType)
	case req.Size > s.maxBytes:
		return nil, fmt.Errorf("%d bytes exceeds limit of %d: %w", req.Size, s.maxBytes, domain.ErrFileTooLarge)
	}

	id := uuid.NewString()
	path, size, err := s.files.Save(ctx, id, fileName, req.Body, s.maxBytes)
	if err != nil {
		return nil, err
	}

	resource := domain.NewResource(id, fileName, path, size, pdfMimeType, subjectID, caller.UserID)
	if err := s.store.Create(ctx, resource); err != nil {
		if rmErr := s.files.Remove(ctx, path); rmErr != nil {
			s.logger.Warn("failed to remove orphaned upload", "path", path, "error", rmErr)
		}
		return nil, fmt.Errorf("create resource: %w", err)
	}

	if err := s.status.MarkProcessing(ctx, id); err == nil {
		resource.ExtractionStatus = domain.ExtractionStatusProcessing
	}

	task := domain.NewExtractResourceTask(subjectID, id)
	if err := s.queue.Enqueue(ctx, task); err != nil {
		s.logger.Error("failed to enqueue extraction", "resource_id", id, "error", err)
		if resource.ExtractionStatus == domain.ExtractionStatusProcessing {
			_ = s.status.MarkExtractionResult(ctx, id, domain.FailedExtraction())
		}
		_ = s.status.MarkArtifactResult(ctx, id, domain.JSONFileStatusFailed, "")
		return nil, fmt.Errorf("enqueue extraction: %w: %w", domain.ErrQueueUnavailable, err)
	}

	s.logger.Info("resource accepted",
		"resource_id", id,
		"task_id", task.ID,
		"subject_id", subjectID,
		"bytes", size,
	)
	return resource, nil
}

// Get retrieves a resource by ID
func (s *resourceService) Get(ctx context.Context, id string) (*domain.Resource, error) {
	return s.store.Get(ctx, id)
}

// List retrieves resources matching the filter
func (s *resourceService) List(ctx context.Context, filter domain.ResourceFilter) ([]*domain.Resource, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.store.List(ctx, filter)
}

// Chunks returns the stored chunks of a resource
func (s *resourceService) Chunks(ctx context.Context, id string) ([]domain.Chunk, error) {
	resource, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if resource.TextChunks == nil {
		return []domain.Chunk{}, nil
	}
	return resource.TextChunks, nil
}

// Content returns the artifact bytes once the artifact exists
func (s *resourceService) Content(ctx context.Context, id string) ([]byte, error) {
	resource, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if resource.JSONFileStatus != domain.JSONFileStatusCreated || resource.JSONFilePath == "" {
		return nil, fmt.Errorf("artifact for %s is %s: %w", id, resource.JSONFileStatus, domain.ErrNotFound)
	}

	data, err := s.artifacts.Read(ctx, resource.JSONFilePath)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return data, nil
}

// isPDF accepts a .pdf extension or a PDF content type.
func isPDF(fileName, contentType string) bool {
	if strings.EqualFold(filepath.Ext(fileName), ".pdf") {
		return true
	}
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(ct, ";"); idx != -1 {
		ct = strings.TrimSpace(ct[:idx])
	}
	return ct == pdfMimeType
}
