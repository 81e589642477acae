package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/swaggo/swag"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driving"
)

// multipartMemory is how much of a multipart body is buffered in memory
// before spilling to temporary files.
const multipartMemory = 8 << 20

// formOverhead is allowed on top of the file size for boundaries and fields.
const formOverhead = 1 << 20

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// ReadinessResponse reports per-backend health
// @Description Readiness with per-component status
type ReadinessResponse struct {
	Status     string            `json:"status" example:"ready"`
	Components map[string]string `json:"components"`
}

// UploadResponse is returned once an upload is accepted for processing
// @Description Accepted upload with its initial ingestion state
type UploadResponse struct {
	ID               string                  `json:"id" example:"6f1c2f9e-3c1b-4c5e-9d8a-0e3b8f7c2a11"`
	FileName         string                  `json:"fileName" example:"photosynthesis.pdf"`
	FileSize         int64                   `json:"fileSize" example:"482113"`
	SubjectID        string                  `json:"subjectId" example:"biology-101"`
	UploadDate       time.Time               `json:"uploadDate"`
	ExtractionStatus domain.ExtractionStatus `json:"extractionStatus" example:"processing"`
	JSONFileStatus   domain.JSONFileStatus   `json:"jsonFileStatus" example:"pending"`
}

// ChunksResponse wraps a resource's chunks
// @Description Chunks produced for a resource
type ChunksResponse struct {
	ResourceID string         `json:"resourceId"`
	Chunks     []domain.Chunk `json:"chunks"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the liveness status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Pings the database, task queue and lock backend
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadinessResponse
// @Failure      503  {object}  ReadinessResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.adminService == nil {
		writeJSON(w, http.StatusOK, ReadinessResponse{Status: "ready", Components: map[string]string{}})
		return
	}

	components, ready := s.adminService.Readiness(r.Context())
	if !ready {
		writeJSON(w, http.StatusServiceUnavailable, ReadinessResponse{Status: "not_ready", Components: components})
		return
	}
	writeJSON(w, http.StatusOK, ReadinessResponse{Status: "ready", Components: components})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

// handleOpenAPI serves the registered swagger document.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		writeError(w, http.StatusNotFound, "api documentation not available")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

// Resource endpoints

// handleUploadResource godoc
// @Summary      Upload a resource
// @Description  Accepts a PDF for background extraction and chunking. Returns before processing runs.
// @Tags         Resources
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file       formData  file    true  "PDF document"
// @Param        subjectId  formData  string  true  "Owning subject"
// @Success      202  {object}  UploadResponse
// @Failure      400  {object}  ErrorResponse  "Missing file or subject"
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      413  {object}  ErrorResponse  "File exceeds the size limit"
// @Failure      415  {object}  ErrorResponse  "Not a PDF"
// @Failure      503  {object}  ErrorResponse  "Task queue unavailable"
// @Router       /resources [post]
func (s *Server) handleUploadResource(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+formOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer func() { _ = file.Close() }()

	resource, err := s.resourceService.Upload(r.Context(), GetAuthContext(r.Context()), driving.UploadRequest{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		SubjectID:   r.FormValue("subjectId"),
		Body:        file,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, UploadResponse{
		ID:               resource.ID,
		FileName:         resource.FileName,
		FileSize:         resource.FileSize,
		SubjectID:        resource.SubjectID,
		UploadDate:       resource.UploadDate,
		ExtractionStatus: resource.ExtractionStatus,
		JSONFileStatus:   resource.JSONFileStatus,
	})
}

// handleListResources godoc
// @Summary      List resources
// @Description  Lists resources, newest first. Text and chunks are omitted.
// @Tags         Resources
// @Produce      json
// @Security     BearerAuth
// @Param        subjectId  query  string  false  "Filter by subject"
// @Param        status     query  string  false  "Filter by extraction status"
// @Param        limit      query  int     false  "Page size (default 50, max 100)"
// @Param        offset     query  int     false  "Offset"
// @Success      200  {array}   domain.Resource
// @Failure      400  {object}  ErrorResponse
// @Router       /resources [get]
func (s *Server) handleListResources(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ResourceFilter{
		SubjectID:        q.Get("subjectId"),
		ExtractionStatus: domain.ExtractionStatus(q.Get("status")),
	}
	if filter.ExtractionStatus != "" && !filter.ExtractionStatus.IsValid() {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	var err error
	if filter.Limit, err = queryInt(q.Get("limit")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if filter.Offset, err = queryInt(q.Get("offset")); err != nil || filter.Offset < 0 {
		writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}

	resources, err := s.resourceService.List(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if resources == nil {
		resources = []*domain.Resource{}
	}
	writeJSON(w, http.StatusOK, resources)
}

// handleGetResource godoc
// @Summary      Get resource
// @Description  Returns a resource with both status fields and extraction results
// @Tags         Resources
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Resource ID"
// @Success      200  {object}  domain.Resource
// @Failure      404  {object}  ErrorResponse
// @Router       /resources/{id} [get]
func (s *Server) handleGetResource(w http.ResponseWriter, r *http.Request) {
	resource, err := s.resourceService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resource)
}

// handleGetResourceChunks godoc
// @Summary      Get resource chunks
// @Description  Returns the chunk list; empty until extraction completes
// @Tags         Resources
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Resource ID"
// @Success      200  {object}  ChunksResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /resources/{id}/chunks [get]
func (s *Server) handleGetResourceChunks(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	chunks, err := s.resourceService.Chunks(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ChunksResponse{ResourceID: id, Chunks: chunks})
}

// handleGetResourceContent godoc
// @Summary      Get content artifact
// @Description  Returns the structured JSON artifact once it has been created
// @Tags         Resources
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Resource ID"
// @Success      200  {object}  object
// @Failure      404  {object}  ErrorResponse  "Resource missing or artifact not created"
// @Router       /resources/{id}/content [get]
func (s *Server) handleGetResourceContent(w http.ResponseWriter, r *http.Request) {
	content, err := s.resourceService.Content(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

// Admin endpoints

// handleQueueStats godoc
// @Summary      Task queue statistics
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  driven.QueueStats
// @Failure      403  {object}  ErrorResponse
// @Router       /admin/queue [get]
func (s *Server) handleQueueStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.adminService.QueueStats(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Helper functions

// writeServiceError maps domain errors onto status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnsupportedType):
		writeError(w, http.StatusUnsupportedMediaType, "only PDF files are accepted")
	case errors.Is(err, domain.ErrFileTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrQueueFull), errors.Is(err, domain.ErrQueueUnavailable):
		writeError(w, http.StatusServiceUnavailable, "processing queue unavailable, retry later")
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func queryInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
