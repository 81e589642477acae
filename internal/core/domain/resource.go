package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// ExtractionStatus is the life-cycle state of a resource's text extraction.
type ExtractionStatus string

const (
	ExtractionStatusPending    ExtractionStatus = "pending"
	ExtractionStatusProcessing ExtractionStatus = "processing"
	ExtractionStatusCompleted  ExtractionStatus = "completed"
	ExtractionStatusFailed     ExtractionStatus = "failed"
)

// extractionTransitions lists the allowed next states for each extraction state.
// Terminal states have no entry.
var extractionTransitions = map[ExtractionStatus][]ExtractionStatus{
	ExtractionStatusPending:    {ExtractionStatusProcessing},
	ExtractionStatusProcessing: {ExtractionStatusCompleted, ExtractionStatusFailed},
}

// CanTransitionTo reports whether the extraction state machine allows s -> next.
func (s ExtractionStatus) CanTransitionTo(next ExtractionStatus) bool {
	for _, allowed := range extractionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further extraction transitions are possible.
func (s ExtractionStatus) IsTerminal() bool {
	return len(extractionTransitions[s]) == 0
}

// IsValid reports whether s is a known extraction state.
func (s ExtractionStatus) IsValid() bool {
	switch s {
	case ExtractionStatusPending, ExtractionStatusProcessing, ExtractionStatusCompleted, ExtractionStatusFailed:
		return true
	}
	return false
}

// JSONFileStatus is the life-cycle state of a resource's content artifact.
type JSONFileStatus string

const (
	JSONFileStatusPending JSONFileStatus = "pending"
	JSONFileStatusCreated JSONFileStatus = "created"
	JSONFileStatusFailed  JSONFileStatus = "failed"
)

var jsonFileTransitions = map[JSONFileStatus][]JSONFileStatus{
	JSONFileStatusPending: {JSONFileStatusCreated, JSONFileStatusFailed},
}

// CanTransitionTo reports whether the artifact state machine allows s -> next.
func (s JSONFileStatus) CanTransitionTo(next JSONFileStatus) bool {
	for _, allowed := range jsonFileTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further artifact transitions are possible.
func (s JSONFileStatus) IsTerminal() bool {
	return len(jsonFileTransitions[s]) == 0
}

// IsValid reports whether s is a known artifact state.
func (s JSONFileStatus) IsValid() bool {
	switch s {
	case JSONFileStatusPending, JSONFileStatusCreated, JSONFileStatusFailed:
		return true
	}
	return false
}

// ArtifactSuffix replaces the source file extension to form the artifact path.
const ArtifactSuffix = "_content.json"

// EnhancedOutputSuffix replaces the source file extension to form the path the
// enhanced extractor writes its own document to.
const EnhancedOutputSuffix = "_enhanced.json"

// Resource is one uploaded document and its ingestion state.
type Resource struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	FilePath   string    `json:"filePath"`
	FileSize   int64     `json:"fileSize"`
	MimeType   string    `json:"mimeType"`
	SubjectID  string    `json:"subjectId"`
	UploadedBy string    `json:"uploadedBy"`
	UploadDate time.Time `json:"uploadDate"`

	ExtractionStatus ExtractionStatus `json:"extractionStatus"`
	ExtractionDate   *time.Time       `json:"extractionDate,omitempty"`
	PageCount        int              `json:"pageCount"`
	WordCount        int              `json:"wordCount"`
	ExtractedText    string           `json:"extractedText,omitempty"`
	TextChunks       []Chunk          `json:"textChunks,omitempty"`
	ProcessingMethod ProcessingMethod `json:"processingMethod,omitempty"`

	JSONFileStatus JSONFileStatus `json:"jsonFileStatus"`
	JSONFilePath   string         `json:"jsonFilePath,omitempty"`
}

// NewResource creates a resource record for a freshly stored upload.
// Both state machines start in pending.
func NewResource(id, fileName, filePath string, fileSize int64, mimeType, subjectID, uploadedBy string) *Resource {
	return &Resource{
		ID:               id,
		FileName:         fileName,
		FilePath:         filePath,
		FileSize:         fileSize,
		MimeType:         mimeType,
		SubjectID:        subjectID,
		UploadedBy:       uploadedBy,
		UploadDate:       time.Now().UTC(),
		ExtractionStatus: ExtractionStatusPending,
		JSONFileStatus:   JSONFileStatusPending,
	}
}

// TransitionExtraction moves the extraction state machine, refusing illegal moves.
func (r *Resource) TransitionExtraction(next ExtractionStatus) error {
	if !r.ExtractionStatus.CanTransitionTo(next) {
		return fmt.Errorf("extraction %s -> %s: %w", r.ExtractionStatus, next, ErrInvalidTransition)
	}
	r.ExtractionStatus = next
	return nil
}

// TransitionJSONFile moves the artifact state machine, refusing illegal moves.
func (r *Resource) TransitionJSONFile(next JSONFileStatus) error {
	if !r.JSONFileStatus.CanTransitionTo(next) {
		return fmt.Errorf("json file %s -> %s: %w", r.JSONFileStatus, next, ErrInvalidTransition)
	}
	r.JSONFileStatus = next
	return nil
}

// ApplyExtraction copies an extraction result onto the resource and resolves
// the extraction state machine to the result's status.
func (r *Resource) ApplyExtraction(result *ExtractionResult, at time.Time) error {
	if err := r.TransitionExtraction(result.Status); err != nil {
		return err
	}
	r.ExtractionDate = &at
	r.PageCount = result.PageCount
	r.WordCount = result.WordCount
	r.ExtractedText = result.ExtractedText
	r.TextChunks = result.TextChunks
	r.ProcessingMethod = result.ProcessingMethod
	return nil
}

// ArtifactPath derives the content artifact path from the stored file path.
func ArtifactPath(filePath string) string {
	return swapExtension(filePath, ArtifactSuffix)
}

// EnhancedOutputPath derives the enhanced extractor output path from the stored file path.
func EnhancedOutputPath(filePath string) string {
	return swapExtension(filePath, EnhancedOutputSuffix)
}

func swapExtension(filePath, suffix string) string {
	ext := filepath.Ext(filePath)
	return strings.TrimSuffix(filePath, ext) + suffix
}

// ExtractionUpdate is the field group written when extraction resolves.
type ExtractionUpdate struct {
	Status           ExtractionStatus
	ExtractionDate   *time.Time
	PageCount        int
	WordCount        int
	ExtractedText    string
	TextChunks       []Chunk
	ProcessingMethod ProcessingMethod
}

// ResourceFilter specifies criteria for listing resources
type ResourceFilter struct {
	SubjectID        string
	ExtractionStatus ExtractionStatus
	Limit            int
	Offset           int
}
