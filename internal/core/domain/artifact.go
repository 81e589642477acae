package domain

import "time"

// ProcessingNote is the fixed note recorded in standard artifacts.
const ProcessingNote = "Extracted with the built-in PDF text parser and heuristic chunking"

// Artifact is the downstream-consumable content document for one resource.
// Exactly one of Standard or Enhanced is set.
type Artifact struct {
	Standard *ArtifactDocument
	Enhanced map[string]any
}

// Body returns the value to serialize.
func (a *Artifact) Body() any {
	if a.Enhanced != nil {
		return a.Enhanced
	}
	return a.Standard
}

// ArtifactDocument is the standard artifact shape built from basic-tier results.
type ArtifactDocument struct {
	Resource        ArtifactResource `json:"resource"`
	Summary         ArtifactSummary  `json:"summary"`
	Chunks          []Chunk          `json:"chunks"`
	Metadata        ArtifactMetadata `json:"metadata"`
	ProcessingNotes ProcessingNotes  `json:"processingNotes"`
}

// ArtifactResource identifies the resource the artifact describes.
type ArtifactResource struct {
	ID               string           `json:"id"`
	FileName         string           `json:"fileName"`
	SubjectID        string           `json:"subjectId"`
	MimeType         string           `json:"mimeType"`
	ExtractionDate   *time.Time       `json:"extractionDate,omitempty"`
	TotalPages       int              `json:"totalPages"`
	TotalWords       int              `json:"totalWords"`
	TotalChunks      int              `json:"totalChunks"`
	ProcessingMethod ProcessingMethod `json:"processingMethod"`
}

// ArtifactSummary aggregates chunk statistics.
type ArtifactSummary struct {
	ChunkTypes           map[ChunkType]int   `json:"chunkTypes"`
	ContentKinds         map[ContentKind]int `json:"contentKinds"`
	AverageWordsPerChunk int                 `json:"averageWordsPerChunk"`
	ContentOverview      string              `json:"contentOverview"`
	ExtractionQuality    ExtractionQuality   `json:"extractionQuality"`
}

// ExtractionQuality is a coarse heuristic rating of the extracted text.
type ExtractionQuality struct {
	Score        int      `json:"score"`
	Level        string   `json:"level"`
	WordsPerPage float64  `json:"wordsPerPage"`
	Notes        []string `json:"notes"`
}

// ArtifactMetadata carries upload facts.
type ArtifactMetadata struct {
	FileSize       int64     `json:"fileSize"`
	UploadDate     time.Time `json:"uploadDate"`
	UploadedBy     string    `json:"uploadedBy"`
	ProcessingNote string    `json:"processingNote"`
}

// ProcessingNotes records how the content was produced.
type ProcessingNotes struct {
	Timestamp        time.Time      `json:"timestamp"`
	LanguageDetected string         `json:"languageDetected"`
	SpecialContent   SpecialContent `json:"specialContent"`
	FallbackMode     bool           `json:"fallbackMode"`
}

// SpecialContent flags non-prose content found in the text.
type SpecialContent struct {
	HasTables bool `json:"hasTables"`
}
