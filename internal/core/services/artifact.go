package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/custodia-labs/lectern/internal/chunking"
	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

const (
	overviewSummaries  = 3
	goodQualityWords   = 100
	lowDensityPerPage  = 50.0
	overviewSeparator  = " | "
	qualityLevelGood   = "good"
	qualityLevelFair   = "fair"
	qualityScoreGood   = 80
	qualityScoreFair   = 40
	noteNoChunks       = "no chunks produced"
	noteLowTextDensity = "low text density; the document may be scanned"
)

// ArtifactAssembler builds and writes the per-resource content document.
type ArtifactAssembler struct {
	pipeline driven.ChunkPipeline
	writer   driven.ArtifactWriter
	now      func() time.Time
}

// ArtifactAssemblerConfig holds configuration for the assembler.
type ArtifactAssemblerConfig struct {
	Pipeline driven.ChunkPipeline
	Writer   driven.ArtifactWriter
	// Clock defaults to time.Now in UTC.
	Clock func() time.Time
}

// NewArtifactAssembler creates an assembler.
func NewArtifactAssembler(cfg ArtifactAssemblerConfig) *ArtifactAssembler {
	now := cfg.Clock
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &ArtifactAssembler{
		pipeline: cfg.Pipeline,
		writer:   cfg.Writer,
		now:      now,
	}
}

// Assemble builds the artifact for a resolved extraction, failed or not.
// Enhanced results reuse the external document with identity fields
// overwritten; all others get the standard document.
func (a *ArtifactAssembler) Assemble(resource *domain.Resource, result *domain.ExtractionResult) *domain.Artifact {
	if result.IsEnhanced() {
		return &domain.Artifact{Enhanced: enhancedDocument(resource, result.Document)}
	}
	return &domain.Artifact{Standard: a.standardDocument(resource, result)}
}

// Write persists the artifact body at path.
func (a *ArtifactAssembler) Write(ctx context.Context, path string, artifact *domain.Artifact) error {
	if err := a.writer.Write(ctx, path, artifact.Body()); err != nil {
		return fmt.Errorf("write artifact %s: %w", path, err)
	}
	return nil
}

func enhancedDocument(resource *domain.Resource, doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc)+1)
	for k, v := range doc {
		out[k] = v
	}

	block := make(map[string]any)
	if existing, ok := doc["resource"].(map[string]any); ok {
		for k, v := range existing {
			block[k] = v
		}
	}
	block["id"] = resource.ID
	block["fileName"] = resource.FileName
	block["subjectId"] = resource.SubjectID
	block["uploadedBy"] = resource.UploadedBy
	block["uploadDate"] = resource.UploadDate.Format(time.RFC3339)
	out["resource"] = block
	return out
}

func (a *ArtifactAssembler) standardDocument(resource *domain.Resource, result *domain.ExtractionResult) *domain.ArtifactDocument {
	chunks := result.TextChunks
	if a.pipeline != nil {
		chunks = a.pipeline.Process(chunks)
	}
	if chunks == nil {
		chunks = []domain.Chunk{}
	}

	return &domain.ArtifactDocument{
		Resource: domain.ArtifactResource{
			ID:               resource.ID,
			FileName:         resource.FileName,
			SubjectID:        resource.SubjectID,
			MimeType:         resource.MimeType,
			ExtractionDate:   resource.ExtractionDate,
			TotalPages:       result.PageCount,
			TotalWords:       result.WordCount,
			TotalChunks:      len(chunks),
			ProcessingMethod: result.ProcessingMethod,
		},
		Summary: summarize(chunks, result),
		Chunks:  chunks,
		Metadata: domain.ArtifactMetadata{
			FileSize:       resource.FileSize,
			UploadDate:     resource.UploadDate,
			UploadedBy:     resource.UploadedBy,
			ProcessingNote: domain.ProcessingNote,
		},
		ProcessingNotes: domain.ProcessingNotes{
			Timestamp:        a.now(),
			LanguageDetected: chunking.DetectLanguage(result.ExtractedText),
			SpecialContent:   domain.SpecialContent{HasTables: chunking.HasTables(result.ExtractedText)},
			FallbackMode:     result.ProcessingMethod != domain.ProcessingMethodEnhanced,
		},
	}
}

func summarize(chunks []domain.Chunk, result *domain.ExtractionResult) domain.ArtifactSummary {
	types := make(map[domain.ChunkType]int)
	kinds := make(map[domain.ContentKind]int)
	totalWords := 0
	var summaries []string

	for i, c := range chunks {
		types[c.Type]++
		if c.ContentKind != "" {
			kinds[c.ContentKind]++
		}
		totalWords += c.WordCount
		if i < overviewSummaries {
			summaries = append(summaries, c.Summary)
		}
	}

	avg := 0
	if len(chunks) > 0 {
		avg = int(math.Round(float64(totalWords) / float64(len(chunks))))
	}

	return domain.ArtifactSummary{
		ChunkTypes:           types,
		ContentKinds:         kinds,
		AverageWordsPerChunk: avg,
		ContentOverview:      strings.Join(summaries, overviewSeparator),
		ExtractionQuality:    assessQuality(len(chunks), result),
	}
}

func assessQuality(chunkCount int, result *domain.ExtractionResult) domain.ExtractionQuality {
	q := domain.ExtractionQuality{
		Score: qualityScoreFair,
		Level: qualityLevelFair,
		Notes: []string{},
	}
	if result.WordCount > goodQualityWords {
		q.Score = qualityScoreGood
		q.Level = qualityLevelGood
	}

	if result.PageCount > 0 {
		q.WordsPerPage = math.Round(float64(result.WordCount)/float64(result.PageCount)*10) / 10
		if q.WordsPerPage < lowDensityPerPage {
			q.Notes = append(q.Notes, noteLowTextDensity)
		}
	}
	if chunkCount == 0 {
		q.Notes = append(q.Notes, noteNoChunks)
	}
	return q
}
