package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/lectern/internal/postprocessors"
)

var fixedClock = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) }

func basicResult(chunks []domain.Chunk, pages, words int, text string) *domain.ExtractionResult {
	return &domain.ExtractionResult{
		ExtractedText:    text,
		TextChunks:       chunks,
		PageCount:        pages,
		WordCount:        words,
		Status:           domain.ExtractionStatusCompleted,
		ProcessingMethod: domain.ProcessingMethodBasic,
	}
}

func TestArtifactAssembler_StandardDocument(t *testing.T) {
	a := NewArtifactAssembler(ArtifactAssemblerConfig{
		Pipeline: postprocessors.DefaultPipeline(nil),
		Clock:    fixedClock,
	})
	resource := domain.NewResource("res-1", "cells.pdf", "/uploads/res-1/cells.pdf", 2048, "application/pdf", "bio-101", "user-1")

	chunks := []domain.Chunk{
		{ID: 1, Section: 1, Content: "Cells divide. Cells grow and cells die.", WordCount: 120, Type: domain.ChunkTypeSection, Summary: "one"},
		{ID: 2, Section: 2, Content: "MITOSIS", WordCount: 130, Type: domain.ChunkTypeSection, Summary: "two"},
		{ID: 3, Section: 3, Content: "plain", WordCount: 101, Type: domain.ChunkTypeParagraphGroup, Summary: "three"},
		{ID: 4, Section: 4, Content: "more", WordCount: 150, Type: domain.ChunkTypeSection, Summary: "four"},
	}
	result := basicResult(chunks, 2, 501, "The cell and the nucleus of the cell in the body.")

	artifact := a.Assemble(resource, result)
	require.NotNil(t, artifact.Standard)
	assert.Nil(t, artifact.Enhanced)

	doc := artifact.Standard
	assert.Equal(t, "res-1", doc.Resource.ID)
	assert.Equal(t, "bio-101", doc.Resource.SubjectID)
	assert.Equal(t, 4, doc.Resource.TotalChunks)
	assert.Equal(t, 501, doc.Resource.TotalWords)
	assert.Equal(t, domain.ProcessingMethodBasic, doc.Resource.ProcessingMethod)

	assert.Equal(t, map[domain.ChunkType]int{
		domain.ChunkTypeSection:        3,
		domain.ChunkTypeParagraphGroup: 1,
	}, doc.Summary.ChunkTypes)
	assert.Equal(t, 125, doc.Summary.AverageWordsPerChunk)
	assert.Equal(t, "one | two | three", doc.Summary.ContentOverview)
	assert.Equal(t, 80, doc.Summary.ExtractionQuality.Score)
	assert.Equal(t, "good", doc.Summary.ExtractionQuality.Level)
	assert.Equal(t, 250.5, doc.Summary.ExtractionQuality.WordsPerPage)
	assert.Empty(t, doc.Summary.ExtractionQuality.Notes)

	// The pipeline tags and classifies the chunks.
	assert.Equal(t, "cells", doc.Chunks[0].Keywords[0].Word)
	assert.Equal(t, domain.ContentKindHeader, doc.Chunks[1].ContentKind)

	assert.Equal(t, int64(2048), doc.Metadata.FileSize)
	assert.Equal(t, "user-1", doc.Metadata.UploadedBy)
	assert.Equal(t, domain.ProcessingNote, doc.Metadata.ProcessingNote)

	assert.Equal(t, fixedClock(), doc.ProcessingNotes.Timestamp)
	assert.Equal(t, "en", doc.ProcessingNotes.LanguageDetected)
	assert.True(t, doc.ProcessingNotes.FallbackMode)
	assert.False(t, doc.ProcessingNotes.SpecialContent.HasTables)
}

func TestArtifactAssembler_SparseDocument(t *testing.T) {
	a := NewArtifactAssembler(ArtifactAssemblerConfig{Clock: fixedClock})
	resource := domain.NewResource("res-2", "scan.pdf", "/uploads/res-2/scan.pdf", 10, "application/pdf", "bio-101", "user-1")

	doc := a.Assemble(resource, basicResult(nil, 4, 12, "")).Standard

	require.NotNil(t, doc)
	assert.NotNil(t, doc.Chunks)
	assert.Empty(t, doc.Chunks)
	assert.Equal(t, 0, doc.Summary.AverageWordsPerChunk)
	assert.Equal(t, "", doc.Summary.ContentOverview)
	assert.Equal(t, 40, doc.Summary.ExtractionQuality.Score)
	assert.Equal(t, "fair", doc.Summary.ExtractionQuality.Level)
	assert.Equal(t, 3.0, doc.Summary.ExtractionQuality.WordsPerPage)
	assert.Equal(t, []string{noteLowTextDensity, noteNoChunks}, doc.Summary.ExtractionQuality.Notes)
	assert.Equal(t, "unknown", doc.ProcessingNotes.LanguageDetected)
}

func TestArtifactAssembler_EnhancedDocument(t *testing.T) {
	a := NewArtifactAssembler(ArtifactAssemblerConfig{Clock: fixedClock})
	resource := domain.NewResource("res-3", "atoms.pdf", "/uploads/res-3/atoms.pdf", 10, "application/pdf", "chem-1", "user-9")
	resource.UploadDate = time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)

	external := map[string]any{
		"resource": map[string]any{"id": "temp", "fileName": "tmp.pdf", "totalPages": float64(3)},
		"chunks":   []any{map[string]any{"content": "Atoms"}},
		"layout":   "two-column",
	}
	result := &domain.ExtractionResult{
		Status:           domain.ExtractionStatusCompleted,
		ProcessingMethod: domain.ProcessingMethodEnhanced,
		Document:         external,
	}

	artifact := a.Assemble(resource, result)
	assert.Nil(t, artifact.Standard)
	require.NotNil(t, artifact.Enhanced)

	block := artifact.Enhanced["resource"].(map[string]any)
	assert.Equal(t, "res-3", block["id"])
	assert.Equal(t, "atoms.pdf", block["fileName"])
	assert.Equal(t, "chem-1", block["subjectId"])
	assert.Equal(t, "user-9", block["uploadedBy"])
	assert.Equal(t, "2024-02-29T12:00:00Z", block["uploadDate"])
	assert.Equal(t, float64(3), block["totalPages"])
	assert.Equal(t, "two-column", artifact.Enhanced["layout"])

	// The extractor's own document is left untouched.
	assert.Equal(t, "temp", external["resource"].(map[string]any)["id"])
}

func TestArtifactAssembler_Write(t *testing.T) {
	writer := mocks.NewMockArtifactWriter()
	a := NewArtifactAssembler(ArtifactAssemblerConfig{Writer: writer, Clock: fixedClock})
	resource := domain.NewResource("res-4", "notes.pdf", "/uploads/res-4/notes.pdf", 10, "application/pdf", "s", "u")

	artifact := a.Assemble(resource, basicResult([]domain.Chunk{}, 1, 5, "five words in this text"))
	require.NoError(t, a.Write(context.Background(), "/uploads/res-4/notes_content.json", artifact))

	decoded, ok := writer.Decoded("/uploads/res-4/notes_content.json")
	require.True(t, ok)
	assert.Contains(t, decoded, "processingNotes")

	writer.WriteFn = func(string, any) error { return errors.New("disk full") }
	err := a.Write(context.Background(), "/uploads/res-4/notes_content.json", artifact)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "disk full"))
}
