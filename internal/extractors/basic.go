package extractors

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/lectern/internal/chunking"
	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Extractor = (*Basic)(nil)

// PDFTextReader pulls plain text and the page count out of PDF bytes.
type PDFTextReader func(data []byte) (text string, pages int, err error)

// Basic is the in-process fallback tier: plain text from the PDF content
// streams, chunked locally.
type Basic struct {
	chunker *chunking.Chunker
	read    PDFTextReader
}

// NewBasic creates the basic tier. A nil reader selects ReadPDFText.
func NewBasic(chunker *chunking.Chunker, read PDFTextReader) *Basic {
	if chunker == nil {
		chunker = chunking.NewChunker(nil)
	}
	if read == nil {
		read = ReadPDFText
	}
	return &Basic{chunker: chunker, read: read}
}

// Name returns "basic".
func (b *Basic) Name() string { return string(domain.ProcessingMethodBasic) }

// SupportedTypes returns the PDF MIME type.
func (b *Basic) SupportedTypes() []string { return []string{"application/pdf"} }

// Priority returns 10.
func (b *Basic) Priority() int { return 10 }

// Extract reads the whole file and chunks its text. On error the returned
// result is domain.FailedExtraction alongside the error.
func (b *Basic) Extract(ctx context.Context, path string) (result *domain.ExtractionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = domain.FailedExtraction(), fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.FailedExtraction(), fmt.Errorf("read file: %w", err)
	}

	text, pages, err := b.read(data)
	if err != nil {
		return domain.FailedExtraction(), fmt.Errorf("parse pdf: %w", err)
	}
	text = sanitizeText(text)

	return &domain.ExtractionResult{
		ExtractedText:    text,
		TextChunks:       b.chunker.Chunk(text, pages),
		PageCount:        pages,
		WordCount:        chunking.WordCount(text),
		Status:           domain.ExtractionStatusCompleted,
		ProcessingMethod: domain.ProcessingMethodBasic,
	}, nil
}

// ReadPDFText extracts text page by page. Pages that fail to decode are
// skipped; each page is followed by a newline.
func ReadPDFText(data []byte) (string, int, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, err
	}

	var sb strings.Builder
	pages := r.NumPage()
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String()), pages, nil
}

// sanitizeText drops NUL bytes and replaces invalid UTF-8, neither of which
// Postgres accepts in TEXT or JSONB columns.
func sanitizeText(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}
