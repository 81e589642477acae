package extractors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/custodia-labs/lectern/internal/chunking"
	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Extractor = (*Enhanced)(nil)

// DefaultEnhancedTimeout bounds one run of the external extractor.
const DefaultEnhancedTimeout = 5 * time.Minute

// EnhancedConfig holds configuration for the enhanced tier.
type EnhancedConfig struct {
	// Command is the program followed by any fixed leading arguments,
	// e.g. ["python3", "pdf_processor.py"]. The input path, "-o" and the
	// output path are appended.
	Command []string
	Timeout time.Duration
	Runner  driven.CommandRunner
	Logger  *slog.Logger
}

// Enhanced delegates extraction to an external layout-aware program that
// writes its own JSON document next to the upload.
type Enhanced struct {
	command []string
	timeout time.Duration
	runner  driven.CommandRunner
	logger  *slog.Logger
}

// NewEnhanced creates the enhanced tier.
func NewEnhanced(cfg EnhancedConfig) (*Enhanced, error) {
	if len(cfg.Command) == 0 || strings.TrimSpace(cfg.Command[0]) == "" {
		return nil, fmt.Errorf("enhanced extractor command is empty: %w", domain.ErrInvalidInput)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultEnhancedTimeout
	}
	runner := cfg.Runner
	if runner == nil {
		runner = NewExecRunner(logger)
	}
	return &Enhanced{
		command: append([]string(nil), cfg.Command...),
		timeout: timeout,
		runner:  runner,
		logger:  logger,
	}, nil
}

// Name returns "enhanced".
func (e *Enhanced) Name() string { return string(domain.ProcessingMethodEnhanced) }

// SupportedTypes returns the PDF MIME type.
func (e *Enhanced) SupportedTypes() []string { return []string{"application/pdf"} }

// Priority returns 90.
func (e *Enhanced) Priority() int { return 90 }

// Extract runs the external program and parses its output document. The run
// counts as successful only if the program exits 0 and the output file exists.
// The output file is left in place.
func (e *Enhanced) Extract(ctx context.Context, path string) (*domain.ExtractionResult, error) {
	outPath := domain.EnhancedOutputPath(path)

	// A stale document from an earlier run must not pass for fresh output.
	if err := os.Remove(outPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("clear previous output: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	args := append(append([]string(nil), e.command[1:]...), path, "-o", outPath)
	res, err := e.runner.Run(runCtx, e.command[0], args...)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("enhanced extractor exited with status %d", res.ExitCode)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("enhanced extractor output: %w", err)
	}
	return ParseEnhancedDocument(data)
}

// ParseEnhancedDocument converts the external document into a result. Chunk
// fields are remapped to the local names; ids are renumbered from 1.
func ParseEnhancedDocument(data []byte) (result *domain.ExtractionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("parse enhanced document: %v", r)
		}
	}()

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode enhanced document: %w", err)
	}
	if msg, ok := doc["error"].(string); ok && msg != "" {
		return nil, fmt.Errorf("enhanced extractor reported: %s", msg)
	}

	rawChunks, ok := doc["chunks"].([]any)
	if !ok {
		return nil, errors.New("enhanced document has no chunks array")
	}

	chunks := make([]domain.Chunk, 0, len(rawChunks))
	contents := make([]string, 0, len(rawChunks))
	words := 0
	for i, raw := range rawChunks {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("chunk %d is not an object", i)
		}
		c := parseEnhancedChunk(m)
		if strings.TrimSpace(c.Content) == "" {
			continue
		}
		c.ID = len(chunks) + 1
		words += c.WordCount
		chunks = append(chunks, c)
		contents = append(contents, c.Content)
	}

	resource, _ := doc["resource"].(map[string]any)
	pages, _ := intField(resource, "totalPages")
	if total, ok := intField(resource, "totalWords"); ok {
		words = total
	}

	return &domain.ExtractionResult{
		ExtractedText:    strings.Join(contents, "\n\n"),
		TextChunks:       chunks,
		PageCount:        pages,
		WordCount:        words,
		Status:           domain.ExtractionStatusCompleted,
		ProcessingMethod: domain.ProcessingMethodEnhanced,
		Document:         doc,
	}, nil
}

func parseEnhancedChunk(m map[string]any) domain.Chunk {
	content, _ := m["content"].(string)
	c := domain.Chunk{Content: content}

	if n, ok := intField(m, "word_count", "wordCount"); ok {
		c.WordCount = n
	} else {
		c.WordCount = chunking.WordCount(content)
	}
	if t, ok := stringField(m, "content_type", "type"); ok {
		c.Type = domain.ChunkType(t)
	}
	if page, ok := intField(m, "page_number", "pageNumber"); ok {
		c.PageNumber = page
	}
	if s, ok := intField(m, "section"); ok {
		c.Section = s
	} else {
		c.Section = c.PageNumber
	}
	if s, ok := stringField(m, "summary"); ok && s != "" {
		c.Summary = s
	} else {
		c.Summary = chunking.Summarize(content)
	}
	if conf, ok := m["confidence"].(float64); ok {
		c.Confidence = conf
	}
	if kws, ok := m["keywords"].([]any); ok {
		for _, k := range kws {
			km, ok := k.(map[string]any)
			if !ok {
				continue
			}
			word, _ := km["word"].(string)
			freq, _ := intField(km, "frequency", "count")
			if word != "" {
				c.Keywords = append(c.Keywords, domain.KeywordEntry{Word: word, Frequency: freq})
			}
		}
	}
	return c
}

// intField returns the first numeric value among keys.
func intField(m map[string]any, keys ...string) (int, bool) {
	for _, k := range keys {
		if v, ok := m[k].(float64); ok {
			return int(v), true
		}
	}
	return 0, false
}

// stringField returns the first string value among keys.
func stringField(m map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := m[k].(string); ok {
			return v, true
		}
	}
	return "", false
}
