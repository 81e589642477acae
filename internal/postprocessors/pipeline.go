package postprocessors

import (
	"sort"
	"sync"

	"github.com/custodia-labs/lectern/internal/chunking"
	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ChunkPipeline = (*Pipeline)(nil)

// Pipeline implements ChunkPipeline.
// It runs each processor over the full chunk list in Order.
type Pipeline struct {
	mu         sync.RWMutex
	processors []driven.ChunkProcessor
	sorted     bool
}

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{
		processors: make([]driven.ChunkProcessor, 0),
	}
}

// Add adds a processor to the pipeline.
// Processors are sorted by Order() before processing.
func (p *Pipeline) Add(processor driven.ChunkProcessor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processors = append(p.processors, processor)
	p.sorted = false
}

// Process applies all processors in order. The input slice is not modified.
func (p *Pipeline) Process(chunks []domain.Chunk) []domain.Chunk {
	p.mu.Lock()
	if !p.sorted {
		sort.SliceStable(p.processors, func(i, j int) bool {
			return p.processors[i].Order() < p.processors[j].Order()
		})
		p.sorted = true
	}
	processors := make([]driven.ChunkProcessor, len(p.processors))
	copy(processors, p.processors)
	p.mu.Unlock()

	out := make([]domain.Chunk, len(chunks))
	copy(out, chunks)

	for _, proc := range processors {
		out = proc.Process(out)
	}
	return out
}

// List returns processor names in order.
func (p *Pipeline) List() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = proc.Name()
	}
	return names
}

// DefaultPipeline creates a pipeline with keyword tagging and content
// classification driven by rules.
func DefaultPipeline(rules *chunking.Rules) *Pipeline {
	p := NewPipeline()
	p.Add(NewKeywordTagger(chunking.NewKeywordExtractor(rules)))
	p.Add(NewContentClassifier())
	return p
}

// KeywordTagger fills in keywords for chunks that have none.
type KeywordTagger struct {
	extractor *chunking.KeywordExtractor
}

// Verify interface compliance
var _ driven.ChunkProcessor = (*KeywordTagger)(nil)

// NewKeywordTagger creates a tagger backed by extractor.
func NewKeywordTagger(extractor *chunking.KeywordExtractor) *KeywordTagger {
	return &KeywordTagger{extractor: extractor}
}

// Process sets Keywords on every chunk whose Keywords are empty.
func (k *KeywordTagger) Process(chunks []domain.Chunk) []domain.Chunk {
	for i := range chunks {
		if len(chunks[i].Keywords) > 0 {
			continue
		}
		chunks[i].Keywords = k.extractor.Extract(chunks[i].Content)
	}
	return chunks
}

// Name returns the processor name.
func (k *KeywordTagger) Name() string {
	return "keyword-tagger"
}

// Order returns 10.
func (k *KeywordTagger) Order() int {
	return 10
}

// ContentClassifier labels each chunk with its layout class.
type ContentClassifier struct{}

// Verify interface compliance
var _ driven.ChunkProcessor = (*ContentClassifier)(nil)

// NewContentClassifier creates a content classifier.
func NewContentClassifier() *ContentClassifier {
	return &ContentClassifier{}
}

// Process sets ContentKind on every chunk that has none.
func (c *ContentClassifier) Process(chunks []domain.Chunk) []domain.Chunk {
	for i := range chunks {
		if chunks[i].ContentKind == "" {
			chunks[i].ContentKind = chunking.Classify(chunks[i].Content)
		}
	}
	return chunks
}

// Name returns the processor name.
func (c *ContentClassifier) Name() string {
	return "content-classifier"
}

// Order returns 20 - classification runs after tagging.
func (c *ContentClassifier) Order() int {
	return 20
}
