// Package chunking splits extracted document text into bounded, ordered
// chunks and derives keywords and summaries from them.
//
// Chunking escalates through three strategies. Heading patterns are tried
// first; when they find three sections or fewer the text is split on blank
// line clusters instead. Sections are emitted whole when they fit, grouped by
// paragraph when too long, and dropped when too short. If fewer than three
// chunks survive, everything is discarded and the text is cut into fixed word
// windows that cover every word.
package chunking

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

var (
	// blankLineClusters separates sections when no structure is found.
	blankLineClusters = regexp.MustCompile(`\n\s*\n\s*\n`)
	// paragraphBreak separates paragraphs inside an oversized section.
	paragraphBreak = regexp.MustCompile(`\n\s*\n`)
)

const (
	// minStructuralSections is the section count the heading pass must beat.
	minStructuralSections = 3
	// minChunks is the chunk count below which word windows take over.
	minChunks = 3
)

// Chunker turns raw text into chunks. It holds no mutable state.
type Chunker struct {
	rules *Rules
}

// NewChunker creates a chunker. A nil rules value selects DefaultRules.
func NewChunker(rules *Rules) *Chunker {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Chunker{rules: rules}
}

// Rules returns the rules the chunker was built with.
func (c *Chunker) Rules() *Rules {
	return c.rules
}

// Chunk splits text into ordered chunks with sequential ids and summaries.
// pageCount is accepted for callers that track it; the split depends on the
// text alone. Whitespace-only text yields no chunks.
func (c *Chunker) Chunk(text string, pageCount int) []domain.Chunk {
	if strings.TrimSpace(text) == "" {
		return []domain.Chunk{}
	}

	sections := c.structuralSections(text)
	if len(sections) <= minStructuralSections {
		sections = nonBlank(blankLineClusters.Split(text, -1))
	}

	chunks := c.emitSections(sections)
	if len(chunks) < minChunks {
		chunks = c.wordWindows(text)
	}

	for i := range chunks {
		chunks[i].ID = i + 1
		chunks[i].Summary = Summarize(chunks[i].Content)
	}
	return chunks
}

// structuralSections applies each heading pattern in turn, keeping a split
// only when it strictly increases the number of non-empty sections.
func (c *Chunker) structuralSections(text string) []string {
	sections := []string{text}
	for _, re := range c.rules.headings {
		var next []string
		for _, s := range sections {
			next = append(next, splitBefore(re, s)...)
		}
		if len(next) > len(sections) {
			sections = next
		}
	}
	return sections
}

// emitSections applies the size rules to each section in order.
func (c *Chunker) emitSections(sections []string) []domain.Chunk {
	var chunks []domain.Chunk
	for i, section := range sections {
		sectionIndex := i + 1
		words := len(strings.Fields(section))

		switch {
		case words > c.rules.maxChunkSize:
			chunks = append(chunks, c.groupParagraphs(section, sectionIndex)...)
		case words >= c.rules.minChunkSize:
			chunks = append(chunks, domain.Chunk{
				Section:   sectionIndex,
				Content:   strings.TrimSpace(section),
				WordCount: words,
				Type:      domain.ChunkTypeSection,
			})
		}
	}
	return chunks
}

// groupParagraphs packs the paragraphs of an oversized section greedily.
// Buffers flushed because the next paragraph does not fit are always kept;
// the trailing buffer is kept only if it reaches the minimum size.
func (c *Chunker) groupParagraphs(section string, sectionIndex int) []domain.Chunk {
	var (
		chunks    []domain.Chunk
		buffer    []string
		bufferLen int
	)

	flush := func() {
		chunks = append(chunks, domain.Chunk{
			Section:   sectionIndex,
			Content:   strings.Join(buffer, "\n\n"),
			WordCount: bufferLen,
			Type:      domain.ChunkTypeParagraphGroup,
		})
		buffer = nil
		bufferLen = 0
	}

	for _, p := range paragraphBreak.Split(section, -1) {
		p = strings.TrimSpace(p)
		n := len(strings.Fields(p))
		if n == 0 {
			continue
		}
		if bufferLen+n > c.rules.maxChunkSize && len(buffer) > 0 {
			flush()
		}
		buffer = append(buffer, p)
		bufferLen += n
	}

	if len(buffer) > 0 && bufferLen >= c.rules.minChunkSize {
		flush()
	}
	return chunks
}

// wordWindows cuts the whole text into consecutive windows of at most
// MaxChunkSize words. No minimum applies, so every word is covered.
func (c *Chunker) wordWindows(text string) []domain.Chunk {
	words := strings.Fields(text)
	size := c.rules.maxChunkSize

	chunks := make([]domain.Chunk, 0, (len(words)+size-1)/size)
	for start := 0; start < len(words); start += size {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, domain.Chunk{
			Section:   start/size + 1,
			Content:   strings.Join(words[start:end], " "),
			WordCount: end - start,
			Type:      domain.ChunkTypeWordGroup,
		})
	}
	return chunks
}

// splitBefore cuts s at the start of every match of re, so each heading
// stays with the section it opens. Blank pieces are dropped.
func splitBefore(re *regexp.Regexp, s string) []string {
	matches := re.FindAllStringIndex(s, -1)
	if len(matches) == 0 {
		return nonBlank([]string{s})
	}

	pieces := make([]string, 0, len(matches)+1)
	prev := 0
	for _, m := range matches {
		pieces = append(pieces, s[prev:m[0]])
		prev = m[0]
	}
	pieces = append(pieces, s[prev:])
	return nonBlank(pieces)
}

func nonBlank(pieces []string) []string {
	out := pieces[:0]
	for _, p := range pieces {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// WordCount counts whitespace-delimited tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
