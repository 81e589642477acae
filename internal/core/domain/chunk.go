package domain

// ChunkType describes how a chunk was cut from its document.
type ChunkType string

const (
	// ChunkTypeSection is a whole structural section within size bounds
	ChunkTypeSection ChunkType = "section"
	// ChunkTypeParagraphGroup is a run of paragraphs from an oversized section
	ChunkTypeParagraphGroup ChunkType = "paragraph_group"
	// ChunkTypeWordGroup is a fixed word window from the coverage fallback
	ChunkTypeWordGroup ChunkType = "word_group"
)

// ContentKind is the coarse layout class of a chunk's text.
type ContentKind string

const (
	ContentKindHeader    ContentKind = "header"
	ContentKindList      ContentKind = "list"
	ContentKindTable     ContentKind = "table"
	ContentKindParagraph ContentKind = "paragraph"
)

// Chunk is one semantically bounded slice of a document.
type Chunk struct {
	ID          int            `json:"id"`
	Section     int            `json:"section"`
	Content     string         `json:"content"`
	WordCount   int            `json:"wordCount"`
	Type        ChunkType      `json:"type"`
	Summary     string         `json:"summary"`
	Keywords    []KeywordEntry `json:"keywords,omitempty"`
	ContentKind ContentKind    `json:"contentKind,omitempty"`
	PageNumber  int            `json:"pageNumber,omitempty"`
	Confidence  float64        `json:"confidence,omitempty"`
}

// KeywordEntry is a word and how often it occurs in a text.
type KeywordEntry struct {
	Word      string `json:"word"`
	Frequency int    `json:"frequency"`
}
