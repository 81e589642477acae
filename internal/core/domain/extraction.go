package domain

// ProcessingMethod records which extraction tier produced a result.
type ProcessingMethod string

const (
	ProcessingMethodEnhanced ProcessingMethod = "enhanced"
	ProcessingMethodBasic    ProcessingMethod = "basic"
	ProcessingMethodFailed   ProcessingMethod = "failed"
)

// ExtractionResult is the normalized output of any extraction tier.
type ExtractionResult struct {
	ExtractedText    string           `json:"extractedText"`
	TextChunks       []Chunk          `json:"textChunks"`
	PageCount        int              `json:"pageCount"`
	WordCount        int              `json:"wordCount"`
	Status           ExtractionStatus `json:"status"`
	ProcessingMethod ProcessingMethod `json:"processingMethod"`

	// Document is the enhanced extractor's own output, kept for the artifact.
	// Nil for every other tier.
	Document map[string]any `json:"-"`
}

// FailedExtraction is the result reported when no tier produced content.
func FailedExtraction() *ExtractionResult {
	return &ExtractionResult{
		TextChunks:       []Chunk{},
		Status:           ExtractionStatusFailed,
		ProcessingMethod: ProcessingMethodFailed,
	}
}

// Succeeded reports whether the result carries extracted content.
func (r *ExtractionResult) Succeeded() bool {
	return r != nil && r.Status == ExtractionStatusCompleted
}

// IsEnhanced reports whether the result came from the enhanced tier with its document intact.
func (r *ExtractionResult) IsEnhanced() bool {
	return r != nil && r.ProcessingMethod == ProcessingMethodEnhanced && r.Document != nil
}
