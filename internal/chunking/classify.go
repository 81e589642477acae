package chunking

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

var (
	headerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^[A-Z\s]{5,}$`),
		regexp.MustCompile(`^\d+\.\s+[A-Z]`),
		regexp.MustCompile(`^Chapter\s+\d+`),
		regexp.MustCompile(`^Section\s+\d+`),
		regexp.MustCompile(`^[A-Z][a-z\s]{5,}:$`),
	}
	listPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\s*[-*+]\s+`),
		regexp.MustCompile(`^\s*\d+\.\s+`),
		regexp.MustCompile(`^\s*[a-zA-Z]\.\s+`),
	}
	columnGap  = regexp.MustCompile(`[ \t]{3,}`)
	anyWord    = regexp.MustCompile(`\b\w+\b`)
	lineColumn = regexp.MustCompile(`\t| {3,}`)
)

// englishMarkers are common function words used to guess the text language.
var englishMarkers = map[string]struct{}{
	"the": {}, "and": {}, "or": {}, "to": {}, "of": {},
	"in": {}, "for": {}, "with": {}, "on": {}, "at": {},
}

const (
	languageSampleSize = 3000
	minEnglishMarkers  = 3
	minTableLines      = 6
)

// Classify guesses the layout class of a chunk's content. Header patterns
// win over list patterns, which win over column layout.
func Classify(content string) domain.ContentKind {
	clean := strings.TrimSpace(content)

	for _, re := range headerPatterns {
		if re.MatchString(clean) {
			return domain.ContentKindHeader
		}
	}
	for _, re := range listPatterns {
		if re.MatchString(clean) {
			return domain.ContentKindList
		}
	}
	if strings.Contains(content, "\t") || columnGap.MatchString(content) {
		return domain.ContentKindTable
	}
	return domain.ContentKindParagraph
}

// DetectLanguage returns "en" when the opening of text uses enough common
// English function words, otherwise "unknown".
func DetectLanguage(text string) string {
	sample := text
	if len(sample) > languageSampleSize {
		sample = sample[:languageSampleSize]
	}

	seen := make(map[string]struct{})
	for _, w := range anyWord.FindAllString(strings.ToLower(sample), -1) {
		if _, ok := englishMarkers[w]; ok {
			seen[w] = struct{}{}
		}
	}
	if len(seen) >= minEnglishMarkers {
		return "en"
	}
	return "unknown"
}

// HasTables reports whether more than five lines look column aligned.
func HasTables(text string) bool {
	aligned := 0
	for _, line := range strings.Split(text, "\n") {
		if lineColumn.MatchString(line) {
			aligned++
			if aligned >= minTableLines {
				return true
			}
		}
	}
	return false
}
