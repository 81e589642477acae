package chunking

import (
	"regexp"
	"strings"
)

var sentenceTerminators = regexp.MustCompile(`[.!?]+`)

// maxSummaryLength is measured in characters (runes).
const maxSummaryLength = 100

// Summarize returns the first sentence of text, truncated to 100 characters
// with an ellipsis when longer, otherwise terminated with a period.
func Summarize(text string) string {
	first := strings.TrimSpace(sentenceTerminators.Split(text, 2)[0])

	runes := []rune(first)
	if len(runes) > maxSummaryLength {
		return string(runes[:maxSummaryLength-3]) + "..."
	}
	return first + "."
}
