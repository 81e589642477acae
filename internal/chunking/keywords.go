package chunking

import (
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

var keywordToken = regexp.MustCompile(`\b[a-z]{3,}\b`)

// KeywordExtractor ranks the most frequent non-stopword terms of a text.
type KeywordExtractor struct {
	rules *Rules
}

// NewKeywordExtractor creates an extractor. A nil rules value selects DefaultRules.
func NewKeywordExtractor(rules *Rules) *KeywordExtractor {
	if rules == nil {
		rules = DefaultRules()
	}
	return &KeywordExtractor{rules: rules}
}

// Extract returns up to MaxKeywords entries with at least MinFrequency
// occurrences, most frequent first. Equal frequencies keep the order in which
// the words first appear in text.
func (k *KeywordExtractor) Extract(text string) []domain.KeywordEntry {
	counts := make(map[string]int)
	var order []string

	for _, word := range keywordToken.FindAllString(strings.ToLower(text), -1) {
		if k.rules.IsStopword(word) {
			continue
		}
		if counts[word] == 0 {
			order = append(order, word)
		}
		counts[word]++
	}

	entries := make([]domain.KeywordEntry, 0, len(order))
	for _, word := range order {
		if counts[word] >= k.rules.minFrequency {
			entries = append(entries, domain.KeywordEntry{Word: word, Frequency: counts[word]})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Frequency > entries[j].Frequency
	})

	if len(entries) > k.rules.maxKeywords {
		entries = entries[:k.rules.maxKeywords]
	}
	return entries
}
