package chunking

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default chunk sizing, in words.
const (
	DefaultMaxChunkSize = 800
	DefaultMinChunkSize = 100
)

// DefaultStopwords is the English function-word list ignored by keyword extraction.
var DefaultStopwords = []string{
	"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with", "by",
	"is", "are", "was", "were", "be", "been", "being", "have", "has", "had", "do", "does", "did",
	"will", "would", "could", "should", "may", "might", "can", "this", "that", "these", "those",
	"i", "you", "he", "she", "it", "we", "they", "me", "him", "her", "us", "them", "said", "says",
}

// DefaultHeadingPatterns are tried in order during the structural split.
var DefaultHeadingPatterns = []string{
	`\n\s*(?:CHAPTER|Chapter|chapter)\s+\d+`,
	`\n\s*(?:SECTION|Section|section)\s+\d+`,
	`\n\s*\d+\.\s+[A-Z]`,
	`\n\s*[A-Z][A-Z\s]{10,}\n`,
	`\n\s*[A-Z][a-z\s]{5,}:\s*\n`,
}

// RulesConfig is the editable form of Rules, as loaded from YAML.
type RulesConfig struct {
	MaxChunkSize    int      `yaml:"max_chunk_size"`
	MinChunkSize    int      `yaml:"min_chunk_size"`
	Stopwords       []string `yaml:"stopwords"`
	HeadingPatterns []string `yaml:"heading_patterns"`
	MaxKeywords     int      `yaml:"max_keywords"`
	MinFrequency    int      `yaml:"min_frequency"`
}

// DefaultRulesConfig returns the built-in English rules.
func DefaultRulesConfig() RulesConfig {
	return RulesConfig{
		MaxChunkSize:    DefaultMaxChunkSize,
		MinChunkSize:    DefaultMinChunkSize,
		Stopwords:       append([]string(nil), DefaultStopwords...),
		HeadingPatterns: append([]string(nil), DefaultHeadingPatterns...),
		MaxKeywords:     10,
		MinFrequency:    2,
	}
}

// Rules is the immutable language and layout configuration shared by the
// chunker and the keyword extractor. Build it with NewRules; it is safe for
// concurrent use.
type Rules struct {
	maxChunkSize int
	minChunkSize int
	maxKeywords  int
	minFrequency int
	stopwords    map[string]struct{}
	headings     []*regexp.Regexp
}

// NewRules validates cfg and compiles its patterns.
// Zero values fall back to the defaults.
func NewRules(cfg RulesConfig) (*Rules, error) {
	def := DefaultRulesConfig()
	if cfg.MaxChunkSize == 0 {
		cfg.MaxChunkSize = def.MaxChunkSize
	}
	if cfg.MinChunkSize == 0 {
		cfg.MinChunkSize = def.MinChunkSize
	}
	if cfg.MaxKeywords == 0 {
		cfg.MaxKeywords = def.MaxKeywords
	}
	if cfg.MinFrequency == 0 {
		cfg.MinFrequency = def.MinFrequency
	}
	if cfg.Stopwords == nil {
		cfg.Stopwords = def.Stopwords
	}
	if cfg.HeadingPatterns == nil {
		cfg.HeadingPatterns = def.HeadingPatterns
	}

	if cfg.MaxChunkSize < 1 || cfg.MinChunkSize < 1 {
		return nil, fmt.Errorf("chunk sizes must be positive (max=%d, min=%d)", cfg.MaxChunkSize, cfg.MinChunkSize)
	}
	if cfg.MinChunkSize > cfg.MaxChunkSize {
		return nil, fmt.Errorf("min chunk size %d exceeds max %d", cfg.MinChunkSize, cfg.MaxChunkSize)
	}
	if cfg.MaxKeywords < 1 || cfg.MinFrequency < 1 {
		return nil, fmt.Errorf("keyword limits must be positive (max=%d, min frequency=%d)", cfg.MaxKeywords, cfg.MinFrequency)
	}

	r := &Rules{
		maxChunkSize: cfg.MaxChunkSize,
		minChunkSize: cfg.MinChunkSize,
		maxKeywords:  cfg.MaxKeywords,
		minFrequency: cfg.MinFrequency,
		stopwords:    make(map[string]struct{}, len(cfg.Stopwords)),
		headings:     make([]*regexp.Regexp, 0, len(cfg.HeadingPatterns)),
	}
	for _, w := range cfg.Stopwords {
		r.stopwords[strings.ToLower(w)] = struct{}{}
	}
	for i, p := range cfg.HeadingPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("heading pattern %d: %w", i, err)
		}
		r.headings = append(r.headings, re)
	}
	return r, nil
}

// DefaultRules returns the built-in English rules.
func DefaultRules() *Rules {
	r, err := NewRules(DefaultRulesConfig())
	if err != nil {
		panic(err)
	}
	return r
}

// LoadRules reads a YAML rules file. Omitted keys keep their defaults.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var cfg RulesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}
	return NewRules(cfg)
}

// MaxChunkSize is the largest section, in words, emitted as one chunk.
func (r *Rules) MaxChunkSize() int { return r.maxChunkSize }

// MinChunkSize is the smallest section, in words, kept on the structural path.
func (r *Rules) MinChunkSize() int { return r.minChunkSize }

// IsStopword reports whether word is ignored by keyword extraction.
func (r *Rules) IsStopword(word string) bool {
	_, ok := r.stopwords[word]
	return ok
}

// HeadingCount returns the number of heading patterns.
func (r *Rules) HeadingCount() int { return len(r.headings) }
