// Package extractors implements the extraction tiers and the registry that
// orders them into a fallback chain.
package extractors

import (
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry implements ExtractorRegistry with priority-based ordering.
type Registry struct {
	mu         sync.RWMutex
	extractors []driven.Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		extractors: make([]driven.Extractor, 0),
	}
}

// Register adds an extraction tier.
func (r *Registry) Register(extractor driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.extractors = append(r.extractors, extractor)
}

// GetAll returns every tier that handles mimeType, highest priority first.
// Tiers with equal priority keep their registration order.
func (r *Registry) GetAll(mimeType string) []driven.Extractor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []driven.Extractor
	for _, e := range r.extractors {
		if matchesMIMEType(e.SupportedTypes(), mimeType) {
			matches = append(matches, e)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Priority() > matches[j].Priority()
	})
	return matches
}

// List returns tier names, highest priority first.
func (r *Registry) List() []string {
	r.mu.RLock()
	all := make([]driven.Extractor, len(r.extractors))
	copy(all, r.extractors)
	r.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Priority() > all[j].Priority()
	})
	names := make([]string, len(all))
	for i, e := range all {
		names[i] = e.Name()
	}
	return names
}

// matchesMIMEType checks if any of the supported types match the given MIME type.
// Supports wildcard matching (e.g., "application/*" matches "application/pdf").
func matchesMIMEType(supportedTypes []string, mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))

	// Strip charset and other parameters
	if idx := strings.Index(mimeType, ";"); idx != -1 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}

	for _, supported := range supportedTypes {
		supported = strings.ToLower(strings.TrimSpace(supported))

		switch {
		case supported == "*/*", supported == mimeType:
			return true
		case strings.HasSuffix(supported, "/*"):
			if strings.HasPrefix(mimeType, supported[:len(supported)-1]) {
				return true
			}
		}
	}
	return false
}
