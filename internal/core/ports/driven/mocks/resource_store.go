package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

var _ driven.ResourceStore = (*MockResourceStore)(nil)

// MockResourceStore is an in-memory ResourceStore. Stored resources are
// copied on the way in and out so tests observe only committed state.
type MockResourceStore struct {
	mu        sync.RWMutex
	resources map[string]*domain.Resource

	// Optional failure hooks
	CreateFn           func(resource *domain.Resource) error
	UpdateExtractionFn func(id string, from domain.ExtractionStatus, update domain.ExtractionUpdate) error
	UpdateArtifactFn   func(id string, from, status domain.JSONFileStatus, path string) error
	PingFn             func() error
}

// NewMockResourceStore creates an empty store.
func NewMockResourceStore() *MockResourceStore {
	return &MockResourceStore{
		resources: make(map[string]*domain.Resource),
	}
}

func (m *MockResourceStore) Create(ctx context.Context, resource *domain.Resource) error {
	if m.CreateFn != nil {
		if err := m.CreateFn(resource); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.resources[resource.ID]; exists {
		return domain.ErrAlreadyExists
	}
	m.resources[resource.ID] = cloneResource(resource)
	return nil
}

func (m *MockResourceStore) Get(ctx context.Context, id string) (*domain.Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.resources[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneResource(r), nil
}

func (m *MockResourceStore) List(ctx context.Context, filter domain.ResourceFilter) ([]*domain.Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*domain.Resource
	for _, r := range m.resources {
		if filter.SubjectID != "" && r.SubjectID != filter.SubjectID {
			continue
		}
		if filter.ExtractionStatus != "" && r.ExtractionStatus != filter.ExtractionStatus {
			continue
		}
		c := cloneResource(r)
		c.ExtractedText = ""
		c.TextChunks = nil
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UploadDate.After(out[j].UploadDate)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []*domain.Resource{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MockResourceStore) UpdateExtraction(ctx context.Context, id string, from domain.ExtractionStatus, update domain.ExtractionUpdate) error {
	if m.UpdateExtractionFn != nil {
		if err := m.UpdateExtractionFn(id, from, update); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resources[id]
	if !ok {
		return domain.ErrNotFound
	}
	if r.ExtractionStatus != from {
		return fmt.Errorf("extraction status is %s, expected %s: %w", r.ExtractionStatus, from, domain.ErrInvalidTransition)
	}
	r.ExtractionStatus = update.Status
	if update.ExtractionDate != nil {
		r.ExtractionDate = update.ExtractionDate
		r.PageCount = update.PageCount
		r.WordCount = update.WordCount
		r.ExtractedText = update.ExtractedText
		r.TextChunks = update.TextChunks
		r.ProcessingMethod = update.ProcessingMethod
	}
	return nil
}

func (m *MockResourceStore) UpdateArtifact(ctx context.Context, id string, from, status domain.JSONFileStatus, path string) error {
	if m.UpdateArtifactFn != nil {
		if err := m.UpdateArtifactFn(id, from, status, path); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resources[id]
	if !ok {
		return domain.ErrNotFound
	}
	if r.JSONFileStatus != from {
		return fmt.Errorf("json file status is %s, expected %s: %w", r.JSONFileStatus, from, domain.ErrInvalidTransition)
	}
	r.JSONFileStatus = status
	r.JSONFilePath = path
	return nil
}

func (m *MockResourceStore) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn()
	}
	return nil
}

// Put stores a resource directly, bypassing Create (for test setup).
func (m *MockResourceStore) Put(resource *domain.Resource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resources[resource.ID] = cloneResource(resource)
}

func cloneResource(r *domain.Resource) *domain.Resource {
	c := *r
	if r.TextChunks != nil {
		c.TextChunks = append([]domain.Chunk(nil), r.TextChunks...)
	}
	return &c
}
