package mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

var (
	_ driven.FileStore      = (*MockFileStore)(nil)
	_ driven.ArtifactWriter = (*MockArtifactWriter)(nil)
)

// MockFileStore keeps uploads in memory under "/uploads/<id>/<fileName>".
type MockFileStore struct {
	mu    sync.Mutex
	files map[string][]byte

	SaveFn func(id, fileName string) error
}

func NewMockFileStore() *MockFileStore {
	return &MockFileStore{files: make(map[string][]byte)}
}

func (m *MockFileStore) Save(ctx context.Context, id, fileName string, r io.Reader, maxBytes int64) (string, int64, error) {
	if m.SaveFn != nil {
		if err := m.SaveFn(id, fileName); err != nil {
			return "", 0, err
		}
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return "", 0, err
	}
	if int64(len(data)) > maxBytes {
		return "", 0, domain.ErrFileTooLarge
	}

	path := fmt.Sprintf("/uploads/%s/%s", id, fileName)
	m.mu.Lock()
	m.files[path] = data
	m.mu.Unlock()
	return path, int64(len(data)), nil
}

func (m *MockFileStore) Remove(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
	return nil
}

// Has reports whether a file is stored at path.
func (m *MockFileStore) Has(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	return ok
}

// MockArtifactWriter keeps written artifacts as JSON in memory.
type MockArtifactWriter struct {
	mu        sync.Mutex
	artifacts map[string][]byte

	WriteFn func(path string, body any) error
}

func NewMockArtifactWriter() *MockArtifactWriter {
	return &MockArtifactWriter{artifacts: make(map[string][]byte)}
}

func (m *MockArtifactWriter) Write(ctx context.Context, path string, body any) error {
	if m.WriteFn != nil {
		if err := m.WriteFn(path, body); err != nil {
			return err
		}
	}
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.artifacts[path] = data
	m.mu.Unlock()
	return nil
}

func (m *MockArtifactWriter) Read(ctx context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.artifacts[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

// Decoded returns the artifact at path unmarshalled into a generic map.
func (m *MockArtifactWriter) Decoded(path string) (map[string]any, bool) {
	data, err := m.Read(context.Background(), path)
	if err != nil {
		return nil, false
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false
	}
	return out, true
}
