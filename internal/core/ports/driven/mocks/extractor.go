package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

var (
	_ driven.Extractor     = (*MockExtractor)(nil)
	_ driven.CommandRunner = (*MockCommandRunner)(nil)
)

// MockExtractor is a configurable extraction tier.
type MockExtractor struct {
	NameValue     string
	PriorityValue int
	Types         []string
	ExtractFn     func(ctx context.Context, path string) (*domain.ExtractionResult, error)

	mu    sync.Mutex
	calls []string
}

func (m *MockExtractor) Name() string {
	if m.NameValue == "" {
		return "mock"
	}
	return m.NameValue
}

func (m *MockExtractor) Extract(ctx context.Context, path string) (*domain.ExtractionResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, path)
	m.mu.Unlock()

	if m.ExtractFn != nil {
		return m.ExtractFn(ctx, path)
	}
	return &domain.ExtractionResult{
		ExtractedText:    "mock text",
		TextChunks:       []domain.Chunk{},
		PageCount:        1,
		WordCount:        2,
		Status:           domain.ExtractionStatusCompleted,
		ProcessingMethod: domain.ProcessingMethodBasic,
	}, nil
}

func (m *MockExtractor) SupportedTypes() []string {
	if m.Types == nil {
		return []string{"application/pdf"}
	}
	return m.Types
}

func (m *MockExtractor) Priority() int {
	return m.PriorityValue
}

// Calls returns the paths Extract was called with.
func (m *MockExtractor) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// MockCommandRunner records invocations and returns a scripted result.
type MockCommandRunner struct {
	RunFn func(ctx context.Context, name string, args ...string) (*driven.CommandResult, error)

	mu   sync.Mutex
	runs [][]string
}

func (m *MockCommandRunner) Run(ctx context.Context, name string, args ...string) (*driven.CommandResult, error) {
	m.mu.Lock()
	m.runs = append(m.runs, append([]string{name}, args...))
	m.mu.Unlock()

	if m.RunFn != nil {
		return m.RunFn(ctx, name, args...)
	}
	return &driven.CommandResult{ExitCode: 0}, nil
}

// Runs returns every command line seen, name first.
func (m *MockCommandRunner) Runs() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]string(nil), m.runs...)
}
