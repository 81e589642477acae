package extractors

import (
	"testing"

	"github.com/custodia-labs/lectern/internal/core/ports/driven/mocks"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("expected non-nil registry")
	}
	if len(r.List()) != 0 {
		t.Errorf("expected empty registry, got %v", r.List())
	}
}

func TestRegistry_GetAll_PriorityOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(&mocks.MockExtractor{NameValue: "basic", PriorityValue: 10})
	r.Register(&mocks.MockExtractor{NameValue: "enhanced", PriorityValue: 90})
	r.Register(&mocks.MockExtractor{NameValue: "other", PriorityValue: 50, Types: []string{"text/plain"}})

	got := r.GetAll("application/pdf")

	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	if got[0].Name() != "enhanced" || got[1].Name() != "basic" {
		t.Errorf("expected enhanced then basic, got %s then %s", got[0].Name(), got[1].Name())
	}

	names := r.List()
	if len(names) != 3 || names[0] != "enhanced" || names[2] != "basic" {
		t.Errorf("unexpected list %v", names)
	}
}

func TestRegistry_GetAll_NoMatch(t *testing.T) {
	r := NewRegistry()
	r.Register(&mocks.MockExtractor{NameValue: "basic"})

	if got := r.GetAll("image/png"); len(got) != 0 {
		t.Errorf("expected no matches, got %d", len(got))
	}
}

func TestRegistry_EqualPriorityKeepsRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(&mocks.MockExtractor{NameValue: "first", PriorityValue: 5})
	r.Register(&mocks.MockExtractor{NameValue: "second", PriorityValue: 5})

	got := r.GetAll("application/pdf")
	if got[0].Name() != "first" || got[1].Name() != "second" {
		t.Errorf("expected registration order, got %s, %s", got[0].Name(), got[1].Name())
	}
}

func TestMatchesMIMEType(t *testing.T) {
	tests := []struct {
		name      string
		supported []string
		mimeType  string
		want      bool
	}{
		{"exact", []string{"application/pdf"}, "application/pdf", true},
		{"case and params", []string{"application/pdf"}, "Application/PDF; charset=binary", true},
		{"wildcard", []string{"application/*"}, "application/pdf", true},
		{"universal", []string{"*/*"}, "image/png", true},
		{"mismatch", []string{"application/pdf"}, "text/plain", false},
		{"empty", nil, "application/pdf", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchesMIMEType(tt.supported, tt.mimeType); got != tt.want {
				t.Errorf("matchesMIMEType(%v, %q) = %v, want %v", tt.supported, tt.mimeType, got, tt.want)
			}
		})
	}
}
