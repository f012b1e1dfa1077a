package chunk

import (
	"strings"
	"testing"

	"github.com/localvector/vectorstore/internal/boundary"
)

func TestOptionsValidate(t *testing.T) {
	cases := []struct {
		name string
		opts Options
		ok   bool
	}{
		{"valid", Options{MaxChunkSize: 150, MinChunkSize: 50, OverlapSize: 25}, true},
		{"min_exceeds_max", Options{MaxChunkSize: 50, MinChunkSize: 150, OverlapSize: 0}, false},
		{"overlap_equals_min", Options{MaxChunkSize: 150, MinChunkSize: 50, OverlapSize: 50}, false},
		{"negative_min", Options{MaxChunkSize: 150, MinChunkSize: -1, OverlapSize: 0}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.opts.Validate()
			if c.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !c.ok && err == nil {
				t.Errorf("Validate() = nil, want error")
			}
		})
	}
}

func TestAssembleChunkingDeterminism(t *testing.T) {
	text := strings.Repeat("This is a test sentence. ", 50)
	opts := Options{MaxChunkSize: 150, MinChunkSize: 50, OverlapSize: 25, Strategy: Hybrid}
	boundaries := boundary.Detect(text, boundary.Text)

	chunks, err := Assemble(text, boundaries, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
	for i, c := range chunks {
		if c.CharacterCount < opts.MinChunkSize || c.CharacterCount > opts.MaxChunkSize {
			t.Errorf("chunk %d: length %d outside [%d, %d]", i, c.CharacterCount, opts.MinChunkSize, opts.MaxChunkSize)
		}
		if c.ChunkIndex != i {
			t.Errorf("chunk %d: ChunkIndex = %d, want %d", i, c.ChunkIndex, i)
		}
	}

	again, err := Assemble(text, boundaries, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != len(chunks) {
		t.Fatalf("non-deterministic chunk count: %d vs %d", len(chunks), len(again))
	}
	for i := range chunks {
		if chunks[i].Content != again[i].Content {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestAssembleEmptyText(t *testing.T) {
	chunks, err := Assemble("", nil, Options{MaxChunkSize: 100, MinChunkSize: 10, OverlapSize: 0})
	if err != nil {
		t.Fatal(err)
	}
	if chunks != nil {
		t.Errorf("expected no chunks for empty text, got %d", len(chunks))
	}
}

func TestAssembleShortTextBelowMinStillEmitted(t *testing.T) {
	text := "short"
	chunks, err := Assemble(text, nil, Options{MaxChunkSize: 100, MinChunkSize: 50, OverlapSize: 0})
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 || chunks[0].Content != text {
		t.Fatalf("expected a single fallback chunk with the whole text, got %+v", chunks)
	}
}

func TestAssembleRespectsMarkdownHeaders(t *testing.T) {
	text := "# Title\n\nSome intro text.\n\n## Section\n\nMore content here that continues on for a while so it has some real length to it."
	opts := Options{MaxChunkSize: 60, MinChunkSize: 10, OverlapSize: 5, Strategy: Structural, PreserveHeaders: true}
	boundaries := boundary.Detect(text, boundary.Markdown)

	chunks, err := Assemble(text, boundaries, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	found := false
	for _, c := range chunks {
		if c.HeaderContext != "" {
			found = true
		}
	}
	if !found {
		t.Error("expected at least one chunk to carry a header context")
	}
}

func TestAssembleOverlapCarriesForward(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta epsilon zeta. ", 30)
	opts := Options{MaxChunkSize: 120, MinChunkSize: 40, OverlapSize: 20, Strategy: Hybrid}
	boundaries := boundary.Detect(text, boundary.Text)

	chunks, err := Assemble(text, boundaries, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	hasOverlap := false
	for _, c := range chunks[1:] {
		if c.HasOverlap {
			hasOverlap = true
		}
	}
	if !hasOverlap {
		t.Error("expected at least one later chunk to be marked as having overlap")
	}
}
