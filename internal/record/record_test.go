package record

import (
	"encoding/json"
	"testing"
)

func TestNewAssignsIDAndTimestamp(t *testing.T) {
	r := New("hello", make([]float32, Dimensions), map[string]interface{}{"k": "v"})
	if r.ID == "" {
		t.Error("expected a generated ID")
	}
	if r.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
	if r.Content != "hello" {
		t.Errorf("Content = %q", r.Content)
	}
}

func TestValidate(t *testing.T) {
	ok := &ChunkRecord{Embedding: make([]float32, Dimensions)}
	if err := ok.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	empty := &ChunkRecord{}
	if err := empty.Validate(); err != nil {
		t.Errorf("Validate() on empty embedding = %v, want nil", err)
	}

	bad := &ChunkRecord{Embedding: make([]float32, Dimensions-1)}
	if err := bad.Validate(); err == nil {
		t.Error("expected an error for a wrong-length embedding")
	}
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	r := New("some content", []float32{1, 2, 3}, map[string]interface{}{"category": "test"})

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}

	var got ChunkRecord
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != r.ID || got.Content != r.Content {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, r)
	}
	if len(got.Embedding) != 3 {
		t.Errorf("embedding length = %d, want 3", len(got.Embedding))
	}
	if got.Metadata["category"] != "test" {
		t.Errorf("metadata category = %v", got.Metadata["category"])
	}
}

func TestUnmarshalPreservesUnknownFields(t *testing.T) {
	raw := `{"Id":"abc","Content":"hi","Embedding":[],"Metadata":{},"CreatedAt":"2024-01-01T00:00:00Z","FutureField":"keep me"}`

	var r ChunkRecord
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(&r)
	if err != nil {
		t.Fatal(err)
	}

	var back map[string]interface{}
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back["FutureField"] != "keep me" {
		t.Errorf("expected unknown field to round-trip, got %v", back["FutureField"])
	}
}

func TestParseBytes(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		r := New("x", nil, nil)
		data, _ := json.Marshal(r)
		got, err := ParseBytes(data)
		if err != nil {
			t.Fatal(err)
		}
		if got.ID != r.ID {
			t.Errorf("ID = %q, want %q", got.ID, r.ID)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if _, err := ParseBytes([]byte("   ")); err == nil {
			t.Error("expected error for empty input")
		}
	})

	t.Run("not_json_object", func(t *testing.T) {
		if _, err := ParseBytes([]byte(`{"Id":"abc"`)); err == nil {
			t.Error("expected error for truncated JSON")
		}
	})

	t.Run("not_an_object", func(t *testing.T) {
		if _, err := ParseBytes([]byte(`[1,2,3]`)); err == nil {
			t.Error("expected error for a JSON array")
		}
	})
}
