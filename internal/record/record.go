// Package record defines the chunk record, the unit persisted to a store directory
// as one <id>.json file and indexed in the binary vector index.
package record

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Dimensions is the fixed embedding length produced by every embedder façade.
const Dimensions = 768

// ChunkRecord is the persisted unit: chunk text, its embedding, free-form metadata,
// and a creation timestamp. Embedding is empty only transiently, before the first
// write; once persisted with a nonempty embedding its length is always Dimensions.
type ChunkRecord struct {
	ID        string                 `json:"Id"`
	Content   string                 `json:"Content"`
	Embedding []float32              `json:"Embedding"`
	Metadata  map[string]interface{} `json:"Metadata"`
	CreatedAt time.Time              `json:"CreatedAt"`

	// extra carries any JSON fields not named above, so a read-modify-write round trip
	// does not silently drop fields an older or newer version of this library wrote.
	extra map[string]json.RawMessage
}

// New returns a chunk record with a freshly assigned id and CreatedAt set to now.
func New(content string, embedding []float32, metadata map[string]interface{}) *ChunkRecord {
	return &ChunkRecord{
		ID:        uuid.New().String(),
		Content:   content,
		Embedding: embedding,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate checks the invariant that a nonempty embedding has exactly Dimensions entries.
func (r *ChunkRecord) Validate() error {
	if len(r.Embedding) != 0 && len(r.Embedding) != Dimensions {
		return fmt.Errorf("embedding has %d dimensions, want %d", len(r.Embedding), Dimensions)
	}
	return nil
}

// knownFields lists the JSON keys this struct interprets directly; everything else
// round-trips through extra.
var knownFields = map[string]bool{
	"Id": true, "Content": true, "Embedding": true, "Metadata": true, "CreatedAt": true,
}

// MarshalJSON emits the known fields plus any preserved unknown fields from a prior read.
func (r *ChunkRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(r.extra)+5)
	for k, v := range r.extra {
		out[k] = v
	}
	enc := func(v interface{}) json.RawMessage {
		b, _ := json.Marshal(v)
		return json.RawMessage(b)
	}
	out["Id"] = enc(r.ID)
	out["Content"] = enc(r.Content)
	if r.Embedding == nil {
		out["Embedding"] = json.RawMessage("[]")
	} else {
		out["Embedding"] = enc(r.Embedding)
	}
	if r.Metadata == nil {
		out["Metadata"] = json.RawMessage("{}")
	} else {
		out["Metadata"] = enc(r.Metadata)
	}
	out["CreatedAt"] = enc(r.CreatedAt)
	return json.Marshal(out)
}

// UnmarshalJSON parses known fields and preserves every other field verbatim in extra,
// so a read-modify-write cycle by an older or newer version of this library does not
// lose data it doesn't understand.
func (r *ChunkRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw["Id"]; ok {
		if err := json.Unmarshal(v, &r.ID); err != nil {
			return fmt.Errorf("decode Id: %w", err)
		}
	}
	if v, ok := raw["Content"]; ok {
		if err := json.Unmarshal(v, &r.Content); err != nil {
			return fmt.Errorf("decode Content: %w", err)
		}
	}
	if v, ok := raw["Embedding"]; ok {
		if err := json.Unmarshal(v, &r.Embedding); err != nil {
			return fmt.Errorf("decode Embedding: %w", err)
		}
	}
	if v, ok := raw["Metadata"]; ok {
		if err := json.Unmarshal(v, &r.Metadata); err != nil {
			return fmt.Errorf("decode Metadata: %w", err)
		}
	}
	if v, ok := raw["CreatedAt"]; ok {
		if err := json.Unmarshal(v, &r.CreatedAt); err != nil {
			return fmt.Errorf("decode CreatedAt: %w", err)
		}
	}
	r.extra = make(map[string]json.RawMessage)
	for k, v := range raw {
		if !knownFields[k] {
			r.extra[k] = v
		}
	}
	return nil
}

// ParseBytes decodes a chunk record from file content, applying the corruption checks
// from the binary/JSON format contract: empty content, content that doesn't look like
// a JSON object, or content that fails to parse are all treated as corrupt.
func ParseBytes(data []byte) (*ChunkRecord, error) {
	trimmed := trimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty record")
	}
	if trimmed[0] != '{' || trimmed[len(trimmed)-1] != '}' {
		return nil, fmt.Errorf("record does not look like a JSON object")
	}
	var r ChunkRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse record: %w", err)
	}
	return &r, nil
}

func trimSpace(b []byte) []byte {
	start, end := 0, len(b)
	isSpace := func(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
	for start < end && isSpace(b[start]) {
		start++
	}
	for end > start && isSpace(b[end-1]) {
		end--
	}
	return b[start:end]
}
