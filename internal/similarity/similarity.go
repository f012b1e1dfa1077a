// Package similarity implements the cosine similarity kernel and top-k selection used
// by the vector index to score query embeddings against stored ones.
package similarity

import (
	"fmt"
	"math"
	"sort"
)

// DimensionMismatchError reports that two vectors passed to Cosine had different
// lengths.
type DimensionMismatchError struct {
	LenA, LenB int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: %d vs %d", e.LenA, e.LenB)
}

// Cosine returns the cosine similarity of a and b. It returns 0 if either vector has
// zero L2 norm, and fails with *DimensionMismatchError if len(a) != len(b).
func Cosine(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, &DimensionMismatchError{LenA: len(a), LenB: len(b)}
	}
	var dot, normA, normB float64
	for i := range a {
		ai, bi := float64(a[i]), float64(b[i])
		dot += ai * bi
		normA += ai * ai
		normB += bi * bi
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB))), nil
}

// Candidate is one scored entry considered by TopK.
type Candidate struct {
	ID        string
	Embedding []float32
}

// Scored is a candidate paired with its similarity score against the query.
type Scored struct {
	ID    string
	Score float32
}

// TopK scores every candidate against query and returns at most k results, sorted
// descending by score with ties broken by ascending id. Candidates whose embedding
// length differs from the query's are skipped rather than failing the whole call.
func TopK(query []float32, candidates []Candidate, k int) ([]Scored, error) {
	if k <= 0 {
		return nil, nil
	}
	out := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		score, err := Cosine(query, c.Embedding)
		if err != nil {
			if _, ok := err.(*DimensionMismatchError); ok {
				continue
			}
			return nil, err
		}
		out = append(out, Scored{ID: c.ID, Score: score})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}
