package vectorstore

import (
	"context"

	"go.uber.org/zap"

	"github.com/localvector/vectorstore/internal/similarity"
	"github.com/localvector/vectorstore/internal/storeerr"
)

// SearchVector returns the top k chunk records by cosine similarity to query, highest
// score first. Records whose file has become unreadable or corrupt since the index
// was last built are skipped rather than failing the whole search.
func (s *Store) SearchVector(ctx context.Context, query []float32, k int) ([]SearchResult, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	if len(query) != Dimensions {
		return nil, storeerr.New(storeerr.DimensionMismatch, "query embedding has wrong dimensionality")
	}

	entries := s.index.All()
	candidates := make([]similarity.Candidate, len(entries))
	for i, e := range entries {
		candidates[i] = similarity.Candidate{ID: e.ID, Embedding: e.Embedding}
	}

	scored, err := similarity.TopK(query, candidates, k)
	if err != nil {
		return nil, storeerr.Wrap(storeerr.InvalidInput, "score candidates", err)
	}

	out := make([]SearchResult, 0, len(scored))
	for _, sc := range scored {
		rec, err := s.index.Hydrate(sc.ID)
		if err != nil {
			s.logger.Warn("skipping unreadable chunk during search", zap.String("id", sc.ID), zap.Error(err))
			continue
		}
		out = append(out, SearchResult{Record: rec, Score: sc.Score})
	}
	return out, nil
}

// SearchText embeds query and returns the top k chunk records by cosine similarity.
func (s *Store) SearchText(ctx context.Context, query string, k int) ([]SearchResult, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.SearchVector(ctx, embedding, k)
}

// ResultIterator yields scored search hits one at a time, hydrating each chunk
// record's content lazily on Next rather than up front, so a caller that only wants
// the first few results never pays to read the rest.
type ResultIterator struct {
	store  *Store
	scored []similarity.Scored
	pos    int
}

// SearchTextLazy embeds query, scores every indexed embedding against it, and returns
// an iterator over the top k hits without reading any chunk record file yet.
func (s *Store) SearchTextLazy(ctx context.Context, query string, k int) (*ResultIterator, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.searchVectorLazy(embedding, k)
}

func (s *Store) searchVectorLazy(query []float32, k int) (*ResultIterator, error) {
	if len(query) != Dimensions {
		return nil, storeerr.New(storeerr.DimensionMismatch, "query embedding has wrong dimensionality")
	}
	entries := s.index.All()
	candidates := make([]similarity.Candidate, len(entries))
	for i, e := range entries {
		candidates[i] = similarity.Candidate{ID: e.ID, Embedding: e.Embedding}
	}
	scored, err := similarity.TopK(query, candidates, k)
	if err != nil {
		return nil, storeerr.Wrap(storeerr.InvalidInput, "score candidates", err)
	}
	return &ResultIterator{store: s, scored: scored}, nil
}

// Next returns the next hit in descending score order. The second return value is
// false once the iterator is exhausted. A chunk record that fails to hydrate is
// skipped internally rather than returned as an error, matching SearchVector.
func (it *ResultIterator) Next() (SearchResult, bool, error) {
	for it.pos < len(it.scored) {
		sc := it.scored[it.pos]
		it.pos++
		rec, err := it.store.index.Hydrate(sc.ID)
		if err != nil {
			it.store.logger.Warn("skipping unreadable chunk during lazy search", zap.String("id", sc.ID), zap.Error(err))
			continue
		}
		return SearchResult{Record: rec, Score: sc.Score}, true, nil
	}
	return SearchResult{}, false, nil
}

// Remaining returns how many unread hits the iterator still holds.
func (it *ResultIterator) Remaining() int {
	return len(it.scored) - it.pos
}
