package index

import (
	"github.com/corvusdb/corvus/internal/corverr"
	"github.com/corvusdb/corvus/internal/vectormath"
)

// FlatIndex stores the full N×D matrix and parallel id list, scanning all of
// it on every query. It is the correctness baseline — the oracle that the
// approximate indexes (RP-LSH, Hierarchical) are measured against — and is
// intended for small libraries where O(N·D) per query is acceptable.
type FlatIndex struct {
	ids     []string
	vectors [][]float64
}

// BuildFlat constructs a FlatIndex over items. Construction does no more
// than copy the inputs; there is no preprocessing to amortize.
func BuildFlat(items []Item) (*FlatIndex, error) {
	ids := make([]string, len(items))
	vectors := make([][]float64, len(items))
	for i, it := range items {
		if err := vectormath.Validate(it.Vector); err != nil {
			return nil, err
		}
		ids[i] = it.ChunkID
		vectors[i] = it.Vector
	}
	return &FlatIndex{ids: ids, vectors: vectors}, nil
}

// Search computes cosine similarity against every vector, maintaining a
// bounded min-heap of size k. Complexity is O(N·D) time, O(k) extra space.
func (f *FlatIndex) Search(query []float64, k int, filter Filter) ([]Result, error) {
	if k <= 0 {
		return nil, nil
	}
	filter = normalizeFilter(filter)

	collector := newTopKCollector(k)
	for i, id := range f.ids {
		if !filter(id) {
			continue
		}
		score, err := vectormath.Cosine(query, f.vectors[i])
		if err != nil {
			return nil, corverr.Wrap(corverr.Internal, "flat search cosine computation failed", err)
		}
		collector.offer(Result{ChunkID: id, Score: score})
	}
	return collector.results(), nil
}

func (f *FlatIndex) Type() Type { return Flat }

func (f *FlatIndex) Len() int { return len(f.ids) }
